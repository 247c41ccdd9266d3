package logger

import "testing"

func TestSanitizeKVsRedactsContactDetails(t *testing.T) {
	redactOnce.Do(func() {
		redactionEnabled = true
		hashSalt = ""
	})
	out := sanitizeKVs([]interface{}{
		"client_email", "sam@example.com",
		"client_phone", "07700 900123",
		"customer_id", "5d0c",
		"room", "Kitchen",
	})
	if len(out) != 8 {
		t.Fatalf("kv length: want=8 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("email: want=[REDACTED] got=%v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("phone: want=[REDACTED] got=%v", out[3])
	}
	if s, ok := out[5].(string); !ok || len(s) != len("hash:")+12 {
		t.Fatalf("customer_id: expected hashed value, got=%v", out[5])
	}
	if out[7] != "Kitchen" {
		t.Fatalf("room: want=Kitchen got=%v", out[7])
	}
}

func TestSanitizeKVsKeepsOddTrailingKey(t *testing.T) {
	redactOnce.Do(func() { redactionEnabled = true })
	out := sanitizeKVs([]interface{}{"step", "save", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}
