package voice

import (
	"sync"
	"time"
)

const maxActionLogEntries = 1000

type EntryKind string

const (
	EntryToolCall EntryKind = "tool_call"
	EntryIssue    EntryKind = "issue"
	EntrySession  EntryKind = "session"
)

// Entry is one line of the voice session transcript shown to the technician.
type Entry struct {
	At        time.Time `json:"at"`
	Kind      EntryKind `json:"kind"`
	CallID    string    `json:"call_id,omitempty"`
	Tool      string    `json:"tool,omitempty"`
	Arguments string    `json:"arguments,omitempty"`
	Result    string    `json:"result,omitempty"`
	Issue     string    `json:"issue,omitempty"`
	Severity  string    `json:"severity,omitempty"`
}

type ActionLog struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
	watch   func(Entry)
}

func NewActionLog() *ActionLog {
	return &ActionLog{now: time.Now}
}

// Watch registers fn to receive each entry after it is appended. It replaces any earlier watcher.
func (l *ActionLog) Watch(fn func(Entry)) {
	l.mu.Lock()
	l.watch = fn
	l.mu.Unlock()
}

func (l *ActionLog) Append(e Entry) {
	if l == nil {
		return
	}
	l.mu.Lock()
	if e.At.IsZero() {
		e.At = l.now().UTC()
	}
	l.entries = append(l.entries, e)
	if over := len(l.entries) - maxActionLogEntries; over > 0 {
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
	watch := l.watch
	l.mu.Unlock()
	if watch != nil {
		watch(e)
	}
}

func (l *ActionLog) Entries() []Entry {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry{}, l.entries...)
}

func (l *ActionLog) Issues() []Entry {
	out := []Entry{}
	for _, e := range l.Entries() {
		if e.Kind == EntryIssue {
			out = append(out, e)
		}
	}
	return out
}
