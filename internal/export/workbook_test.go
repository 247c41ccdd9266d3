package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

func TestBaselineWorkbookOneRowPerItem(t *testing.T) {
	visitID := uuid.New()
	roomID := uuid.New()
	v := sitevisit.NewVisit()
	v.Client.Name = "Jo Bloggs"
	v.Rooms = []sitevisit.Room{{
		ID:       roomID,
		RoomType: "kitchen",
		RoomName: "Kitchen",
		Items: []sitevisit.Item{
			{ID: uuid.New(), RoomID: roomID, ItemType: "socket", ItemDescription: "Double socket", Quantity: 3, Unit: "each"},
			{ID: uuid.New(), RoomID: roomID, ItemType: "light", ItemDescription: "Downlight", Quantity: 6, Unit: "each"},
		},
	}}
	b := sitevisit.NewScopeBaseline(visitID, v, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

	// edits after locking must not reach the export
	v.Rooms[0].Items = nil

	raw, err := BaselineWorkbook(b, v)
	if err != nil {
		t.Fatalf("BaselineWorkbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ScopeSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: want=3 got=%d", len(rows))
	}
	if rows[0][0] != "Room" || rows[1][3] != "Double socket" || rows[2][4] != "6" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	client, err := f.GetCellValue(SummarySheet, "B5")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if client != "Jo Bloggs" {
		t.Fatalf("client: want=%q got=%q", "Jo Bloggs", client)
	}
}

func TestBaselineWorkbookRequiresBaseline(t *testing.T) {
	if _, err := BaselineWorkbook(nil, nil); !errors.Is(err, ErrNoBaseline) {
		t.Fatalf("want=%v got=%v", ErrNoBaseline, err)
	}
}
