// Package export renders a locked scope baseline as a spreadsheet for the client pack.
package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yungbote/sitevisit-backend/internal/domain/sitevisit"
)

const (
	ScopeSheet   = "Scope"
	SummarySheet = "Summary"
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ErrNoBaseline = errors.New("no locked baseline to export")

var scopeHeaders = []string{"Room", "Room Type", "Item Type", "Description", "Quantity", "Unit", "Notes"}

var scopeWidths = []float64{22, 14, 18, 40, 10, 10, 30}

// BaselineWorkbook writes one row per baseline item. The visit supplies client and property details only;
// rooms and items always come from the baseline.
func BaselineWorkbook(b *sitevisit.ScopeBaseline, v *sitevisit.Visit) ([]byte, error) {
	if b == nil {
		return nil, ErrNoBaseline
	}
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ScopeSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for col, h := range scopeHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(ScopeSheet, cell, h); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(ScopeSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(ScopeSheet, name, name, scopeWidths[col]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	row := 2
	for _, room := range b.Rooms {
		for _, it := range room.Items {
			values := []any{room.RoomName, room.RoomType, it.ItemType, it.ItemDescription, it.Quantity, it.Unit, it.Notes}
			for col, val := range values {
				if err := setCell(f, ScopeSheet, col+1, row, val); err != nil {
					return nil, fmt.Errorf("row %d col %d: %w", row, col+1, err)
				}
			}
			row++
		}
	}

	if err := f.SetPanes(ScopeSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze panes: %w", err)
	}

	if err := writeSummary(f, b, v); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, b *sitevisit.ScopeBaseline, v *sitevisit.Visit) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	pairs := [][2]any{
		{"Visit", b.VisitID.String()},
		{"Locked At", b.LockedAt.UTC().Format("2006-01-02 15:04 MST")},
		{"Rooms", len(b.Rooms)},
		{"Items", b.ItemCount()},
	}
	if v != nil {
		pairs = append(pairs,
			[2]any{"Client", v.Client.Name},
			[2]any{"Address", v.Property.Address},
			[2]any{"Postcode", v.Property.Postcode},
		)
	}
	for i, p := range pairs {
		if err := setCell(f, SummarySheet, 1, i+1, p[0]); err != nil {
			return err
		}
		if err := setCell(f, SummarySheet, 2, i+1, p[1]); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 24)
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
