package rows

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// RosterSheet is the sheet name of the exported roster.
const RosterSheet = "Participation"

var rosterHeader = []any{"Student ID", "Classroom", "Complete"}

var rosterWidths = []struct {
	col   string
	width float64
}{{"A", 18}, {"B", 28}, {"C", 12}}

// WriteRosterXLSX writes rows as a single-sheet workbook to w.
func WriteRosterXLSX(w io.Writer, title string, rows []ParticipationRow) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(RosterSheet)
	if err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	for _, cw := range rosterWidths {
		if err := f.SetColWidth(RosterSheet, cw.col, cw.col, cw.width); err != nil {
			return fmt.Errorf("column %s width: %w", cw.col, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetCellValue(RosterSheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(RosterSheet, "A1", "C1"); err != nil {
		return err
	}
	if err := f.SetSheetRow(RosterSheet, "A2", &rosterHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(RosterSheet, "A1", "C2", headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		values := []any{r.StudentID, r.ClassroomName, r.Complete}
		if err := f.SetSheetRow(RosterSheet, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
