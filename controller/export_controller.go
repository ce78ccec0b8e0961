package controller

import (
	"fmt"
	"io"
	"time"

	"github.com/billingcat/leadboard/leadtable"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const exportSheet = "Leads"

// WriteLeadsXLSX writes leads as a spreadsheet with the same relationship
// columns the table shows for role.
func WriteLeadsXLSX(w io.Writer, leads []leadtable.Lead, role leadtable.ViewerRole, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("cannot rename sheet: %w", err)
	}

	columns := leadtable.Columns(role)
	header := []any{"Company", "Industry", "Status", "Stage", "Created", "New"}
	for _, h := range columns {
		header = append(header, h.Title)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("cannot write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("cannot create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("cannot style header: %w", err)
	}

	for i, l := range leads {
		row := leadtable.Present(l, role, now)
		isNew := ""
		if row.IsNew {
			isNew = "yes"
		}
		values := []any{l.CompanyName, l.Industry, string(l.Status), l.Stage, l.CreatedAt, isNew}
		for _, cell := range row.Cells {
			values = append(values, cell.Value)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, axis, &values); err != nil {
			return fmt.Errorf("cannot write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("cannot freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write spreadsheet: %w", err)
	}
	return nil
}
