package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yunwei-afs/datascreen/pkg/table"
)

func loadXLSX(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return table.New(nil), nil
	}

	tbl := table.New(rows[0])
	for _, cells := range rows[1:] {
		row := make(table.Row, len(tbl.Columns))
		for i, col := range tbl.Columns {
			// excelize trims trailing empty cells
			if i < len(cells) {
				row[col] = table.Parse(cells[i])
			} else {
				row[col] = table.Null()
			}
		}
		tbl.AppendRow(row)
	}
	return tbl, nil
}

func saveXLSX(tbl *table.Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]any, len(tbl.Columns))
	for i, col := range tbl.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write sheet header: %w", err)
	}

	cells := make([]any, len(tbl.Columns))
	for r, row := range tbl.Rows {
		for i, col := range tbl.Columns {
			cells[i] = cell(row[col])
		}
		ref, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("cell reference: %w", err)
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			return fmt.Errorf("write sheet row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save spreadsheet: %w", err)
	}
	return nil
}
