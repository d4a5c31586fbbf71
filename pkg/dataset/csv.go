package dataset

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/yunwei-afs/datascreen/pkg/table"
)

func loadCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return table.New(nil), nil
	}

	tbl := table.New(records[0])
	for _, record := range records[1:] {
		row := make(table.Row, len(tbl.Columns))
		for i, col := range tbl.Columns {
			if i < len(record) {
				row[col] = table.Parse(record[i])
			} else {
				row[col] = table.Null()
			}
		}
		tbl.AppendRow(row)
	}
	return tbl, nil
}

func saveCSV(tbl *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tbl.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(tbl.Columns))
	for _, row := range tbl.Rows {
		for i, col := range tbl.Columns {
			record[i] = row[col].String()
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}
