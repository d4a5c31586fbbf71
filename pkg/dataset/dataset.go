// Package dataset loads and saves tabular datasets. The encoding is
// chosen by file extension: delimited text (.csv), spreadsheet
// (.xlsx), or an SQLite database file (.sqlite, .db).
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yunwei-afs/datascreen/pkg/table"
)

var (
	// ErrNotFound means the input path does not exist.
	ErrNotFound = errors.New("file does not exist")

	// ErrUnsupportedFormat means the path's extension maps to no
	// known encoding.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Load reads a dataset from path. The first record (CSV), first sheet
// row (XLSX), or declared column order (SQLite) supplies the column
// names.
func Load(path string) (*table.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return loadCSV(path)
	case ".xlsx":
		return loadXLSX(path)
	case ".sqlite", ".db":
		return loadSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q (want .csv, .xlsx, .sqlite or .db)", ErrUnsupportedFormat, ext)
	}
}

// Save writes a dataset to path in the encoding named by its
// extension, creating missing parent directories first. Null cells
// become empty CSV/spreadsheet cells and SQL NULLs.
func Save(tbl *table.Table, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return saveCSV(tbl, path)
	case ".xlsx":
		return saveXLSX(tbl, path)
	case ".sqlite", ".db":
		return saveSQLite(tbl, path)
	default:
		return fmt.Errorf("%w: %q (want .csv, .xlsx, .sqlite or .db)", ErrUnsupportedFormat, ext)
	}
}

// cell converts a value to its written form; nil stands for a null
// cell so each encoding can pick its own empty representation.
func cell(v table.Value) any {
	switch v.Kind() {
	case table.KindNull:
		return nil
	case table.KindNumber:
		return v.Float()
	default:
		return v.String()
	}
}
