package dataset

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/yunwei-afs/datascreen/pkg/table"
)

// datasetTable is the table name used when a dataset is written to an
// SQLite file; loading falls back to the first user table so files
// produced elsewhere still load.
const datasetTable = "dataset"

func loadSQLite(path string) (*table.Table, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	name, err := firstUserTable(db)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT * FROM " + quoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	tbl := table.New(columns)
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(table.Row, len(columns))
		for i, col := range columns {
			row[col] = sqlValue(values[i])
		}
		tbl.AppendRow(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tbl, nil
}

func saveSQLite(tbl *table.Table, path string) error {
	// overwrite semantics, matching the other encodings
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	quoted := make([]string, len(tbl.Columns))
	for i, col := range tbl.Columns {
		quoted[i] = quoteIdent(col)
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(datasetTable), strings.Join(quoted, ", "))
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(tbl.Columns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(datasetTable), strings.Join(quoted, ", "), placeholders)

	args := make([]any, len(tbl.Columns))
	for _, row := range tbl.Rows {
		for i, col := range tbl.Columns {
			args[i] = cell(row[col])
		}
		if _, err := db.Exec(insert, args...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return db.Close()
}

func firstUserTable(db *sql.DB) (string, error) {
	var name string
	err := db.QueryRow(
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name = ? DESC, name LIMIT 1`, datasetTable,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("database holds no tables")
	}
	if err != nil {
		return "", fmt.Errorf("find dataset table: %w", err)
	}
	return name, nil
}

func sqlValue(x any) table.Value {
	switch v := x.(type) {
	case nil:
		return table.Null()
	case int64:
		return table.Number(float64(v))
	case float64:
		return table.Number(v)
	case []byte:
		return table.Parse(string(v))
	case string:
		return table.Parse(v)
	case bool:
		return table.Bool(v)
	}
	return table.Text(fmt.Sprint(x))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
