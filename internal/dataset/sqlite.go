package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite sources hold the primary table in "spores" (first column is the
// record id) and the units lookup in "units" (column, unit).
const (
	sporesTable = "spores"
	unitsTable  = "units"
)

func openReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func hasTable(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?", name,
	).Scan(&count)
	return count > 0, err
}

func readPrimarySQLite(ctx context.Context, path string) (*table, error) {
	db, err := openReadOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ok, err := hasTable(ctx, db, sporesTable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("database has no %q table", sporesTable)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+sporesTable+" ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("expected an id column and at least one value column, got %d columns", len(header))
	}

	t := &table{columns: header[1:]}
	raw := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		id, err := sqlString(raw[0])
		if err != nil {
			return nil, fmt.Errorf("row %d id: %w", len(t.records)+1, err)
		}
		rec := Record{ID: id, Values: make(map[string]float64, len(t.columns))}
		for i, col := range t.columns {
			v, err := sqlFloat(raw[i+1])
			if err != nil {
				return nil, fmt.Errorf("record %q, column %q: %w", id, col, err)
			}
			rec.Values[col] = v
		}
		t.records = append(t.records, rec)
	}
	return t, rows.Err()
}

func readUnitsSQLite(ctx context.Context, path string) (map[string]string, error) {
	db, err := openReadOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ok, err := hasTable(ctx, db, unitsTable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("database has no %q table", unitsTable)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+unitsTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) < 2 {
		return nil, fmt.Errorf("%q table needs a key and a unit column", unitsTable)
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	units := make(map[string]string)
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		key, err := sqlString(raw[0])
		if err != nil {
			continue
		}
		unit, _ := sqlString(raw[1])
		units[key] = unit
	}
	return units, rows.Err()
}

func sqlString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case nil:
		return "", fmt.Errorf("null value")
	}
	return "", fmt.Errorf("unsupported type %T", v)
}

func sqlFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case nil:
		return math.NaN(), nil
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}
