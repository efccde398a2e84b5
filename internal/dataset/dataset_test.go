package dataset

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSporesCSV = `id,Storage discharge capacity,Curtailment
S001,0.2,0.10
S002,0.5,0.40
S003,0.9,0.25
`

const testUnitsCSV = `column,unit
Storage discharge capacity,TW
Curtailment,%
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// createTestSQLite creates a SQLite source with the same content as the CSV fixtures
func createTestSQLite(t *testing.T, dir string, withUnits bool) string {
	t.Helper()

	dbPath := filepath.Join(dir, "spores.sqlite")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	statements := []string{
		`CREATE TABLE spores (id TEXT, "Storage discharge capacity" REAL, "Curtailment" REAL)`,
		`INSERT INTO spores VALUES ('S001', 0.2, 0.10)`,
		`INSERT INTO spores VALUES ('S002', 0.5, 0.40)`,
		`INSERT INTO spores VALUES ('S003', 0.9, 0.25)`,
	}
	if withUnits {
		statements = append(statements,
			`CREATE TABLE units (column_name TEXT, unit TEXT)`,
			`INSERT INTO units VALUES ('Storage discharge capacity', 'TW')`,
			`INSERT INTO units VALUES ('Curtailment', '%')`,
		)
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to execute: %s: %v", stmt, err)
		}
	}
	return dbPath
}

func assertFixture(t *testing.T, d *Dataset) {
	t.Helper()

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, []string{"Storage discharge capacity", "Curtailment"}, d.Columns())

	b, err := d.Bounds("Storage discharge capacity")
	require.NoError(t, err)
	assert.Equal(t, Bounds{Min: 0.2, Max: 0.9}, b)

	b, err = d.Bounds("Curtailment")
	require.NoError(t, err)
	assert.Equal(t, Bounds{Min: 0.10, Max: 0.40}, b)

	r, err := d.Get("S002")
	require.NoError(t, err)
	v, ok := r.Value("Curtailment")
	assert.True(t, ok)
	assert.Equal(t, 0.40, v)

	ids := make([]string, 0, d.Len())
	for _, r := range d.All() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"S001", "S002", "S003"}, ids, "file order is kept")
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	spores := writeFile(t, dir, "spores_data.csv", testSporesCSV)
	units := writeFile(t, dir, "units.csv", testUnitsCSV)

	d, err := Load(context.Background(), spores, units)
	require.NoError(t, err)

	assertFixture(t, d)
	assert.Equal(t, "TW", d.Unit("Storage discharge capacity"))
	assert.Equal(t, "%", d.Unit("Curtailment"))
}

func TestLoadSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := createTestSQLite(t, dir, true)

	d, err := Load(context.Background(), dbPath, dbPath)
	require.NoError(t, err)

	assertFixture(t, d)
	assert.Equal(t, "TW", d.Unit("Storage discharge capacity"))
}

func TestLoadMissingUnitsIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	spores := writeFile(t, dir, "spores_data.csv", testSporesCSV)

	d, err := Load(context.Background(), spores, filepath.Join(dir, "units.csv"))
	require.NoError(t, err)
	assert.Equal(t, "", d.Unit("Curtailment"))

	dbPath := createTestSQLite(t, dir, false)
	d, err = Load(context.Background(), dbPath, dbPath)
	require.NoError(t, err)
	assert.Equal(t, "", d.Unit("Curtailment"))
}

func TestLoadMissingPrimaryIsFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(context.Background(), filepath.Join(dir, "nope.csv"), "")
	assert.Error(t, err)
}

func TestLoadMalformedPrimary(t *testing.T) {
	dir := t.TempDir()

	bad := writeFile(t, dir, "bad.csv", "id,Curtailment\nS001,abc\n")
	_, err := Load(context.Background(), bad, "")
	assert.ErrorContains(t, err, "Curtailment")

	dup := writeFile(t, dir, "dup.csv", "id,Curtailment\nS001,0.1\nS001,0.2\n")
	_, err = Load(context.Background(), dup, "")
	assert.ErrorContains(t, err, "duplicate record id")

	short := writeFile(t, dir, "short.csv", "id\nS001\n")
	_, err = Load(context.Background(), short, "")
	assert.Error(t, err)
}

func TestGetUnknown(t *testing.T) {
	d, err := New([]string{"a"}, []Record{{ID: "x", Values: map[string]float64{"a": 1}}}, nil)
	require.NoError(t, err)

	_, err = d.Get("y")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, d.Has("y"))

	_, err = d.Bounds("b")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestBoundsSkipMissingValues(t *testing.T) {
	d, err := New([]string{"a"}, []Record{
		{ID: "x", Values: map[string]float64{"a": math.NaN()}},
		{ID: "y", Values: map[string]float64{"a": 0.3}},
		{ID: "z", Values: map[string]float64{"a": 0.7}},
	}, nil)
	require.NoError(t, err)

	b, err := d.Bounds("a")
	require.NoError(t, err)
	assert.Equal(t, Bounds{Min: 0.3, Max: 0.7}, b)
}

func TestNewRejectsMissingColumn(t *testing.T) {
	_, err := New([]string{"a", "b"}, []Record{{ID: "x", Values: map[string]float64{"a": 1}}}, nil)
	assert.ErrorContains(t, err, "no value for column")
}
