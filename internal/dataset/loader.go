package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// table is the raw content of a primary table before validation
type table struct {
	columns []string
	records []Record
}

// Load reads the primary table at sporesPath and the units lookup at
// unitsPath concurrently. The format of each file is chosen by its
// extension: .csv, or .sqlite/.sqlite3/.db for SQLite databases.
//
// A primary table that cannot be read is an error. A missing or unreadable
// units table only logs a warning and leaves every unit blank.
func Load(ctx context.Context, sporesPath, unitsPath string) (*Dataset, error) {
	var (
		primary *table
		units   map[string]string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := readPrimary(ctx, sporesPath)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", sporesPath, err)
		}
		primary = t
		return nil
	})
	g.Go(func() error {
		u, err := readUnits(ctx, unitsPath)
		if err != nil {
			log.Printf("Warning: units not available from %s: %v", unitsPath, err)
			u = map[string]string{}
		}
		units = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(primary.columns, primary.records, units)
}

func isSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sqlite", ".sqlite3", ".db":
		return true
	}
	return false
}

func readPrimary(ctx context.Context, path string) (*table, error) {
	if isSQLite(path) {
		return readPrimarySQLite(ctx, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPrimaryCSV(f)
}

func readUnits(ctx context.Context, path string) (map[string]string, error) {
	if path == "" {
		return nil, errors.New("no units file configured")
	}
	if isSQLite(path) {
		return readUnitsSQLite(ctx, path)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file does not exist")
		}
		return nil, err
	}
	defer f.Close()
	return readUnitsCSV(f)
}

// readPrimaryCSV parses a header row followed by one row per record; the
// first column is the record id and every other column a float
func readPrimaryCSV(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("expected an id column and at least one value column, got %d columns", len(header))
	}

	t := &table{columns: header[1:]}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := Record{ID: row[0], Values: make(map[string]float64, len(t.columns))}
		for i, col := range t.columns {
			v, err := parseFloat(row[i+1])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, col, err)
			}
			rec.Values[col] = v
		}
		t.records = append(t.records, rec)
	}
	return t, nil
}

// readUnitsCSV parses a header row followed by rows of (column, unit)
func readUnitsCSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	units := make(map[string]string)
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if len(row) > 1 {
			units[row[0]] = row[1]
		} else {
			units[row[0]] = ""
		}
	}
	return units, nil
}

// parseFloat accepts an empty cell as a missing value
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
