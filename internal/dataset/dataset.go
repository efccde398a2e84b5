package dataset

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotFound is returned when a record id is not part of the dataset
	ErrNotFound = errors.New("record not found")
	// ErrUnknownColumn is returned when a column is not part of the dataset
	ErrUnknownColumn = errors.New("unknown column")
)

// Record is one SPORE: a unique id and its indicator values keyed by column
type Record struct {
	ID     string             `json:"id"`
	Values map[string]float64 `json:"values"`
}

// Value returns the value of column for this record
func (r Record) Value(column string) (float64, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Bounds is the observed value range of a column over all records
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Dataset is the read-only in-memory table of SPORES and their units.
// It is never mutated after construction and is safe for concurrent use.
type Dataset struct {
	columns []string
	records []Record
	index   map[string]int
	units   map[string]string
	bounds  map[string]Bounds
}

// New builds a Dataset from records in file order. Record ids must be
// unique and every record must carry every column.
func New(columns []string, records []Record, units map[string]string) (*Dataset, error) {
	d := &Dataset{
		columns: append([]string(nil), columns...),
		records: records,
		index:   make(map[string]int, len(records)),
		units:   make(map[string]string, len(units)),
		bounds:  make(map[string]Bounds, len(columns)),
	}
	for k, v := range units {
		d.units[k] = v
	}

	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d has an empty id", i)
		}
		if _, dup := d.index[r.ID]; dup {
			return nil, fmt.Errorf("duplicate record id %q", r.ID)
		}
		for _, col := range columns {
			if _, ok := r.Values[col]; !ok {
				return nil, fmt.Errorf("record %q has no value for column %q", r.ID, col)
			}
		}
		d.index[r.ID] = i
	}

	for _, col := range columns {
		b := Bounds{Min: math.NaN(), Max: math.NaN()}
		for _, r := range records {
			v := r.Values[col]
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(b.Min) || v < b.Min {
				b.Min = v
			}
			if math.IsNaN(b.Max) || v > b.Max {
				b.Max = v
			}
		}
		d.bounds[col] = b
	}

	return d, nil
}

// Columns returns the column names in file order
func (d *Dataset) Columns() []string {
	return d.columns
}

// HasColumn reports whether column is part of the dataset
func (d *Dataset) HasColumn(column string) bool {
	_, ok := d.bounds[column]
	return ok
}

// Bounds returns the min and max of column over all records, ignoring
// missing values
func (d *Dataset) Bounds(column string) (Bounds, error) {
	b, ok := d.bounds[column]
	if !ok {
		return Bounds{}, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	return b, nil
}

// Get returns the record with the given id
func (d *Dataset) Get(id string) (Record, error) {
	i, ok := d.index[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d.records[i], nil
}

// Has reports whether id is a known record id
func (d *Dataset) Has(id string) bool {
	_, ok := d.index[id]
	return ok
}

// All returns every record in file order. Callers must not modify it.
func (d *Dataset) All() []Record {
	return d.records
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Unit returns the display unit of column, or "" when none is known
func (d *Dataset) Unit(column string) string {
	return d.units[column]
}
