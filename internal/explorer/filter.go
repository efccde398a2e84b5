package explorer

import (
	"errors"
	"fmt"
	"math"

	"github.com/kartoza/spores-explorer/internal/config"
	"github.com/kartoza/spores-explorer/internal/dataset"
)

// ErrNoValues is returned when an indicator column has no value in any record
var ErrNoValues = errors.New("indicator has no values")

// Range is an inclusive [lo, hi] constraint on one indicator
type Range [2]float64

// Lo returns the lower bound
func (r Range) Lo() float64 { return r[0] }

// Hi returns the upper bound
func (r Range) Hi() float64 { return r[1] }

// Contains reports whether lo <= v <= hi. Missing values (NaN) never match.
func (r Range) Contains(v float64) bool {
	return v >= r[0] && v <= r[1]
}

// Clamp orders the bounds and restricts them to b
func (r Range) Clamp(b dataset.Bounds) Range {
	lo, hi := r[0], r[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < b.Min {
		lo = b.Min
	}
	if hi > b.Max {
		hi = b.Max
	}
	if lo > b.Max {
		lo = b.Max
	}
	if hi < b.Min {
		hi = b.Min
	}
	return Range{lo, hi}
}

// Constraints maps a dataset column to its range. Columns without an
// entry are unconstrained.
type Constraints map[string]Range

// Engine filters the dataset and describes the resulting strip chart. It
// only reads the dataset and is safe to share between sessions.
type Engine struct {
	data       *dataset.Dataset
	indicators []config.Indicator
}

// NewEngine checks that every indicator column exists in data and has at
// least one value, so that every slider gets finite bounds
func NewEngine(data *dataset.Dataset, indicators []config.Indicator) (*Engine, error) {
	for _, ind := range indicators {
		b, err := data.Bounds(ind.Column)
		if err != nil {
			return nil, fmt.Errorf("indicator %q: %w", ind.Key, err)
		}
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) {
			return nil, fmt.Errorf("indicator %q: %w: %s", ind.Key, ErrNoValues, ind.Column)
		}
	}
	return &Engine{data: data, indicators: indicators}, nil
}

// Dataset returns the dataset the engine reads
func (e *Engine) Dataset() *dataset.Dataset {
	return e.data
}

// Indicators returns the indicators in declaration order
func (e *Engine) Indicators() []config.Indicator {
	return e.indicators
}

// Bounds returns the full value range of an indicator
func (e *Engine) Bounds(ind config.Indicator) dataset.Bounds {
	b, _ := e.data.Bounds(ind.Column)
	return b
}

// Defaults returns the constraints that let every record through: each
// indicator's (min, max)
func (e *Engine) Defaults() Constraints {
	c := make(Constraints, len(e.indicators))
	for _, ind := range e.indicators {
		b := e.Bounds(ind)
		c[ind.Column] = Range{b.Min, b.Max}
	}
	return c
}

// Filter returns, in dataset order, the records whose value for every
// constrained indicator lies within its range
func (e *Engine) Filter(c Constraints) []dataset.Record {
	var out []dataset.Record
	for _, r := range e.data.All() {
		if e.matches(r, c) {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) matches(r dataset.Record, c Constraints) bool {
	for _, ind := range e.indicators {
		rng, ok := c[ind.Column]
		if !ok {
			continue
		}
		if !rng.Contains(r.Values[ind.Column]) {
			return false
		}
	}
	return true
}

// Result is the outcome of one filter run
type Result struct {
	Records []dataset.Record
	Chart   Chart
}

// Run filters with c and builds the chart of the surviving records
func (e *Engine) Run(c Constraints) Result {
	records := e.Filter(c)
	return Result{Records: records, Chart: e.Chart(records)}
}
