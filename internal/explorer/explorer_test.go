package explorer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/spores-explorer/internal/config"
	"github.com/kartoza/spores-explorer/internal/dataset"
)

var testIndicators = []config.Indicator{
	{Key: "storage", Label: "Storage capacity", Column: "Storage discharge capacity"},
	{Key: "heat", Label: "Heat electrification", Column: "Heat electrification"},
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	cols := []string{"Storage discharge capacity", "Heat electrification"}
	rows := []struct {
		id            string
		storage, heat float64
	}{
		{"S001", 0.2, 0.7},
		{"S002", 0.5, 0.1},
		{"S003", 0.9, 0.4},
		{"S004", 0.5, math.NaN()},
	}
	var records []dataset.Record
	for _, r := range rows {
		records = append(records, dataset.Record{ID: r.id, Values: map[string]float64{
			cols[0]: r.storage,
			cols[1]: r.heat,
		}})
	}
	d, err := dataset.New(cols, records, nil)
	require.NoError(t, err)

	e, err := NewEngine(d, testIndicators)
	require.NoError(t, err)
	return e
}

func ids(records []dataset.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestNewEngineUnknownColumn(t *testing.T) {
	d, err := dataset.New([]string{"a"}, []dataset.Record{{ID: "x", Values: map[string]float64{"a": 1}}}, nil)
	require.NoError(t, err)

	_, err = NewEngine(d, []config.Indicator{{Key: "b", Column: "b"}})
	assert.ErrorIs(t, err, dataset.ErrUnknownColumn)
}

func TestNewEngineRejectsIndicatorWithoutValues(t *testing.T) {
	empty, err := dataset.New([]string{"a"}, nil, nil)
	require.NoError(t, err)
	_, err = NewEngine(empty, []config.Indicator{{Key: "a", Column: "a"}})
	assert.ErrorIs(t, err, ErrNoValues)

	blank, err := dataset.New([]string{"a", "b"}, []dataset.Record{
		{ID: "x", Values: map[string]float64{"a": 0.5, "b": math.NaN()}},
		{ID: "y", Values: map[string]float64{"a": 0.7, "b": math.NaN()}},
	}, nil)
	require.NoError(t, err)
	_, err = NewEngine(blank, []config.Indicator{{Key: "a", Column: "a"}, {Key: "b", Column: "b"}})
	assert.ErrorIs(t, err, ErrNoValues)
	assert.Contains(t, err.Error(), `indicator "b"`)

	// a blank column that no indicator reads is fine
	_, err = NewEngine(blank, []config.Indicator{{Key: "a", Column: "a"}})
	assert.NoError(t, err)
}

func TestDefaultsAreBounds(t *testing.T) {
	e := newTestEngine(t)

	c := e.Defaults()
	assert.Equal(t, Range{0.2, 0.9}, c["Storage discharge capacity"])
	assert.Equal(t, Range{0.1, 0.7}, c["Heat electrification"])

	// the record with a missing value never passes a constrained indicator
	assert.Equal(t, []string{"S001", "S002", "S003"}, ids(e.Filter(c)))
}

func TestFilterInclusiveBounds(t *testing.T) {
	e := newTestEngine(t)

	got := e.Filter(Constraints{"Storage discharge capacity": {0.5, 0.9}})
	assert.Equal(t, []string{"S002", "S003", "S004"}, ids(got))

	got = e.Filter(Constraints{
		"Storage discharge capacity": {0.5, 0.9},
		"Heat electrification":       {0.4, 0.4},
	})
	assert.Equal(t, []string{"S003"}, ids(got))
}

func TestFilterMatchesDefinition(t *testing.T) {
	e := newTestEngine(t)
	steps := []float64{0, 0.1, 0.2, 0.4, 0.5, 0.7, 0.9, 1}

	for _, slo := range steps {
		for _, shi := range steps {
			for _, hlo := range steps {
				c := Constraints{
					"Storage discharge capacity": {slo, shi},
					"Heat electrification":       {hlo, 1},
				}
				got := map[string]bool{}
				for _, r := range e.Filter(c) {
					got[r.ID] = true
				}
				for _, r := range e.Dataset().All() {
					want := true
					for col, rng := range c {
						v := r.Values[col]
						if !(rng.Lo() <= v && v <= rng.Hi()) {
							want = false
						}
					}
					assert.Equal(t, want, got[r.ID], "record %s with %v", r.ID, c)
				}
			}
		}
	}
}

func TestChart(t *testing.T) {
	e := newTestEngine(t)

	res := e.Run(Constraints{"Storage discharge capacity": {0.3, 0.9}, "Heat electrification": {0, 1}})
	require.Equal(t, []string{"S002", "S003"}, ids(res.Records))

	chart := res.Chart
	assert.Equal(t, "strip", chart.Type)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, 2, chart.PointCount())
	assert.Len(t, chart.Marks(), 4, "one mark per record and indicator")

	first := chart.Series[0].Marks[0]
	assert.Equal(t, "Storage discharge capacity", first.Indicator)
	assert.Equal(t, 0.5, first.Value)
	assert.Equal(t, "S002", first.RecordID)
	assert.Equal(t, []any{"S002"}, first.CustomData)
	assert.Equal(t, "S002", first.HoverName)
	assert.Equal(t, Palette[0], first.Color)
	assert.Equal(t, Palette[1], chart.Series[1].Marks[0].Color)

	assert.Equal(t, 350, chart.Layout.Height)
	assert.False(t, chart.Layout.ShowLegend)
}

func TestChartEmpty(t *testing.T) {
	e := newTestEngine(t)

	res := e.Run(Constraints{"Storage discharge capacity": {0.95, 1}})
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Chart.Marks())
	assert.Equal(t, 0, res.Chart.PointCount())
	assert.Equal(t, 0, Chart{}.PointCount())
}

func TestChartDeterministic(t *testing.T) {
	e := newTestEngine(t)
	c := e.Defaults()
	assert.Equal(t, e.Run(c).Chart, e.Run(c).Chart)
}

func TestPaletteCycles(t *testing.T) {
	cols := make([]string, 10)
	inds := make([]config.Indicator, 10)
	values := map[string]float64{}
	for i := range cols {
		cols[i] = string(rune('a' + i))
		inds[i] = config.Indicator{Key: cols[i], Column: cols[i]}
		values[cols[i]] = 0.5
	}
	d, err := dataset.New(cols, []dataset.Record{{ID: "x", Values: values}}, nil)
	require.NoError(t, err)
	e, err := NewEngine(d, inds)
	require.NoError(t, err)

	chart := e.Chart(d.All())
	assert.Equal(t, Palette[0], chart.Series[9].Color)
}

func TestRangeClamp(t *testing.T) {
	b := dataset.Bounds{Min: 0.2, Max: 0.9}

	assert.Equal(t, Range{0.2, 0.9}, Range{0, 1}.Clamp(b))
	assert.Equal(t, Range{0.3, 0.5}, Range{0.5, 0.3}.Clamp(b))
	assert.Equal(t, Range{0.9, 0.9}, Range{0.95, 1}.Clamp(b))
	assert.Equal(t, Range{0.2, 0.2}, Range{0, 0.1}.Clamp(b))
}
