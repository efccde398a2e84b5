package dashboard

import (
	"fmt"
	"math"
	"path"

	"github.com/kartoza/spores-explorer/internal/dataset"
)

// ImageDir is the asset directory holding one image per record id
const ImageDir = "assets/img"

// EmptyImage is shown when no record is selected
const EmptyImage = ImageDir + "/empty.jpg"

// ImagePath maps a selected id to its overview image. No selection and
// ids unknown to the dataset both resolve to the placeholder.
func ImagePath(data *dataset.Dataset, id string) string {
	if id == "" || !data.Has(id) {
		return EmptyImage
	}
	return path.Join(ImageDir, id+".jpg")
}

// TableRow is one indicator of the summary table
type TableRow struct {
	Indicator string   `json:"indicator"`
	Value     *float64 `json:"value"`
	Formatted string   `json:"formatted"`
	Unit      string   `json:"unit"`
}

// Table is the two-column (value, unit) summary of a record
type Table struct {
	RecordID string     `json:"record_id"`
	Columns  []string   `json:"columns"`
	Rows     []TableRow `json:"rows"`
}

// SummaryTable renders every column of the selected record with its unit,
// in file order. It returns nil when nothing (or an unknown id) is
// selected.
func SummaryTable(data *dataset.Dataset, id string) *Table {
	if id == "" {
		return nil
	}
	rec, err := data.Get(id)
	if err != nil {
		return nil
	}

	t := &Table{
		RecordID: id,
		Columns:  []string{"Indicator", "Unit"},
		Rows:     make([]TableRow, 0, len(data.Columns())),
	}
	for _, col := range data.Columns() {
		row := TableRow{Indicator: col, Unit: data.Unit(col), Formatted: "NaN"}
		if v := rec.Values[col]; !math.IsNaN(v) {
			row.Value = &v
			row.Formatted = fmt.Sprintf("%.2f", v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
