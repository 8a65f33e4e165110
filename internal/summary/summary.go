package summary

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/spendview/internal/model"
)

// TotalKey is the first row of every summary table.
const TotalKey = "Total Spend"

var hundred = decimal.NewFromInt(100)

// Slice is one wedge of the spend breakdown chart.
type Slice struct {
	Label  string
	Name   string
	Date   time.Time
	Source string
	Value  decimal.Decimal // always non-negative
}

// Row is one entry of the summary table.
type Row struct {
	Key   string
	Value decimal.Decimal
}

// Summary is the aggregate spend over a date range.
type Summary struct {
	Range      model.DateRange
	Slices     []Slice
	GrandTotal decimal.Decimal
	Table      []Row
}

// Build filters credits to rng and aggregates them. File totals are appended
// to the table after the grand total, unfiltered and in the order given.
func Build(credits []model.Transaction, rng model.DateRange, files []model.FileTotal) Summary {
	s := Summary{Range: rng, GrandTotal: decimal.Zero}

	for _, c := range credits {
		if !rng.Contains(c.Date) {
			continue
		}
		v := c.Spend()
		s.Slices = append(s.Slices, Slice{
			Label:  c.Label(),
			Name:   c.Name,
			Date:   c.Date,
			Source: c.Source,
			Value:  v,
		})
		s.GrandTotal = s.GrandTotal.Add(v)
	}

	s.Table = make([]Row, 0, len(files)+1)
	s.Table = append(s.Table, Row{Key: TotalKey, Value: s.GrandTotal})
	for _, f := range files {
		s.Table = append(s.Table, Row{Key: f.Source, Value: f.Total})
	}
	return s
}

// Labels returns the chart labels in slice order.
func (s Summary) Labels() []string {
	labels := make([]string, len(s.Slices))
	for i, sl := range s.Slices {
		labels[i] = sl.Label
	}
	return labels
}

// Values returns the chart values in slice order.
func (s Summary) Values() []decimal.Decimal {
	values := make([]decimal.Decimal, len(s.Slices))
	for i, sl := range s.Slices {
		values[i] = sl.Value
	}
	return values
}

// Share returns v as a percentage of the grand total, rounded to one place.
// A zero grand total yields zero.
func (s Summary) Share(v decimal.Decimal) decimal.Decimal {
	if s.GrandTotal.IsZero() {
		return decimal.Zero
	}
	return v.Div(s.GrandTotal).Mul(hundred).Round(1)
}

// Empty reports whether no credits fell inside the range.
func (s Summary) Empty() bool { return len(s.Slices) == 0 }

type jsonSlice struct {
	Label  string `json:"label"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Source string `json:"source"`
	Value  string `json:"value"`
	Share  string `json:"share"`
}

type jsonRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type jsonSummary struct {
	Start        string      `json:"start"`
	End          string      `json:"end"`
	Labels       []string    `json:"labels"`
	Values       []string    `json:"values"`
	Slices       []jsonSlice `json:"slices"`
	GrandTotal   string      `json:"grand_total"`
	SummaryTable []jsonRow   `json:"summary_table"`
}

// MarshalJSON renders amounts as fixed two-place strings and keeps the table order.
func (s Summary) MarshalJSON() ([]byte, error) {
	out := jsonSummary{
		Start:        s.Range.Start.Format(time.DateOnly),
		End:          s.Range.End.Format(time.DateOnly),
		Labels:       s.Labels(),
		Values:       make([]string, len(s.Slices)),
		Slices:       make([]jsonSlice, len(s.Slices)),
		GrandTotal:   s.GrandTotal.StringFixed(2),
		SummaryTable: make([]jsonRow, len(s.Table)),
	}
	for i, sl := range s.Slices {
		out.Values[i] = sl.Value.StringFixed(2)
		out.Slices[i] = jsonSlice{
			Label:  sl.Label,
			Name:   sl.Name,
			Date:   sl.Date.Format(time.DateOnly),
			Source: sl.Source,
			Value:  sl.Value.StringFixed(2),
			Share:  s.Share(sl.Value).StringFixed(1),
		}
	}
	for i, r := range s.Table {
		out.SummaryTable[i] = jsonRow{Key: r.Key, Value: r.Value.StringFixed(2)}
	}
	return json.Marshal(out)
}
