package upload

import (
	"encoding/json"
	"time"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/exceldate"
)

// ParsedRow is a validated row: field name to coerced value. Values are
// string, int64, float64, decimal.Decimal, time.Time or nil.
type ParsedRow struct {
	Line   int
	Values map[string]any
}

// DateRange is the inclusive span of dates seen in accepted rows.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// Include widens the range to cover t and returns the updated range. A nil
// receiver starts a new range.
func (r *DateRange) Include(t time.Time) *DateRange {
	if r == nil {
		return &DateRange{Min: t, Max: t}
	}
	if t.Before(r.Min) {
		r.Min = t
	}
	if t.After(r.Max) {
		r.Max = t
	}
	return r
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*string{
		"minDate": formatDate(r.Min),
		"maxDate": formatDate(r.Max),
	})
}

func formatDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := exceldate.Format(t)
	return &s
}

type RejectReason string

const (
	ReasonUnparseableCell RejectReason = "unparseable_cell"
	ReasonMalformedRow    RejectReason = "malformed_row"
)

// Rejection explains why a single row was not inserted.
type Rejection struct {
	Line   int          `json:"line"`
	Field  string       `json:"field"`
	Reason RejectReason `json:"reason"`
	Value  string       `json:"value,omitempty"`
}

// Result is the aggregate outcome of one ingestion run.
type Result struct {
	RowsInserted int         `json:"rowsInserted"`
	RowsRejected int         `json:"rowsRejected"`
	DateRange    *DateRange  `json:"dateRange,omitempty"`
	Rejections   []Rejection `json:"rejections,omitempty"`
	Batches      int         `json:"batches"`
}
