package services

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/exceldate"
)

type fieldColumn struct {
	field mapping.Field
	index int
}

// rowParser turns raw cells into ParsedRows for one mapping and header.
type rowParser struct {
	columns   []fieldColumn
	dateField string
}

func newRowParser(m *mapping.Mapping, cols mapping.Columns) *rowParser {
	p := &rowParser{dateField: m.DateField}
	for _, f := range m.Fields {
		p.columns = append(p.columns, fieldColumn{field: f, index: cols.Index(f.Name)})
	}
	return p
}

// parse coerces every mapped cell. The first failing required field rejects
// the row; optional fields that cannot be coerced are stored as NULL.
func (p *rowParser) parse(line int, cells []exceldate.Cell) (upload.ParsedRow, *upload.Rejection) {
	row := upload.ParsedRow{Line: line, Values: make(map[string]any, len(p.columns))}
	for _, col := range p.columns {
		cell := exceldate.Empty()
		if col.index >= 0 && col.index < len(cells) {
			cell = cells[col.index]
		}

		if cell.IsBlank() {
			if col.field.Required {
				return upload.ParsedRow{}, &upload.Rejection{
					Line:   line,
					Field:  col.field.Name,
					Reason: upload.ReasonMalformedRow,
				}
			}
			row.Values[col.field.Name] = nil
			continue
		}

		v, ok := coerce(col.field.Kind, cell)
		if !ok {
			if col.field.Required {
				return upload.ParsedRow{}, &upload.Rejection{
					Line:   line,
					Field:  col.field.Name,
					Reason: upload.ReasonUnparseableCell,
					Value:  truncate(cell.String(), 64),
				}
			}
			v = nil
		}
		row.Values[col.field.Name] = v
	}
	return row, nil
}

// date returns the value of the mapping's primary date field, if any.
func (p *rowParser) date(row upload.ParsedRow) (time.Time, bool) {
	if p.dateField == "" {
		return time.Time{}, false
	}
	t, ok := row.Values[p.dateField].(time.Time)
	return t, ok
}

func coerce(kind mapping.FieldKind, c exceldate.Cell) (any, bool) {
	switch kind {
	case mapping.KindDate:
		return exceldate.Normalize(c)
	case mapping.KindInteger:
		return toInteger(c)
	case mapping.KindNumber:
		return toNumber(c)
	case mapping.KindDecimal:
		return toDecimal(c)
	default:
		return toText(c)
	}
}

func toText(c exceldate.Cell) (any, bool) {
	switch c.Kind() {
	case exceldate.KindText, exceldate.KindNumber:
		s := strings.TrimSpace(c.String())
		return s, s != ""
	case exceldate.KindTime:
		t, ok := exceldate.Normalize(c)
		if !ok {
			return nil, false
		}
		return exceldate.Format(t), true
	default:
		return nil, false
	}
}

func toNumber(c exceldate.Cell) (any, bool) {
	if v, ok := c.Float(); ok {
		return v, true
	}
	if c.Kind() != exceldate.KindText {
		return nil, false
	}
	v, err := strconv.ParseFloat(stripGrouping(c.String()), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return v, true
}

func toInteger(c exceldate.Cell) (any, bool) {
	v, ok := toNumber(c)
	if !ok {
		return nil, false
	}
	f := v.(float64)
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return nil, false
	}
	return int64(f), true
}

// Decimal columns are numeric(18, 4): values are rounded to four places by
// the database and must keep their integer part under 10^14.
const (
	decimalPrecision = 18
	decimalScale     = 4
)

var maxDecimal = decimal.New(1, decimalPrecision-decimalScale)

func toDecimal(c exceldate.Cell) (any, bool) {
	switch c.Kind() {
	case exceldate.KindNumber, exceldate.KindText:
		d, err := decimal.NewFromString(stripGrouping(c.String()))
		if err != nil {
			return nil, false
		}
		if d.Round(decimalScale).Abs().GreaterThanOrEqual(maxDecimal) {
			return nil, false
		}
		return d, true
	default:
		return nil, false
	}
}

// stripGrouping removes thousands separators and surrounding space.
func stripGrouping(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, ", '\u00a0") {
		return s
	}
	return groupingReplacer.Replace(s)
}

var groupingReplacer = strings.NewReplacer(",", "", " ", "", "'", "", "\u00a0", "")

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
