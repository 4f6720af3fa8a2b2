package exceldate

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Cell.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindTime
	// KindOther marks a value the decoder could not classify.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	default:
		return "other"
	}
}

// Cell is a raw spreadsheet cell value: a number, a piece of text, a native
// time value or nothing at all.
type Cell struct {
	kind Kind
	num  float64
	text string
	t    time.Time
}

func Empty() Cell                   { return Cell{kind: KindEmpty} }
func Number(v float64) Cell         { return Cell{kind: KindNumber, num: v} }
func Text(s string) Cell            { return Cell{kind: KindText, text: s} }
func Time(t time.Time) Cell         { return Cell{kind: KindTime, t: t} }
func Other(raw string) Cell         { return Cell{kind: KindOther, text: raw} }
func (c Cell) Kind() Kind           { return c.kind }
func (c Cell) TimeValue() time.Time { return c.t }

// NumberWithText is a number cell that remembers the text it was decoded from,
// so text columns keep leading zeros and original precision.
func NumberWithText(v float64, raw string) Cell {
	return Cell{kind: KindNumber, num: v, text: raw}
}

// FromValue classifies an arbitrary decoded value.
func FromValue(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Empty()
	case Cell:
		return x
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case string:
		return Text(x)
	case time.Time:
		return Time(x)
	case *time.Time:
		if x == nil {
			return Empty()
		}
		return Time(*x)
	default:
		return Other("")
	}
}

// IsBlank reports whether the cell carries no value: empty, or text that is
// only whitespace.
func (c Cell) IsBlank() bool {
	switch c.kind {
	case KindEmpty:
		return true
	case KindText:
		return strings.TrimSpace(c.text) == ""
	default:
		return false
	}
}

// Float returns the numeric value of number cells.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// String returns the textual form of the cell as it would appear in a report.
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		if c.text != "" {
			return c.text
		}
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText, KindOther:
		return c.text
	case KindTime:
		if c.t.IsZero() {
			return ""
		}
		return c.t.Format(time.RFC3339)
	default:
		return ""
	}
}
