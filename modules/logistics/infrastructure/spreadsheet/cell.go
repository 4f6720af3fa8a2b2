package spreadsheet

import (
	"strconv"
	"strings"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/exceldate"
)

var errorValues = map[string]struct{}{
	"#N/A":    {},
	"#VALUE!": {},
	"#REF!":   {},
	"#DIV/0!": {},
	"#NUM!":   {},
	"#NAME?":  {},
	"#NULL!":  {},
}

// classify turns a decoded cell string into a typed cell. Numeric text
// becomes a number that keeps its original text; spreadsheet error values
// become unclassified cells.
func classify(raw string) exceldate.Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return exceldate.Empty()
	}
	if _, bad := errorValues[strings.ToUpper(s)]; bad {
		return exceldate.Other(s)
	}
	if looksNumeric(s) {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return exceldate.NumberWithText(v, s)
		}
	}
	return exceldate.Text(raw)
}

func looksNumeric(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == 'e' || r == 'E':
		case (r == '+' || r == '-') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		default:
			return false
		}
	}
	return digits > 0
}

func classifyRow(raw []string) []exceldate.Cell {
	cells := make([]exceldate.Cell, len(raw))
	for i, v := range raw {
		cells[i] = classify(v)
	}
	return cells
}

func blankRow(raw []string) bool {
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
