// Package exceldate converts raw spreadsheet cells into calendar dates.
//
// Spreadsheet exports encode dates in several ways: numeric day serials, free
// text in a handful of layouts, or native date values produced by the decoder.
// Normalize accepts all of them and either returns a valid date or reports the
// cell as unparseable. It never panics and never returns an error.
package exceldate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// LeapBugThreshold is the first serial affected by the spreadsheet format
	// treating 1900 as a leap year.
	LeapBugThreshold = 60
	// MaxSerial is the serial of 9999-12-31, the format's own ceiling.
	MaxSerial = 2958465

	msPerDay = 24 * 60 * 60 * 1000
)

// DateLayout is the canonical text form of a date.
const DateLayout = "2006-01-02"

var serialEpoch = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)

var (
	isoPrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	dayFirst  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})$`)
	// compactDate is "YYYYMMDD"; eight digits are always past MaxSerial.
	compactDate = regexp.MustCompile(`^\d{8}$`)
)

// fallbackLayouts are tried in order once the ISO and day-first shapes failed.
// Slash and dot dates stay day-first.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"2006.01.02",
	"2.1.2006",
	"02.01.2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"2-Jan-06",
	"Mon, 2 Jan 2006",
	"Mon Jan 2 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"20060102",
}

// Normalize converts a cell into a calendar date. The second return value is
// false when the cell is empty or cannot be read as a valid date.
func Normalize(c Cell) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	switch c.kind {
	case KindEmpty:
		return time.Time{}, false
	case KindTime:
		if !validTime(c.t) {
			return time.Time{}, false
		}
		return c.t, true
	case KindNumber:
		if compactDate.MatchString(strings.TrimSpace(c.text)) {
			return FromText(c.text)
		}
		return FromSerial(c.num)
	case KindText:
		return FromText(c.text)
	default:
		return time.Time{}, false
	}
}

// FromSerial converts a spreadsheet day serial. Serial 1 is 1900-01-01; serials
// from LeapBugThreshold on are shifted back one day so that the phantom
// 1900-02-29 collapses onto 1900-02-28. The fractional part is a time of day.
func FromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	if serial < 1 || serial > MaxSerial {
		return time.Time{}, false
	}

	whole := math.Floor(serial)
	days := int(whole)
	if days >= LeapBugThreshold {
		days--
	}
	d := serialEpoch.AddDate(0, 0, days)
	if frac := serial - whole; frac > 0 {
		ms := math.Round(frac * msPerDay)
		d = d.Add(time.Duration(ms) * time.Millisecond)
	}
	if !validTime(d) {
		return time.Time{}, false
	}
	return d, true
}

// FromText parses a textual date. ISO "YYYY-MM-DD" prefixes win over day-first
// "D/M/Y" text, which wins over the generic layouts.
func FromText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := isoPrefix.FindStringSubmatch(s); m != nil {
		return fromParts(m[1], m[2], m[3])
	}

	if m := dayFirst.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			y, _ := strconv.Atoi(year)
			year = strconv.Itoa(2000 + y)
		}
		return fromParts(year, m[2], m[1])
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			if validTime(t) {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Format renders the date part of t in DateLayout.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// fromParts builds a date from text components, rejecting anything the
// calendar would silently roll over (month 13, 31 April).
func fromParts(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	if !validTime(t) {
		return time.Time{}, false
	}
	return t, true
}

func validTime(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	y := t.Year()
	return y >= 1 && y <= 9999
}
