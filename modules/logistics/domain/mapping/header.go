package mapping

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fuzzyMinLen, in runes, keeps short headers ("qty", "uom") on exact matching only.
const fuzzyMinLen = 5

var folder = cases.Fold()

// Columns maps field names to header positions. A field whose column is
// absent has no entry.
type Columns map[string]int

func (c Columns) Index(field string) int {
	idx, ok := c[field]
	if !ok {
		return -1
	}
	return idx
}

// MissingColumnsError lists required fields without a matching header.
type MissingColumnsError struct {
	Type   string
	Fields []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("upload type %s: missing required columns: %s", e.Type, strings.Join(e.Fields, ", "))
}

// CanonicalHeader folds a header cell into a comparable key: NFKC, case folded,
// with runs of spaces and punctuation collapsed into a single space.
func CanonicalHeader(s string) string {
	s = folder.String(norm.NFKC.String(strings.TrimSpace(s)))
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Resolve locates every field of the mapping in a header row. Exact alias
// matches are tried first; headers still unclaimed are then matched with an
// edit distance of one to tolerate typos. Each header column is claimed by at
// most one field.
func (m *Mapping) Resolve(header []string) (Columns, error) {
	canon := make([]string, len(header))
	for i, h := range header {
		canon[i] = CanonicalHeader(h)
	}
	claimed := make([]bool, len(header))
	cols := make(Columns, len(m.Fields))

	for _, f := range m.Fields {
		keys := make(map[string]struct{})
		for _, k := range fieldKeys(f) {
			keys[k] = struct{}{}
		}
		for i, h := range canon {
			if claimed[i] || h == "" {
				continue
			}
			if _, ok := keys[h]; ok {
				cols[f.Name] = i
				claimed[i] = true
				break
			}
		}
	}

	for _, f := range m.Fields {
		if _, ok := cols[f.Name]; ok {
			continue
		}
		for _, key := range fieldKeys(f) {
			if utf8.RuneCountInString(key) < fuzzyMinLen {
				continue
			}
			found := -1
			for i, h := range canon {
				if claimed[i] || utf8.RuneCountInString(h) < fuzzyMinLen {
					continue
				}
				if fuzzy.LevenshteinDistance(key, h) <= 1 {
					found = i
					break
				}
			}
			if found >= 0 {
				cols[f.Name] = found
				claimed[found] = true
				break
			}
		}
	}

	var missing []string
	for _, f := range m.Fields {
		if _, ok := cols[f.Name]; !ok && f.Required {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return cols, &MissingColumnsError{Type: m.Type, Fields: missing}
	}
	return cols, nil
}

// fieldKeys returns the canonical field name followed by its aliases.
func fieldKeys(f Field) []string {
	keys := make([]string, 0, len(f.Aliases)+1)
	seen := make(map[string]struct{}, len(f.Aliases)+1)
	for _, raw := range append([]string{f.Name}, f.Aliases...) {
		k := CanonicalHeader(raw)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
