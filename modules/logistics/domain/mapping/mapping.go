package mapping

import (
	"fmt"
	"sort"
	"strings"
)

type FieldKind string

const (
	KindText    FieldKind = "text"
	KindInteger FieldKind = "integer"
	KindNumber  FieldKind = "number"
	KindDecimal FieldKind = "decimal"
	KindDate    FieldKind = "date"
)

// Field describes one column of an upload type: the storage column it lands
// in, how its cells are coerced and which spreadsheet headers name it.
type Field struct {
	Name     string    `yaml:"name" json:"name" validate:"required,sqlident"`
	Kind     FieldKind `yaml:"kind" json:"kind" validate:"required,oneof=text integer number decimal date"`
	Required bool      `yaml:"required" json:"required"`
	Aliases  []string  `yaml:"aliases" json:"aliases" validate:"dive,required"`
}

// Mapping is the column mapping of one upload type.
type Mapping struct {
	Type        string  `yaml:"type" json:"type" validate:"required"`
	Title       string  `yaml:"title" json:"title"`
	Table       string  `yaml:"table" json:"table" validate:"required,sqlident"`
	DateField   string  `yaml:"date_field" json:"date_field,omitempty"`
	Fields      []Field `yaml:"fields" json:"fields" validate:"required,min=1,dive"`
	ReplaceMode bool    `yaml:"replace" json:"replace"`
}

func (m *Mapping) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns the field names in declaration order.
func (m *Mapping) Columns() []string {
	out := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		out = append(out, f.Name)
	}
	return out
}

// HasDates reports whether the mapping tracks a date range.
func (m *Mapping) HasDates() bool {
	return m.DateField != ""
}

// Check verifies references between fields that struct tags cannot express.
func (m *Mapping) Check() error {
	seen := make(map[string]struct{}, len(m.Fields))
	for _, f := range m.Fields {
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("mapping %s: duplicate field %q", m.Type, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	if m.DateField != "" {
		f, ok := m.Field(m.DateField)
		if !ok {
			return fmt.Errorf("mapping %s: date_field %q is not a field", m.Type, m.DateField)
		}
		if f.Kind != KindDate {
			return fmt.Errorf("mapping %s: date_field %q must be of kind date", m.Type, m.DateField)
		}
	}
	return nil
}

// Registry holds the mappings of every known upload type.
type Registry struct {
	byType map[string]*Mapping
}

func NewRegistry(mappings ...*Mapping) (*Registry, error) {
	r := &Registry{byType: make(map[string]*Mapping, len(mappings))}
	for _, m := range mappings {
		if err := m.Check(); err != nil {
			return nil, err
		}
		key := strings.TrimSpace(m.Type)
		if _, dup := r.byType[key]; dup {
			return nil, fmt.Errorf("duplicate mapping for upload type %q", key)
		}
		r.byType[key] = m
	}
	return r, nil
}

func (r *Registry) Get(uploadType string) (*Mapping, bool) {
	m, ok := r.byType[strings.TrimSpace(uploadType)]
	return m, ok
}

// All returns the mappings sorted by type.
func (r *Registry) All() []*Mapping {
	out := make([]*Mapping, 0, len(r.byType))
	for _, m := range r.byType {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
