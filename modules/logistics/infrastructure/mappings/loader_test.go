package mappings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
)

func TestDefault_CoversEveryUploadType(t *testing.T) {
	r := Default()
	for _, typ := range []upload.Type{upload.TypeItemMaster, upload.TypeInbound, upload.TypeOutbound, upload.TypeInventory} {
		m, ok := r.Get(string(typ))
		require.True(t, ok, "mapping for %s", typ)
		require.NotEmpty(t, m.Table)
	}

	item, _ := r.Get("item_master")
	require.False(t, item.HasDates())
	require.True(t, item.ReplaceMode)

	inbound, _ := r.Get("inbound")
	require.Equal(t, "receipt_date", inbound.DateField)
	f, ok := inbound.Field("quantity")
	require.True(t, ok)
	require.Equal(t, mapping.KindNumber, f.Kind)
	require.True(t, f.Required)
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: "mappings: []"},
		{name: "unknown key", doc: "mappings:\n  - type: inbound\n    table: t\n    colour: red\n    fields: [{name: a, kind: text}]"},
		{name: "bad kind", doc: "mappings:\n  - type: inbound\n    table: t\n    fields: [{name: a, kind: blob}]"},
		{name: "bad table name", doc: "mappings:\n  - type: inbound\n    table: \"t; drop\"\n    fields: [{name: a, kind: text}]"},
		{name: "bad field name", doc: "mappings:\n  - type: inbound\n    table: t\n    fields: [{name: A-B, kind: text}]"},
		{name: "date field not a date", doc: "mappings:\n  - type: inbound\n    table: t\n    date_field: a\n    fields: [{name: a, kind: text}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
		})
	}

	_, err := Parse([]byte("mappings:\n  - type: returns\n    table: t\n    fields: [{name: a, kind: text}]"))
	require.True(t, errors.Is(err, upload.ErrUnknownType))
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	doc := "mappings:\n  - type: inbound\n    table: logistics_inbound\n    date_field: receipt_date\n    fields:\n      - {name: receipt_date, kind: date, required: true}\n      - {name: item_code, kind: text, required: true}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	require.Len(t, r.All(), 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
