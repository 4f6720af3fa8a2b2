package mapping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func inboundMapping() *Mapping {
	return &Mapping{
		Type:      "inbound",
		Table:     "logistics_inbound",
		DateField: "receipt_date",
		Fields: []Field{
			{Name: "receipt_date", Kind: KindDate, Required: true, Aliases: []string{"GRN Date", "Receipt Date"}},
			{Name: "item_code", Kind: KindText, Required: true, Aliases: []string{"SKU", "Item Code"}},
			{Name: "quantity", Kind: KindNumber, Required: true, Aliases: []string{"Qty", "Received Qty"}},
			{Name: "supplier", Kind: KindText, Aliases: []string{"Vendor"}},
		},
	}
}

func TestCanonicalHeader(t *testing.T) {
	require.Equal(t, "item code", CanonicalHeader("  Item_Code "))
	require.Equal(t, "grn date", CanonicalHeader("GRN-Date"))
	require.Equal(t, "qty", CanonicalHeader("ＱＴＹ"))
	require.Equal(t, "received qty pcs", CanonicalHeader("Received Qty (pcs)"))
	require.Equal(t, "", CanonicalHeader(" -- "))
}

func TestResolve_ExactAliases(t *testing.T) {
	m := inboundMapping()
	cols, err := m.Resolve([]string{"SKU", "Vendor", "GRN Date", "QTY"})
	require.NoError(t, err)
	require.Equal(t, 0, cols.Index("item_code"))
	require.Equal(t, 1, cols.Index("supplier"))
	require.Equal(t, 2, cols.Index("receipt_date"))
	require.Equal(t, 3, cols.Index("quantity"))
}

func TestResolve_FuzzyMatchesTypos(t *testing.T) {
	m := inboundMapping()
	cols, err := m.Resolve([]string{"Recipt Date", "Item Code", "Qty"})
	require.NoError(t, err)
	require.Equal(t, 0, cols.Index("receipt_date"))
	require.Equal(t, -1, cols.Index("supplier"))
}

func TestResolve_FuzzyLengthCountsRunes(t *testing.T) {
	m := &Mapping{
		Type:  "x",
		Table: "x",
		Fields: []Field{
			{Name: "state", Kind: KindText, Aliases: []string{"État"}},
			{Name: "entry", Kind: KindText, Aliases: []string{"Entrée"}},
		},
	}
	cols, err := m.Resolve([]string{"Étai", "Entree"})
	require.NoError(t, err)
	require.Equal(t, -1, cols.Index("state"))
	require.Equal(t, 1, cols.Index("entry"))
}

func TestResolve_MissingRequiredColumns(t *testing.T) {
	m := inboundMapping()
	_, err := m.Resolve([]string{"Item Code", "Vendor"})
	require.Error(t, err)

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, []string{"receipt_date", "quantity"}, missing.Fields)
}

func TestResolve_HeaderClaimedOnce(t *testing.T) {
	m := &Mapping{
		Type:  "x",
		Table: "x",
		Fields: []Field{
			{Name: "warehouse", Kind: KindText, Aliases: []string{"Location"}},
			{Name: "location", Kind: KindText},
		},
	}
	cols, err := m.Resolve([]string{"Location"})
	require.NoError(t, err)
	require.Equal(t, 0, cols.Index("warehouse"))
	require.Equal(t, -1, cols.Index("location"))
}

func TestRegistry(t *testing.T) {
	_, err := NewRegistry(inboundMapping(), inboundMapping())
	require.Error(t, err)

	bad := inboundMapping()
	bad.DateField = "supplier"
	_, err = NewRegistry(bad)
	require.Error(t, err)

	r, err := NewRegistry(inboundMapping())
	require.NoError(t, err)
	m, ok := r.Get(" inbound ")
	require.True(t, ok)
	require.True(t, m.HasDates())
	require.Equal(t, []string{"receipt_date", "item_code", "quantity", "supplier"}, m.Columns())
	require.Len(t, r.All(), 1)
}
