package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/mapping"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/exceldate"
)

func TestCoerce(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		kind mapping.FieldKind
		cell exceldate.Cell
		want any
		ok   bool
	}{
		{"text trimmed", mapping.KindText, exceldate.Text("  A-1 "), "A-1", true},
		{"text keeps leading zeros", mapping.KindText, exceldate.NumberWithText(7, "007"), "007", true},
		{"text from error value", mapping.KindText, exceldate.Other("#N/A"), nil, false},
		{"number cell", mapping.KindNumber, exceldate.Number(2.5), 2.5, true},
		{"number with grouping", mapping.KindNumber, exceldate.Text("1,234.5"), 1234.5, true},
		{"number garbage", mapping.KindNumber, exceldate.Text("ten"), nil, false},
		{"number nan text", mapping.KindNumber, exceldate.Text("NaN"), nil, false},
		{"integer", mapping.KindInteger, exceldate.Number(12), int64(12), true},
		{"integer grouped text", mapping.KindInteger, exceldate.Text("12 000"), int64(12000), true},
		{"integer fractional", mapping.KindInteger, exceldate.Number(1.5), nil, false},
		{"date serial", mapping.KindDate, exceldate.Number(45658), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"date text", mapping.KindDate, exceldate.Text("15/01/2025"), time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := coerce(tc.kind, tc.cell)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestCoerce_Decimal(t *testing.T) {
	t.Parallel()
	got, ok := coerce(mapping.KindDecimal, exceldate.Text("1,250.75"))
	require.True(t, ok)
	require.True(t, decimal.RequireFromString("1250.75").Equal(got.(decimal.Decimal)))

	got, ok = coerce(mapping.KindDecimal, exceldate.NumberWithText(0.1, "0.1"))
	require.True(t, ok)
	require.Equal(t, "0.1", got.(decimal.Decimal).String())

	_, ok = coerce(mapping.KindDecimal, exceldate.Text("abc"))
	require.False(t, ok)

	got, ok = coerce(mapping.KindDecimal, exceldate.Text("-99,999,999,999,999.9999"))
	require.True(t, ok)
	require.Equal(t, "-99999999999999.9999", got.(decimal.Decimal).String())

	for _, raw := range []string{"1e20", "123456789012345678901234", "100000000000000", "99999999999999.99995"} {
		_, ok = coerce(mapping.KindDecimal, exceldate.Text(raw))
		require.False(t, ok, raw)
	}
}

func TestRowParser(t *testing.T) {
	t.Parallel()
	m := inboundMapping()
	cols, err := m.Resolve(inboundHeader)
	require.NoError(t, err)
	p := newRowParser(m, cols)

	t.Run("valid row", func(t *testing.T) {
		row, rej := p.parse(2, []exceldate.Cell{
			exceldate.Text("2025-01-15"), exceldate.Text("A-1"), exceldate.Number(3), exceldate.Text("oops"),
		})
		require.Nil(t, rej)
		require.Equal(t, 2, row.Line)
		require.Equal(t, "A-1", row.Values["item_code"])
		require.Nil(t, row.Values["value"])
		d, ok := p.date(row)
		require.True(t, ok)
		require.Equal(t, "2025-01-15", exceldate.Format(d))
	})

	t.Run("missing required field", func(t *testing.T) {
		_, rej := p.parse(3, []exceldate.Cell{exceldate.Number(45658), exceldate.Empty(), exceldate.Number(1)})
		require.NotNil(t, rej)
		require.Equal(t, upload.ReasonMalformedRow, rej.Reason)
		require.Equal(t, "item_code", rej.Field)
		require.Equal(t, 3, rej.Line)
	})

	t.Run("short row", func(t *testing.T) {
		_, rej := p.parse(4, []exceldate.Cell{exceldate.Number(45658), exceldate.Text("A")})
		require.NotNil(t, rej)
		require.Equal(t, "quantity", rej.Field)
		require.Equal(t, upload.ReasonMalformedRow, rej.Reason)
	})

	t.Run("optional decimal out of column range", func(t *testing.T) {
		row, rej := p.parse(6, []exceldate.Cell{
			exceldate.Text("2025-01-15"), exceldate.Text("A-1"), exceldate.Number(3), exceldate.NumberWithText(1e20, "1e20"),
		})
		require.Nil(t, rej)
		require.Contains(t, row.Values, "value")
		require.Nil(t, row.Values["value"])
	})

	t.Run("required decimal out of column range", func(t *testing.T) {
		priced := &mapping.Mapping{
			Type:  "item_master",
			Table: "logistics_item_master",
			Fields: []mapping.Field{
				{Name: "item_code", Kind: mapping.KindText, Required: true, Aliases: []string{"Item Code"}},
				{Name: "unit_price", Kind: mapping.KindDecimal, Required: true, Aliases: []string{"Price"}},
			},
		}
		cols, err := priced.Resolve([]string{"Item Code", "Price"})
		require.NoError(t, err)
		_, rej := newRowParser(priced, cols).parse(7, []exceldate.Cell{exceldate.Text("A-1"), exceldate.Text("1e20")})
		require.NotNil(t, rej)
		require.Equal(t, upload.ReasonUnparseableCell, rej.Reason)
		require.Equal(t, "unit_price", rej.Field)
		require.Equal(t, "1e20", rej.Value)
	})

	t.Run("unparseable required date", func(t *testing.T) {
		_, rej := p.parse(5, []exceldate.Cell{exceldate.Text("someday"), exceldate.Text("A"), exceldate.Number(1)})
		require.NotNil(t, rej)
		require.Equal(t, upload.ReasonUnparseableCell, rej.Reason)
		require.Equal(t, "receipt_date", rej.Field)
		require.Equal(t, "someday", rej.Value)
	})
}
