package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillLine(t *testing.T) {
	parser := NewLineParser()

	tests := []struct {
		name     string
		line     string
		wantName string
		wantQty  int
	}{
		{"simple", "Rice 5", "Rice", 5},
		{"multi word name", "Basmati Rice 12", "Basmati Rice", 12},
		{"no space before quantity", "Sugar2", "Sugar", 2},
		{"leading noise", "*** Milk 3", "Milk", 3},
		{"trailing text ignored", "Bread 4 loaves", "Bread", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := parser.ParseBillLine(tt.line)
			require.NotNil(t, item)
			assert.Equal(t, tt.wantName, item.ProductName)
			assert.Equal(t, tt.wantQty, item.Quantity)
			assert.Equal(t, tt.line, item.RawLine)
		})
	}
}

func TestParseBillLine_NoMatch(t *testing.T) {
	parser := NewLineParser()

	for _, line := range []string{
		"",
		"----",
		"TOTAL",
		"Rice",
	} {
		assert.Nil(t, parser.ParseBillLine(line), "line %q should not parse", line)
	}
}

func TestParseBillLine_Deterministic(t *testing.T) {
	parser := NewLineParser()

	first := parser.ParseBillLine("Basmati Rice 12")
	second := parser.ParseBillLine("Basmati Rice 12")

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
}

func TestParseInvoiceLine(t *testing.T) {
	parser := NewLineParser()

	t.Run("with price", func(t *testing.T) {
		item, err := parser.ParseInvoiceLine("Sugar 2 $30.00")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, "Sugar", item.ProductName)
		assert.Equal(t, 2, item.Quantity)
		require.NotNil(t, item.Price)
		assert.Equal(t, 30.00, *item.Price)
	})

	t.Run("price without dollar sign", func(t *testing.T) {
		item, err := parser.ParseInvoiceLine("Coffee 4 250.50")
		require.NoError(t, err)
		require.NotNil(t, item)
		require.NotNil(t, item.Price)
		assert.Equal(t, 250.50, *item.Price)
	})

	t.Run("without price", func(t *testing.T) {
		item, err := parser.ParseInvoiceLine("Green Tea 25")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, "Green Tea", item.ProductName)
		assert.Equal(t, 25, item.Quantity)
		assert.Nil(t, item.Price)
	})

	t.Run("no match", func(t *testing.T) {
		item, err := parser.ParseInvoiceLine("=====")
		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("blank name", func(t *testing.T) {
		item, err := parser.ParseInvoiceLine("   42")
		assert.ErrorIs(t, err, ErrInvalidLineData)
		assert.Nil(t, item)
	})

	t.Run("quantity overflow", func(t *testing.T) {
		item, err := parser.ParseInvoiceLine("Rice 99999999999999999999")
		assert.ErrorIs(t, err, ErrInvalidLineData)
		assert.Nil(t, item)
	})
}
