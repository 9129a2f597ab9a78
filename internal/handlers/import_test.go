package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapColumns(t *testing.T) {
	cm := mapColumns([]string{"Product ID", "Product Name", "Qty", "Unit Price", "Category", "Minimum Stock"})

	assert.Equal(t, 0, cm.productIDCol)
	assert.Equal(t, 1, cm.nameCol)
	assert.Equal(t, 2, cm.quantityCol)
	assert.Equal(t, 3, cm.priceCol)
	assert.Equal(t, 4, cm.categoryCol)
	assert.Equal(t, 5, cm.minStockCol)
}

func TestMapColumns_MissingColumns(t *testing.T) {
	cm := mapColumns([]string{"Name", "Quantity"})

	assert.Equal(t, -1, cm.productIDCol)
	assert.Equal(t, 0, cm.nameCol)
	assert.Equal(t, 1, cm.quantityCol)
	assert.Equal(t, -1, cm.priceCol)
	assert.Equal(t, -1, cm.categoryCol)
	assert.Equal(t, -1, cm.minStockCol)
}

func TestParseImportRows(t *testing.T) {
	cm := mapColumns([]string{"product_id", "name", "quantity", "price", "category", "minimum_stock"})

	rows := [][]string{
		{"BAS000001", "Basmati Rice", "50", "$85.00", "Grains", "10"},
		{"", "", "", "", "", ""}, // blank rows are skipped
		{"", "Green Tea", "25", "120", "", ""},
	}

	parsed, rowErrors := parseImportRows(rows, cm)
	require.Empty(t, rowErrors)
	require.Len(t, parsed, 2)

	assert.Equal(t, "BAS000001", parsed[0].productID)
	assert.Equal(t, "Basmati Rice", parsed[0].name)
	assert.Equal(t, 50, parsed[0].quantity)
	assert.Equal(t, 85.00, parsed[0].price)
	assert.Equal(t, "Grains", parsed[0].category)
	require.NotNil(t, parsed[0].minimumStock)
	assert.Equal(t, 10, *parsed[0].minimumStock)

	assert.Equal(t, "Green Tea", parsed[1].name)
	assert.Empty(t, parsed[1].productID)
	assert.Nil(t, parsed[1].minimumStock)
	assert.Equal(t, 4, parsed[1].rowNum)
}

func TestParseImportRows_CollectsAllErrors(t *testing.T) {
	cm := mapColumns([]string{"name", "quantity", "price"})

	rows := [][]string{
		{"", "5", "10"},
		{"Rice", "not-a-number", "10"},
		{"Sugar", "-3", "10"},
		{"Milk", "5", "oops"},
		{"Bread", "4", "35"},
	}

	parsed, rowErrors := parseImportRows(rows, cm)

	require.Len(t, rowErrors, 4)
	assert.Equal(t, 2, rowErrors[0].Row)
	assert.Equal(t, "name is required", rowErrors[0].Message)
	assert.Equal(t, "quantity must be a non-negative integer", rowErrors[1].Message)
	assert.Equal(t, "quantity must be a non-negative integer", rowErrors[2].Message)
	assert.Equal(t, "price must be a non-negative number", rowErrors[3].Message)

	// Valid rows are still reported so callers can see what would import
	require.Len(t, parsed, 1)
	assert.Equal(t, "Bread", parsed[0].name)
}
