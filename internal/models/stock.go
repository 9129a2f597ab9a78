package models

import (
	"time"
)

// StockItem represents a persisted inventory record
type StockItem struct {
	ID           int       `json:"id"`
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	Category     string    `json:"category"`
	MinimumStock int       `json:"minimum_stock"`
	LastUpdated  time.Time `json:"last_updated"`
}

// IsLowStock reports whether the item is at or below its minimum stock level
func (s *StockItem) IsLowStock() bool {
	return s.Quantity <= s.MinimumStock
}

// CreateStockItemRequest is the request body for creating a stock item
type CreateStockItemRequest struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	MinimumStock *int    `json:"minimum_stock,omitempty"`
}

// UpdateStockItemRequest is the request body for updating a stock item
type UpdateStockItemRequest struct {
	Name         *string  `json:"name,omitempty"`
	Quantity     *int     `json:"quantity,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Category     *string  `json:"category,omitempty"`
	MinimumStock *int     `json:"minimum_stock,omitempty"`
}

// StockListParams contains parameters for listing stock items
type StockListParams struct {
	Limit    int
	Offset   int
	Search   string
	Category string
	LowStock bool
}

// StockStats contains aggregate statistics for the inventory
type StockStats struct {
	TotalItems    int     `json:"total_items"`
	TotalQuantity int     `json:"total_quantity"`
	LowStockCount int     `json:"low_stock_count"`
	CategoryCount int     `json:"category_count"`
	TotalValue    float64 `json:"total_value"`
}

// ImportRowError describes a rejected spreadsheet row
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes a spreadsheet bulk import
type ImportResult struct {
	Processed int              `json:"processed"`
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Errors    []ImportRowError `json:"errors,omitempty"`
	Message   string           `json:"message"`
}
