package models

// Operation selects how a processed bill mutates stock quantities
type Operation string

const (
	OperationReduce Operation = "reduce"
	OperationAdd    Operation = "add"
)

// IsValid reports whether the operation is one of the supported values
func (o Operation) IsValid() bool {
	return o == OperationReduce || o == OperationAdd
}

// ParsedLineItem is a single recognized line of OCR text.
// It is produced fresh per request and never persisted.
type ParsedLineItem struct {
	RawLine     string
	ProductName string
	Quantity    int
	Price       *float64
}

// StockUpdate records one applied quantity mutation
type StockUpdate struct {
	ProductID   string   `json:"product_id,omitempty"`
	Name        string   `json:"name"`
	OldQuantity int      `json:"old_quantity"`
	NewQuantity int      `json:"new_quantity"`
	Change      *int     `json:"change,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// NewStockItem records one item created during invoice ingestion
type NewStockItem struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	MinimumStock int     `json:"minimum_stock"`
}

// ReconcileResult aggregates the outcome of one reconciliation call.
// Updates, NewItems, Alerts and Errors mirror the input line order.
type ReconcileResult struct {
	Updates  []StockUpdate  `json:"updates"`
	NewItems []NewStockItem `json:"new_items,omitempty"`
	Alerts   []string       `json:"alerts,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
}
