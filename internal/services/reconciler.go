package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/kulkarnip/stockscan/internal/database"
	"github.com/kulkarnip/stockscan/internal/models"
)

// InventoryStore is the persistence surface the reconciliation engine
// consumes. *database.DB implements it; tests substitute an in-memory fake.
//
// The quantity mutations are atomic single statements at the store boundary
// so the engine never performs a read-modify-write on shared stock.
type InventoryStore interface {
	FindByNameSubstring(ctx context.Context, text string) (*models.StockItem, error)
	FindByNameExact(ctx context.Context, text string) (*models.StockItem, error)
	ProductIDExists(ctx context.Context, productID string) (bool, error)
	DeductStock(ctx context.Context, id int, qty int) (*models.StockItem, error)
	AddStock(ctx context.Context, id int, qty int) (*models.StockItem, error)
	ReplenishStock(ctx context.Context, id int, qty int, price *float64) (*models.StockItem, error)
	CreateStockItem(ctx context.Context, item *models.StockItem) (*models.StockItem, error)
}

// EmptyBatchError reports that no line in the batch produced any update or
// creation. It carries the raw OCR text for operator diagnosis.
type EmptyBatchError struct {
	Doc  string
	Text string
}

func (e *EmptyBatchError) Error() string {
	return fmt.Sprintf("no valid products found in the %s", e.Doc)
}

// minimumStockRatio sets the low-stock threshold of newly ingested items to
// 20% of their initial quantity, rounded up.
const minimumStockRatio = 0.2

// createAttempts bounds identifier regeneration when an insert loses a
// product id race to a concurrent creation.
const createAttempts = 3

// Reconciler matches recognized product mentions against the inventory and
// applies quantity deltas (bills) or ingests new and replenished items
// (invoices). Lines are processed strictly sequentially, in input order, and
// each line is visited exactly once.
type Reconciler struct {
	store      InventoryStore
	parser     *LineParser
	classifier *CategoryClassifier
	idgen      *ProductIDGenerator
}

// NewReconciler creates a reconciler with the default parser, category
// rules and identifier generator
func NewReconciler(store InventoryStore) *Reconciler {
	return &Reconciler{
		store:      store,
		parser:     NewLineParser(),
		classifier: NewCategoryClassifier(DefaultCategoryRules()),
		idgen:      NewProductIDGenerator(store),
	}
}

// ProcessBill reconciles a sales or purchase bill against existing stock.
//
// Each line is parsed and matched by case-insensitive substring against
// stock item names; lines that do not parse or do not match any item are
// skipped without an error. A reduce that exceeds current stock emits an
// alert and leaves the item untouched. Returns *EmptyBatchError when no
// line produced an update.
func (r *Reconciler) ProcessBill(ctx context.Context, text string, op models.Operation) (*models.ReconcileResult, error) {
	result := &models.ReconcileResult{Updates: []models.StockUpdate{}}

	for _, line := range splitLines(text) {
		parsed := r.parser.ParseBillLine(line)
		if parsed == nil {
			continue
		}

		item, err := r.store.FindByNameSubstring(ctx, parsed.ProductName)
		if err != nil {
			log.Printf("Warning: stock lookup failed for %q: %v", parsed.ProductName, err)
			continue
		}
		if item == nil {
			continue
		}

		var updated *models.StockItem
		var change int

		if op == models.OperationReduce {
			if parsed.Quantity > item.Quantity {
				result.Alerts = append(result.Alerts, fmt.Sprintf(
					"Warning: Insufficient stock for %s. Current stock: %d", item.Name, item.Quantity))
				continue
			}

			updated, err = r.store.DeductStock(ctx, item.ID, parsed.Quantity)
			if errors.Is(err, database.ErrInsufficientStock) {
				// Lost a race with a concurrent deduction since the lookup.
				result.Alerts = append(result.Alerts, fmt.Sprintf(
					"Warning: Insufficient stock for %s. Current stock: %d", item.Name, item.Quantity))
				continue
			}
			change = -parsed.Quantity
		} else {
			updated, err = r.store.AddStock(ctx, item.ID, parsed.Quantity)
			change = parsed.Quantity
		}
		if err != nil {
			log.Printf("Warning: failed to update stock for %s: %v", item.Name, err)
			continue
		}

		ch := change
		result.Updates = append(result.Updates, models.StockUpdate{
			Name:        updated.Name,
			OldQuantity: updated.Quantity - change,
			NewQuantity: updated.Quantity,
			Change:      &ch,
		})

		if updated.IsLowStock() {
			result.Alerts = append(result.Alerts, fmt.Sprintf(
				"Low stock alert: %s (%d remaining)", updated.Name, updated.Quantity))
		}
	}

	if len(result.Updates) == 0 {
		return nil, &EmptyBatchError{Doc: "bill", Text: text}
	}

	return result, nil
}

// ProcessInvoice ingests a supplier invoice: existing items (matched by
// case-insensitive exact name, unlike ProcessBill's substring match) are
// replenished and optionally repriced, unknown items are created with a
// classified category and a generated identifier.
//
// Per-line failures are collected in the result's Errors and never abort
// the batch. Returns *EmptyBatchError when no line produced an update or a
// new item.
func (r *Reconciler) ProcessInvoice(ctx context.Context, text string) (*models.ReconcileResult, error) {
	result := &models.ReconcileResult{
		Updates:  []models.StockUpdate{},
		NewItems: []models.NewStockItem{},
	}

	for _, line := range splitLines(text) {
		parsed, err := r.parser.ParseInvoiceLine(line)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid data format in line: %s", line))
			continue
		}
		if parsed == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Could not parse line: %s", line))
			continue
		}

		existing, err := r.store.FindByNameExact(ctx, parsed.ProductName)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to process %s: %v", parsed.ProductName, err))
			continue
		}

		if existing != nil {
			updated, err := r.store.ReplenishStock(ctx, existing.ID, parsed.Quantity, parsed.Price)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Failed to process %s: %v", parsed.ProductName, err))
				continue
			}

			price := updated.Price
			result.Updates = append(result.Updates, models.StockUpdate{
				ProductID:   updated.ProductID,
				Name:        updated.Name,
				OldQuantity: updated.Quantity - parsed.Quantity,
				NewQuantity: updated.Quantity,
				Price:       &price,
			})
			continue
		}

		created, err := r.createItem(ctx, parsed)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to process %s: %v", parsed.ProductName, err))
			continue
		}

		result.NewItems = append(result.NewItems, models.NewStockItem{
			ProductID:    created.ProductID,
			Name:         created.Name,
			Quantity:     created.Quantity,
			Price:        created.Price,
			Category:     created.Category,
			MinimumStock: created.MinimumStock,
		})
	}

	if len(result.Updates) == 0 && len(result.NewItems) == 0 {
		return nil, &EmptyBatchError{Doc: "invoice", Text: text}
	}

	return result, nil
}

// createItem builds and persists a new stock item for an invoice line,
// regenerating the identifier when the insert loses a uniqueness race
func (r *Reconciler) createItem(ctx context.Context, parsed *models.ParsedLineItem) (*models.StockItem, error) {
	price := 0.0
	if parsed.Price != nil {
		price = *parsed.Price
	}

	item := &models.StockItem{
		Name:         parsed.ProductName,
		Quantity:     parsed.Quantity,
		Price:        price,
		Category:     r.classifier.Classify(parsed.ProductName),
		MinimumStock: int(math.Ceil(float64(parsed.Quantity) * minimumStockRatio)),
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		productID, err := r.idgen.Generate(ctx, parsed.ProductName)
		if err != nil {
			return nil, err
		}
		item.ProductID = productID

		created, err := r.store.CreateStockItem(ctx, item)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, database.ErrDuplicateProductID) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("product id collisions exhausted %d attempts", createAttempts)
}

// splitLines splits OCR text into trimmed, non-empty lines
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
