package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kulkarnip/stockscan/internal/models"
)

var (
	ErrStockItemNotFound  = errors.New("stock item not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrDuplicateProductID = errors.New("duplicate product id")
)

const stockColumns = `id, product_id, name, quantity, price, category, minimum_stock, last_updated`

// escapeLike escapes ILIKE wildcard characters so user-supplied text only
// matches literally
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func scanStockItem(row pgx.Row) (*models.StockItem, error) {
	item := &models.StockItem{}
	err := row.Scan(
		&item.ID, &item.ProductID, &item.Name, &item.Quantity,
		&item.Price, &item.Category, &item.MinimumStock, &item.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// FindByNameSubstring returns the first stock item whose name contains the
// given text, case-insensitively. Several items can match; the lowest id wins.
// Returns (nil, nil) when nothing matches.
func (db *DB) FindByNameSubstring(ctx context.Context, text string) (*models.StockItem, error) {
	item, err := scanStockItem(db.Pool.QueryRow(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY id
		LIMIT 1
	`, escapeLike(text)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// FindByNameExact returns the stock item whose name equals the given text,
// case-insensitively. Returns (nil, nil) when nothing matches.
func (db *DB) FindByNameExact(ctx context.Context, text string) (*models.StockItem, error) {
	item, err := scanStockItem(db.Pool.QueryRow(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items
		WHERE LOWER(name) = LOWER($1)
		ORDER BY id
		LIMIT 1
	`, text))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// ProductIDExists reports whether a product identifier is already taken
func (db *DB) ProductIDExists(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM stock_items WHERE product_id = $1)",
		productID,
	).Scan(&exists)
	return exists, err
}

// DeductStock atomically subtracts qty from an item's quantity. The guard in
// the WHERE clause makes the check-and-subtract a single statement, so two
// concurrent reconciliation calls cannot drive the quantity negative.
// Returns ErrInsufficientStock when the current quantity is smaller than qty.
func (db *DB) DeductStock(ctx context.Context, id int, qty int) (*models.StockItem, error) {
	item, err := scanStockItem(db.Pool.QueryRow(ctx, `
		UPDATE stock_items
		SET quantity = quantity - $2, last_updated = NOW()
		WHERE id = $1 AND quantity >= $2
		RETURNING `+stockColumns+`
	`, id, qty))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInsufficientStock
		}
		return nil, err
	}
	return item, nil
}

// AddStock atomically adds qty to an item's quantity
func (db *DB) AddStock(ctx context.Context, id int, qty int) (*models.StockItem, error) {
	item, err := scanStockItem(db.Pool.QueryRow(ctx, `
		UPDATE stock_items
		SET quantity = quantity + $2, last_updated = NOW()
		WHERE id = $1
		RETURNING `+stockColumns+`
	`, id, qty))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// ReplenishStock atomically adds qty to an item's quantity and, when a price
// is supplied, overwrites the stored price
func (db *DB) ReplenishStock(ctx context.Context, id int, qty int, price *float64) (*models.StockItem, error) {
	item, err := scanStockItem(db.Pool.QueryRow(ctx, `
		UPDATE stock_items
		SET quantity = quantity + $2,
		    price = COALESCE($3, price),
		    last_updated = NOW()
		WHERE id = $1
		RETURNING `+stockColumns+`
	`, id, qty, price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// CreateStockItem inserts a new stock item. The unique constraint on
// product_id surfaces as ErrDuplicateProductID so callers can regenerate the
// identifier and retry.
func (db *DB) CreateStockItem(ctx context.Context, item *models.StockItem) (*models.StockItem, error) {
	created, err := scanStockItem(db.Pool.QueryRow(ctx, `
		INSERT INTO stock_items (product_id, name, quantity, price, category, minimum_stock, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING `+stockColumns+`
	`, item.ProductID, item.Name, item.Quantity, item.Price, item.Category, item.MinimumStock))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateProductID
		}
		return nil, err
	}
	return created, nil
}

// UpsertStockItem inserts a stock item or, when the product_id already
// exists, replaces its mutable fields. Used by the spreadsheet bulk import.
// The second return value reports whether a new row was inserted.
func (db *DB) UpsertStockItem(ctx context.Context, item *models.StockItem) (*models.StockItem, bool, error) {
	var inserted bool
	upserted := &models.StockItem{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO stock_items (product_id, name, quantity, price, category, minimum_stock, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (product_id) DO UPDATE
		SET name = EXCLUDED.name,
		    quantity = EXCLUDED.quantity,
		    price = EXCLUDED.price,
		    category = EXCLUDED.category,
		    minimum_stock = EXCLUDED.minimum_stock,
		    last_updated = NOW()
		RETURNING `+stockColumns+`, (xmax = 0)
	`, item.ProductID, item.Name, item.Quantity, item.Price, item.Category, item.MinimumStock).Scan(
		&upserted.ID, &upserted.ProductID, &upserted.Name, &upserted.Quantity,
		&upserted.Price, &upserted.Category, &upserted.MinimumStock, &upserted.LastUpdated,
		&inserted,
	)
	if err != nil {
		return nil, false, err
	}
	return upserted, inserted, nil
}

// ListStock returns a paginated list of stock items with optional filtering
func (db *DB) ListStock(ctx context.Context, params *models.StockListParams) ([]*models.StockItem, int, error) {
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(name ILIKE '%%' || $%d || '%%' OR product_id ILIKE '%%' || $%d || '%%')",
			argIndex, argIndex,
		))
		args = append(args, escapeLike(params.Search))
		argIndex++
	}

	if params.Category != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(category) = LOWER($%d)", argIndex))
		args = append(args, params.Category)
		argIndex++
	}

	if params.LowStock {
		whereClauses = append(whereClauses, "quantity <= minimum_stock")
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Get total count
	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM stock_items %s", whereClause)
	err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM stock_items
		%s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, stockColumns, whereClause, argIndex, argIndex+1)

	args = append(args, params.Limit, params.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*models.StockItem
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}

	return items, total, nil
}

// GetStockItemByID retrieves a stock item by ID
func (db *DB) GetStockItemByID(ctx context.Context, id int) (*models.StockItem, error) {
	item, err := scanStockItem(db.Pool.QueryRow(ctx, `
		SELECT `+stockColumns+` FROM stock_items WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// UpdateStockItem updates an existing stock item
func (db *DB) UpdateStockItem(ctx context.Context, id int, req *models.UpdateStockItemRequest) (*models.StockItem, error) {
	item, err := scanStockItem(db.Pool.QueryRow(ctx, `
		UPDATE stock_items
		SET name = COALESCE($2, name),
		    quantity = COALESCE($3, quantity),
		    price = COALESCE($4, price),
		    category = COALESCE($5, category),
		    minimum_stock = COALESCE($6, minimum_stock),
		    last_updated = NOW()
		WHERE id = $1
		RETURNING `+stockColumns+`
	`, id, req.Name, req.Quantity, req.Price, req.Category, req.MinimumStock))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// DeleteStockItem deletes a stock item by ID
func (db *DB) DeleteStockItem(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, `DELETE FROM stock_items WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrStockItemNotFound
	}

	return nil
}

// ListLowStock returns all items at or below their minimum stock level
func (db *DB) ListLowStock(ctx context.Context) ([]*models.StockItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items
		WHERE quantity <= minimum_stock
		ORDER BY quantity ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.StockItem
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

// GetStockStats returns aggregate statistics for the inventory
func (db *DB) GetStockStats(ctx context.Context) (*models.StockStats, error) {
	stats := &models.StockStats{}

	err := db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(quantity), 0),
			COUNT(*) FILTER (WHERE quantity <= minimum_stock),
			COUNT(DISTINCT category),
			COALESCE(SUM(quantity * price), 0)
		FROM stock_items
	`).Scan(
		&stats.TotalItems, &stats.TotalQuantity, &stats.LowStockCount,
		&stats.CategoryCount, &stats.TotalValue,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
