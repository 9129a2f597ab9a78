package handlers

import (
	"errors"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kulkarnip/stockscan/internal/database"
	"github.com/kulkarnip/stockscan/internal/models"
	"github.com/kulkarnip/stockscan/internal/services"
)

// ListStock returns a paginated list of stock items
func (h *Handler) ListStock(c *fiber.Ctx) error {
	params := &models.StockListParams{
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
		LowStock: c.QueryBool("low_stock", false),
	}

	if params.Limit < 1 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	items, total, err := h.db.ListStock(c.Context(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list stock items")
	}

	return SuccessWithMeta(c, items, total, params.Limit, params.Offset)
}

// GetStockItem returns a single stock item by ID
func (h *Handler) GetStockItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return Error(c, fiber.StatusBadRequest, "invalid stock item id")
	}

	item, err := h.db.GetStockItemByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrStockItemNotFound) {
			return Error(c, fiber.StatusNotFound, "stock item not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get stock item")
	}

	return Success(c, item)
}

// CreateStockItem creates a stock item from a manual entry
func (h *Handler) CreateStockItem(c *fiber.Ctx) error {
	var req models.CreateStockItemRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}
	if req.Quantity < 0 {
		return Error(c, fiber.StatusBadRequest, "quantity must not be negative")
	}
	if req.Price < 0 {
		return Error(c, fiber.StatusBadRequest, "price must not be negative")
	}

	item := &models.StockItem{
		ProductID: strings.TrimSpace(req.ProductID),
		Name:      req.Name,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Category:  strings.TrimSpace(req.Category),
	}

	classifier := services.NewCategoryClassifier(services.DefaultCategoryRules())
	if item.Category == "" {
		item.Category = classifier.Classify(req.Name)
	}

	if req.MinimumStock != nil {
		if *req.MinimumStock < 0 {
			return Error(c, fiber.StatusBadRequest, "minimum_stock must not be negative")
		}
		item.MinimumStock = *req.MinimumStock
	} else {
		item.MinimumStock = int(math.Ceil(float64(req.Quantity) * 0.2))
	}

	if item.ProductID == "" {
		idgen := services.NewProductIDGenerator(h.db)
		productID, err := idgen.Generate(c.Context(), req.Name)
		if err != nil {
			return Error(c, fiber.StatusInternalServerError, "failed to generate product id")
		}
		item.ProductID = productID
	}

	created, err := h.db.CreateStockItem(c.Context(), item)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateProductID) {
			return Error(c, fiber.StatusConflict, "product id already exists")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to create stock item")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    created,
	})
}

// UpdateStockItem applies a partial update to a stock item
func (h *Handler) UpdateStockItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return Error(c, fiber.StatusBadRequest, "invalid stock item id")
	}

	var req models.UpdateStockItemRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Quantity != nil && *req.Quantity < 0 {
		return Error(c, fiber.StatusBadRequest, "quantity must not be negative")
	}
	if req.Price != nil && *req.Price < 0 {
		return Error(c, fiber.StatusBadRequest, "price must not be negative")
	}
	if req.MinimumStock != nil && *req.MinimumStock < 0 {
		return Error(c, fiber.StatusBadRequest, "minimum_stock must not be negative")
	}

	item, err := h.db.UpdateStockItem(c.Context(), id, &req)
	if err != nil {
		if errors.Is(err, database.ErrStockItemNotFound) {
			return Error(c, fiber.StatusNotFound, "stock item not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update stock item")
	}

	return Success(c, item)
}

// DeleteStockItem removes a stock item
func (h *Handler) DeleteStockItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return Error(c, fiber.StatusBadRequest, "invalid stock item id")
	}

	if err := h.db.DeleteStockItem(c.Context(), id); err != nil {
		if errors.Is(err, database.ErrStockItemNotFound) {
			return Error(c, fiber.StatusNotFound, "stock item not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete stock item")
	}

	return Success(c, fiber.Map{
		"message": "stock item deleted",
	})
}

// GetLowStock returns all items at or below their minimum stock level
func (h *Handler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.db.ListLowStock(c.Context())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list low stock items")
	}

	return Success(c, items)
}

// GetStockStats returns aggregate inventory statistics
func (h *Handler) GetStockStats(c *fiber.Ctx) error {
	stats, err := h.db.GetStockStats(c.Context())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to compute stock statistics")
	}

	return Success(c, stats)
}
