package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"github.com/kulkarnip/stockscan/internal/models"
	"github.com/kulkarnip/stockscan/internal/services"
)

// columnMap maps spreadsheet columns to stock item fields; -1 means absent
type columnMap struct {
	productIDCol int
	nameCol      int
	quantityCol  int
	priceCol     int
	categoryCol  int
	minStockCol  int
}

// importRow is a validated spreadsheet row awaiting persistence
type importRow struct {
	rowNum       int
	productID    string
	name         string
	quantity     int
	price        float64
	category     string
	minimumStock *int
}

// UploadSpreadsheet bulk-imports stock items from an XLSX or CSV file.
// The whole file is validated first; any invalid row rejects the import
// before a single item is written.
func (h *Handler) UploadSpreadsheet(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "spreadsheet file is required")
	}

	if file.Size > h.cfg.MaxUploadBytes {
		return Error(c, fiber.StatusBadRequest,
			fmt.Sprintf("file too large. Maximum size is %dMB", h.cfg.MaxUploadBytes/(1024*1024)))
	}

	src, err := file.Open()
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}
	defer src.Close()

	var rows [][]string
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".xlsx":
		rows, err = readXLSX(src)
	case ".csv":
		rows, err = csv.NewReader(src).ReadAll()
	default:
		return Error(c, fiber.StatusBadRequest, "unsupported file format. Supported: XLSX, CSV")
	}
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "failed to parse spreadsheet")
	}

	if len(rows) < 2 {
		return Error(c, fiber.StatusBadRequest, "spreadsheet contains no data rows")
	}

	cm := mapColumns(rows[0])
	if cm.nameCol < 0 || cm.quantityCol < 0 {
		return Error(c, fiber.StatusBadRequest, "spreadsheet must have 'name' and 'quantity' columns")
	}

	parsed, rowErrors := parseImportRows(rows[1:], cm)
	if len(rowErrors) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(APIResponse{
			Success: false,
			Error:   "spreadsheet contains invalid rows",
			Data:    models.ImportResult{Errors: rowErrors},
		})
	}
	if len(parsed) == 0 {
		return Error(c, fiber.StatusBadRequest, "spreadsheet contains no data rows")
	}

	classifier := services.NewCategoryClassifier(services.DefaultCategoryRules())
	idgen := services.NewProductIDGenerator(h.db)

	result := &models.ImportResult{}
	for _, row := range parsed {
		item := &models.StockItem{
			ProductID: row.productID,
			Name:      row.name,
			Quantity:  row.quantity,
			Price:     row.price,
			Category:  row.category,
		}
		if item.Category == "" {
			item.Category = classifier.Classify(row.name)
		}
		if row.minimumStock != nil {
			item.MinimumStock = *row.minimumStock
		} else {
			item.MinimumStock = int(math.Ceil(float64(row.quantity) * 0.2))
		}

		// Rows without an id column get a generated identifier and always
		// insert; rows carrying one upsert against the existing record
		if item.ProductID == "" {
			productID, err := idgen.Generate(c.Context(), row.name)
			if err != nil {
				return Error(c, fiber.StatusInternalServerError, "failed to generate product id")
			}
			item.ProductID = productID
		}

		_, inserted, err := h.db.UpsertStockItem(c.Context(), item)
		if err != nil {
			return Error(c, fiber.StatusInternalServerError,
				fmt.Sprintf("failed to import row %d (%s)", row.rowNum, row.name))
		}

		result.Processed++
		if inserted {
			result.Created++
		} else {
			result.Updated++
		}
	}

	result.Message = fmt.Sprintf("Successfully processed %d items.", result.Processed)
	return Success(c, result)
}

// parseImportRows validates every data row before anything is persisted
func parseImportRows(rows [][]string, cm columnMap) ([]importRow, []models.ImportRowError) {
	var parsed []importRow
	var rowErrors []models.ImportRowError

	for i, row := range rows {
		rowNum := i + 2 // 1-indexed, after the header

		if isEmptyRow(row) {
			continue
		}

		name := strings.TrimSpace(cell(row, cm.nameCol))
		if name == "" {
			rowErrors = append(rowErrors, models.ImportRowError{Row: rowNum, Message: "name is required"})
			continue
		}

		quantity, err := strconv.Atoi(strings.TrimSpace(cell(row, cm.quantityCol)))
		if err != nil || quantity < 0 {
			rowErrors = append(rowErrors, models.ImportRowError{Row: rowNum, Message: "quantity must be a non-negative integer"})
			continue
		}

		var price float64
		if raw := strings.TrimSpace(cell(row, cm.priceCol)); raw != "" {
			price, err = strconv.ParseFloat(strings.TrimPrefix(raw, "$"), 64)
			if err != nil || price < 0 {
				rowErrors = append(rowErrors, models.ImportRowError{Row: rowNum, Message: "price must be a non-negative number"})
				continue
			}
		}

		var minimumStock *int
		if raw := strings.TrimSpace(cell(row, cm.minStockCol)); raw != "" {
			ms, err := strconv.Atoi(raw)
			if err != nil || ms < 0 {
				rowErrors = append(rowErrors, models.ImportRowError{Row: rowNum, Message: "minimum_stock must be a non-negative integer"})
				continue
			}
			minimumStock = &ms
		}

		parsed = append(parsed, importRow{
			rowNum:       rowNum,
			productID:    strings.TrimSpace(cell(row, cm.productIDCol)),
			name:         name,
			quantity:     quantity,
			price:        price,
			category:     strings.TrimSpace(cell(row, cm.categoryCol)),
			minimumStock: minimumStock,
		})
	}

	return parsed, rowErrors
}

// readXLSX returns all rows of the first sheet
func readXLSX(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	return f.GetRows(sheets[0])
}

// mapColumns auto-detects stock fields from header names
func mapColumns(headers []string) columnMap {
	cm := columnMap{
		productIDCol: -1,
		nameCol:      -1,
		quantityCol:  -1,
		priceCol:     -1,
		categoryCol:  -1,
		minStockCol:  -1,
	}

	idKeywords := []string{"product_id", "product id", "sku"}
	nameKeywords := []string{"name", "product", "item"}
	quantityKeywords := []string{"quantity", "qty", "stock"}
	priceKeywords := []string{"price", "rate", "cost"}
	categoryKeywords := []string{"category", "type"}
	minStockKeywords := []string{"minimum_stock", "min_stock", "minimum"}

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))

		// id and minimum-stock headers would otherwise also match the
		// name and quantity keyword lists
		if cm.productIDCol < 0 && (h == "id" || containsAny(h, idKeywords)) {
			cm.productIDCol = i
			continue
		}
		if cm.minStockCol < 0 && containsAny(h, minStockKeywords) {
			cm.minStockCol = i
			continue
		}
		if cm.nameCol < 0 && containsAny(h, nameKeywords) {
			cm.nameCol = i
		}
		if cm.quantityCol < 0 && containsAny(h, quantityKeywords) {
			cm.quantityCol = i
		}
		if cm.priceCol < 0 && containsAny(h, priceKeywords) {
			cm.priceCol = i
		}
		if cm.categoryCol < 0 && containsAny(h, categoryKeywords) {
			cm.categoryCol = i
		}
	}

	return cm
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
