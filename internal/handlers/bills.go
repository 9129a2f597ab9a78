package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kulkarnip/stockscan/internal/config"
	"github.com/kulkarnip/stockscan/internal/database"
	"github.com/kulkarnip/stockscan/internal/middleware"
	"github.com/kulkarnip/stockscan/internal/models"
	"github.com/kulkarnip/stockscan/internal/services"
)

// archiveURLExpiry bounds how long a presigned archive download stays valid
const archiveURLExpiry = 15 * time.Minute

// BillHandler processes scanned bill and invoice images: OCR, line parsing
// and stock reconciliation
type BillHandler struct {
	db         *database.DB
	cfg        *config.Config
	storage    *services.StorageService
	ocr        *services.OCRService
	reconciler *services.Reconciler
}

// NewBillHandler creates a new bill handler. storage may be nil when image
// archiving is disabled.
func NewBillHandler(
	db *database.DB,
	cfg *config.Config,
	storage *services.StorageService,
	ocr *services.OCRService,
) *BillHandler {
	return &BillHandler{
		db:         db,
		cfg:        cfg,
		storage:    storage,
		ocr:        ocr,
		reconciler: services.NewReconciler(db),
	}
}

// ProcessBill handles a bill image upload: extracts text, matches lines
// against existing stock and applies the requested quantity operation
func (h *BillHandler) ProcessBill(c *fiber.Ctx) error {
	op := models.Operation(strings.ToLower(strings.TrimSpace(c.FormValue("operation"))))
	if !op.IsValid() {
		return Error(c, fiber.StatusBadRequest, "operation must be 'reduce' or 'add'")
	}

	imageBytes, contentType, err := h.readImage(c, "bill")
	if err != nil {
		return err
	}

	h.archiveImage(c, "bills", imageBytes, contentType)

	text, err := h.extractText(imageBytes)
	if err != nil {
		return err
	}

	result, err := h.reconciler.ProcessBill(c.Context(), text, op)
	if err != nil {
		var emptyErr *services.EmptyBatchError
		if errors.As(err, &emptyErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   emptyErr.Error(),
				"text":    emptyErr.Text,
			})
		}
		return Error(c, fiber.StatusInternalServerError, "failed to process bill")
	}

	log.Printf("Bill processed by %s: %d updates, %d alerts",
		middleware.GetUserEmail(c), len(result.Updates), len(result.Alerts))

	return Success(c, result)
}

// ProcessInvoice handles a supplier invoice image upload: replenishes
// existing items and creates unknown ones
func (h *BillHandler) ProcessInvoice(c *fiber.Ctx) error {
	imageBytes, contentType, err := h.readImage(c, "invoice")
	if err != nil {
		return err
	}

	h.archiveImage(c, "invoices", imageBytes, contentType)

	text, err := h.extractText(imageBytes)
	if err != nil {
		return err
	}

	result, err := h.reconciler.ProcessInvoice(c.Context(), text)
	if err != nil {
		var emptyErr *services.EmptyBatchError
		if errors.As(err, &emptyErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   emptyErr.Error(),
				"text":    emptyErr.Text,
			})
		}
		return Error(c, fiber.StatusInternalServerError, "failed to process invoice")
	}

	log.Printf("Invoice processed by %s: %d updates, %d new items, %d errors",
		middleware.GetUserEmail(c), len(result.Updates), len(result.NewItems), len(result.Errors))

	return Success(c, result)
}

// GetArchivedImage returns a short-lived download URL for an archived
// document image
func (h *BillHandler) GetArchivedImage(c *fiber.Ctx) error {
	if h.storage == nil {
		return Error(c, fiber.StatusNotFound, "image archive is not configured")
	}

	key := c.Query("key")
	if !isArchiveKey(key) {
		return Error(c, fiber.StatusBadRequest, "invalid archive key")
	}

	url, err := h.storage.GetPresignedURL(c.Context(), key, archiveURLExpiry)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to generate download URL")
	}

	return Success(c, fiber.Map{
		"key":        key,
		"url":        url,
		"expires_in": int(archiveURLExpiry.Seconds()),
	})
}

// DeleteArchivedImage removes an archived document image. Admin only.
func (h *BillHandler) DeleteArchivedImage(c *fiber.Ctx) error {
	if h.storage == nil {
		return Error(c, fiber.StatusNotFound, "image archive is not configured")
	}

	if middleware.GetUserRole(c) != models.RoleAdmin {
		return Error(c, fiber.StatusForbidden, "admin access required")
	}

	key := c.Query("key")
	if !isArchiveKey(key) {
		return Error(c, fiber.StatusBadRequest, "invalid archive key")
	}

	if err := h.storage.Delete(c.Context(), key); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to delete archived image")
	}

	return Success(c, fiber.Map{
		"message": "archived image deleted",
	})
}

// isArchiveKey accepts only keys under the prefixes this service writes
func isArchiveKey(key string) bool {
	if strings.Contains(key, "..") {
		return false
	}
	return strings.HasPrefix(key, "bills/") || strings.HasPrefix(key, "invoices/")
}

// readImage validates and loads the uploaded image from the named form
// field. Failures are returned as *fiber.Error values so the caller aborts
// before any archiving or OCR happens; the error handler writes the response.
func (h *BillHandler) readImage(c *fiber.Ctx, field string) ([]byte, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s image file is required", field))
	}

	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "invalid image type. Supported: JPEG, PNG, WebP")
	}

	if file.Size > h.cfg.MaxUploadBytes {
		return nil, "", fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("file too large. Maximum size is %dMB", h.cfg.MaxUploadBytes/(1024*1024)))
	}

	imageBytes, err := readMultipartFile(file)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusInternalServerError, "failed to read file")
	}

	return imageBytes, contentType, nil
}

// extractText runs OCR and rejects images from which no text was recognized
func (h *BillHandler) extractText(imageBytes []byte) (string, error) {
	ocrResult, err := h.ocr.ProcessImage(imageBytes)
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "OCR processing failed")
	}

	text := strings.TrimSpace(ocrResult.Text)
	if text == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "could not extract text from image")
	}

	return text, nil
}

// archiveImage stores the original upload for audit purposes. Failures are
// logged and never fail the request.
func (h *BillHandler) archiveImage(c *fiber.Ctx, prefix string, imageBytes []byte, contentType string) {
	if h.storage == nil {
		return
	}

	key := archiveKey(prefix, contentType)
	if _, err := h.storage.Upload(c.Context(), key, bytes.NewReader(imageBytes), int64(len(imageBytes)), contentType); err != nil {
		log.Printf("Warning: failed to archive %s image to %s: %v", prefix, key, err)
	}
}

func archiveKey(prefix, contentType string) string {
	ext := ".jpg"
	switch strings.ToLower(contentType) {
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	}
	return fmt.Sprintf("%s/%d%s", prefix, time.Now().UnixNano(), ext)
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}

func isValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/webp",
	}

	for _, t := range validTypes {
		if strings.EqualFold(contentType, t) {
			return true
		}
	}
	return false
}
