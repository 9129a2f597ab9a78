package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulkarnip/stockscan/internal/config"
)

func newBillTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := &config.Config{MaxUploadBytes: 1024}
	h := NewBillHandler(nil, cfg, nil, nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/api/bills/process", h.ProcessBill)
	app.Post("/api/bills/invoice", h.ProcessInvoice)
	app.Get("/api/bills/archive", h.GetArchivedImage)
	app.Delete("/api/bills/archive", h.DeleteArchivedImage)
	return app
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename, contentType string, fileBytes []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileField != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, filename))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(fileBytes)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func postMultipart(t *testing.T, app *fiber.App, path string, body *bytes.Buffer, contentType string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(payload)
}

func TestProcessBill_MissingFileAborts(t *testing.T) {
	app := newBillTestApp(t)

	// No file part at all: the request must stop at validation with a 400,
	// not continue into archiving or text extraction
	body, contentType := multipartBody(t, map[string]string{"operation": "reduce"}, "", "", "", nil)
	status, payload := postMultipart(t, app, "/api/bills/process", body, contentType)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, payload, "bill image file is required")
}

func TestProcessBill_InvalidOperation(t *testing.T) {
	app := newBillTestApp(t)

	body, contentType := multipartBody(t, map[string]string{"operation": "destroy"}, "", "", "", nil)
	status, payload := postMultipart(t, app, "/api/bills/process", body, contentType)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, payload, "operation must be 'reduce' or 'add'")
}

func TestProcessBill_InvalidImageType(t *testing.T) {
	app := newBillTestApp(t)

	body, contentType := multipartBody(t,
		map[string]string{"operation": "reduce"},
		"bill", "bill.txt", "text/plain", []byte("not an image"))
	status, payload := postMultipart(t, app, "/api/bills/process", body, contentType)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, payload, "invalid image type")
}

func TestProcessBill_FileTooLarge(t *testing.T) {
	app := newBillTestApp(t)

	// newBillTestApp caps uploads at 1KB
	body, contentType := multipartBody(t,
		map[string]string{"operation": "reduce"},
		"bill", "bill.jpg", "image/jpeg", bytes.Repeat([]byte{0xff}, 2048))
	status, payload := postMultipart(t, app, "/api/bills/process", body, contentType)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, payload, "file too large")
}

func TestProcessInvoice_MissingFileAborts(t *testing.T) {
	app := newBillTestApp(t)

	body, contentType := multipartBody(t, nil, "", "", "", nil)
	status, payload := postMultipart(t, app, "/api/bills/invoice", body, contentType)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, payload, "invoice image file is required")
}

func TestArchiveRoutes_StorageDisabled(t *testing.T) {
	app := newBillTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/archive?key=bills/1.jpg", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "image archive is not configured")
}

func TestIsArchiveKey(t *testing.T) {
	assert.True(t, isArchiveKey("bills/1712345.jpg"))
	assert.True(t, isArchiveKey("invoices/1712345.png"))
	assert.False(t, isArchiveKey(""))
	assert.False(t, isArchiveKey("secrets/key"))
	assert.False(t, isArchiveKey("bills/../users"))
}
