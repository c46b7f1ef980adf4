package http

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/billcraft/internal/application/port"
	"github.com/garyjia/billcraft/internal/application/service"
	"github.com/garyjia/billcraft/internal/container"
	"github.com/garyjia/billcraft/internal/invoice/inspect"
)

const ownerKey = "owner_id"

// Error messages returned to clients
const (
	msgGenerationFailed = "Failed to generate PDF"
	msgNotFound         = "Invoice not found"
	msgInternal         = "Internal server error"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	exportService service.ExportService
	health        HealthChecker
	version       string
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(exportService service.ExportService, health HealthChecker, version string, logger Logger) *Handlers {
	return &Handlers{
		exportService: exportService,
		health:        health,
		version:       version,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                               `json:"status"`
	Timestamp  string                               `json:"timestamp"`
	Version    string                               `json:"version"`
	Components map[string]container.ComponentHealth `json:"components,omitempty"`
}

// HealthCheck handles GET /health. It answers 503 until every component
// is initialized and reachable.
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	}
	healthy := true
	if h.health != nil {
		status := h.health.Health()
		resp.Components = status.Components
		healthy = h.health.Ready() && status.Overall
	}
	if !healthy {
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: resp})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// DownloadPDF handles GET /api/invoices/:id/pdf
func (h *Handlers) DownloadPDF(c *gin.Context) {
	req := exportRequest(c)

	doc, err := h.exportService.ExportPDF(c.Request.Context(), req)
	if err != nil {
		h.fail(c, req, err)
		return
	}

	c.Header("Content-Disposition", attachment(doc.Filename))
	c.Header("X-Request-ID", doc.RequestID)
	c.Header("X-Page-Count", strconv.Itoa(doc.Pages))
	c.Data(http.StatusOK, doc.ContentType, doc.Bytes)
}

// DownloadPage handles GET /api/invoices/:id/download.
// The page fetches the PDF itself so a failure can be shown with a retry.
func (h *Handlers) DownloadPage(c *gin.Context) {
	id := c.Param("id")

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	var buf bytes.Buffer
	if err := downloadPage.Execute(&buf, downloadView{InvoiceID: id}); err != nil {
		h.logger.Error("Failed to render download page", "invoice_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: msgInternal})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// InvoiceHTML handles GET /api/invoices/:id/html
func (h *Handlers) InvoiceHTML(c *gin.Context) {
	req := exportRequest(c)

	doc, err := h.exportService.RenderHTML(c.Request.Context(), req)
	if err != nil {
		h.fail(c, req, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}

// PreviewPage handles GET /api/invoices/:id/preview?page=N
func (h *Handlers) PreviewPage(c *gin.Context) {
	req := exportRequest(c)

	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid page number"})
			return
		}
		page = n
	}

	png, err := h.exportService.Preview(c.Request.Context(), req, page)
	if errors.Is(err, inspect.ErrPageOutOfRange) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "page out of range"})
		return
	}
	if err != nil {
		h.fail(c, req, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// DownloadWorkbook handles GET /api/invoices/:id/xlsx
func (h *Handlers) DownloadWorkbook(c *gin.Context) {
	req := exportRequest(c)

	wb, err := h.exportService.ExportWorkbook(c.Request.Context(), req)
	if err != nil {
		h.fail(c, req, err)
		return
	}

	c.Header("Content-Disposition", attachment(wb.Filename))
	c.Data(http.StatusOK, wb.ContentType, wb.Bytes)
}

// fail maps service errors onto status codes. Details stay in the log.
func (h *Handlers) fail(c *gin.Context, req service.ExportRequest, err error) {
	switch {
	case errors.Is(err, port.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: msgNotFound})
	case errors.Is(err, service.ErrGenerationFailed):
		h.logger.Error("PDF generation failed", "invoice_id", req.InvoiceID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: msgGenerationFailed})
	default:
		h.logger.Error("Request failed", "invoice_id", req.InvoiceID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: msgInternal})
	}
}

func exportRequest(c *gin.Context) service.ExportRequest {
	return service.ExportRequest{
		OwnerID:   c.GetString(ownerKey),
		InvoiceID: c.Param("id"),
	}
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}
