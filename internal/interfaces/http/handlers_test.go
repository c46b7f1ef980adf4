package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billcraft/internal/application/port"
	"github.com/garyjia/billcraft/internal/application/service"
	"github.com/garyjia/billcraft/internal/container"
	"github.com/garyjia/billcraft/internal/domain/entity"
	"github.com/garyjia/billcraft/internal/invoice/inspect"
	"github.com/garyjia/billcraft/internal/invoice/render"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type mockExportService struct {
	mock.Mock
}

func (m *mockExportService) ExportPDF(ctx context.Context, req service.ExportRequest) (*service.PDFDocument, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PDFDocument), args.Error(1)
}

func (m *mockExportService) ExportBundle(ctx context.Context, bundle entity.InvoiceBundle) (*service.PDFDocument, error) {
	args := m.Called(ctx, bundle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PDFDocument), args.Error(1)
}

func (m *mockExportService) RenderHTML(ctx context.Context, req service.ExportRequest) (*render.Document, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*render.Document), args.Error(1)
}

func (m *mockExportService) ExportWorkbook(ctx context.Context, req service.ExportRequest) (*service.Workbook, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Workbook), args.Error(1)
}

func (m *mockExportService) Preview(ctx context.Context, req service.ExportRequest, page int) ([]byte, error) {
	args := m.Called(ctx, req, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func setupServer(t *testing.T) (*Server, *mockExportService) {
	t.Helper()
	svc := new(mockExportService)
	srv := NewServer(DefaultServerConfig(), svc, nil, nopLogger{})
	gin.SetMode(gin.TestMode)
	return srv, svc
}

func doGet(srv *Server, path, owner string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var invoiceReq = service.ExportRequest{OwnerID: "owner-1", InvoiceID: "inv-7"}

type stubHealth struct {
	ready  bool
	status *container.HealthStatus
}

func (s stubHealth) Ready() bool {
	return s.ready
}

func (s stubHealth) Health() *container.HealthStatus {
	return s.status
}

func TestHealthCheck(t *testing.T) {
	t.Run("liveness only without a checker", func(t *testing.T) {
		srv, _ := setupServer(t)

		w := doGet(srv, "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode(t, w).Success)
	})

	t.Run("reports components", func(t *testing.T) {
		checker := stubHealth{ready: true, status: &container.HealthStatus{
			Overall: true,
			Components: map[string]container.ComponentHealth{
				"database": {Healthy: true},
				"pipeline": {Healthy: true},
			},
		}}
		srv := NewServer(DefaultServerConfig(), new(mockExportService), checker, nopLogger{})

		w := doGet(srv, "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":{"healthy":true}`)
	})

	t.Run("unreachable database is unavailable", func(t *testing.T) {
		checker := stubHealth{ready: true, status: &container.HealthStatus{
			Overall: false,
			Components: map[string]container.ComponentHealth{
				"database": {Healthy: false, Message: "ping failed: closed"},
				"pipeline": {Healthy: true},
			},
		}}
		srv := NewServer(DefaultServerConfig(), new(mockExportService), checker, nopLogger{})

		w := doGet(srv, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.False(t, decode(t, w).Success)
		assert.Contains(t, w.Body.String(), "ping failed: closed")
		assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
	})

	t.Run("not ready is unavailable", func(t *testing.T) {
		checker := stubHealth{ready: false, status: &container.HealthStatus{Overall: true}}
		srv := NewServer(DefaultServerConfig(), new(mockExportService), checker, nopLogger{})

		w := doGet(srv, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestDownloadPDF(t *testing.T) {
	t.Run("streams the document as an attachment", func(t *testing.T) {
		srv, svc := setupServer(t)
		svc.On("ExportPDF", mock.Anything, invoiceReq).Return(&service.PDFDocument{
			Bytes:       []byte("%PDF-1.3 test"),
			Pages:       2,
			Filename:    "INV-2024-0007.pdf",
			ContentType: service.PDFContentType,
			RequestID:   "req-1",
		}, nil)

		w := doGet(srv, "/api/invoices/inv-7/pdf", "owner-1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=INV-2024-0007.pdf`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "2", w.Header().Get("X-Page-Count"))
		assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "%PDF-1.3 test", w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("missing owner is unauthorized", func(t *testing.T) {
		srv, svc := setupServer(t)

		w := doGet(srv, "/api/invoices/inv-7/pdf", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "ExportPDF", mock.Anything, mock.Anything)
	})

	t.Run("unknown invoice is not found", func(t *testing.T) {
		srv, svc := setupServer(t)
		svc.On("ExportPDF", mock.Anything, invoiceReq).Return(nil, port.ErrInvoiceNotFound)

		w := doGet(srv, "/api/invoices/inv-7/pdf", "owner-1")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, msgNotFound, decode(t, w).Error)
	})

	t.Run("generation failure hides the cause", func(t *testing.T) {
		srv, svc := setupServer(t)
		cause := &service.GenerationError{Stage: service.StageRasterize, Err: errors.New("chromium crashed")}
		svc.On("ExportPDF", mock.Anything, invoiceReq).Return(nil, cause)

		w := doGet(srv, "/api/invoices/inv-7/pdf", "owner-1")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Failed to generate PDF"}`, w.Body.String())
	})

	t.Run("data access failure is an internal error", func(t *testing.T) {
		srv, svc := setupServer(t)
		svc.On("ExportPDF", mock.Anything, invoiceReq).Return(nil, fmt.Errorf("failed to get invoice: %w", errors.New("db down")))

		w := doGet(srv, "/api/invoices/inv-7/pdf", "owner-1")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, msgInternal, decode(t, w).Error)
	})
}

func TestDownloadPage(t *testing.T) {
	srv, svc := setupServer(t)

	w := doGet(srv, "/api/invoices/inv-7/download", "owner-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	body := w.Body.String()
	assert.Contains(t, body, "Download Failed")
	assert.Contains(t, body, `id="retry"`)
	assert.Contains(t, body, `fetch('pdf'`)
	assert.Contains(t, body, `"inv-7"`)
	svc.AssertNotCalled(t, "ExportPDF", mock.Anything, mock.Anything)
}

func TestDownloadPage_EscapesInvoiceID(t *testing.T) {
	srv, _ := setupServer(t)

	w := doGet(srv, "/api/invoices/a%22b%3C/download", "owner-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `a"b<`)
}

func TestInvoiceHTML(t *testing.T) {
	srv, svc := setupServer(t)
	svc.On("RenderHTML", mock.Anything, invoiceReq).Return(&render.Document{HTML: "<html>INV-2024-0007</html>"}, nil)

	w := doGet(srv, "/api/invoices/inv-7/html", "owner-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>INV-2024-0007</html>", w.Body.String())
}

func TestPreviewPage(t *testing.T) {
	t.Run("defaults to the first page", func(t *testing.T) {
		srv, svc := setupServer(t)
		svc.On("Preview", mock.Anything, invoiceReq, 1).Return([]byte("png"), nil)

		w := doGet(srv, "/api/invoices/inv-7/preview", "owner-1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	})

	t.Run("rejects a bad page number", func(t *testing.T) {
		srv, _ := setupServer(t)

		w := doGet(srv, "/api/invoices/inv-7/preview?page=zero", "owner-1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("page past the end is not found", func(t *testing.T) {
		srv, svc := setupServer(t)
		svc.On("Preview", mock.Anything, invoiceReq, 3).Return(nil, fmt.Errorf("%w: page 3 of 1", inspect.ErrPageOutOfRange))

		w := doGet(srv, "/api/invoices/inv-7/preview?page=3", "owner-1")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDownloadWorkbook(t *testing.T) {
	srv, svc := setupServer(t)
	svc.On("ExportWorkbook", mock.Anything, invoiceReq).Return(&service.Workbook{
		Bytes:       []byte("PK"),
		Filename:    "INV-2024-0007.xlsx",
		ContentType: service.WorkbookContentType,
	}, nil)

	w := doGet(srv, "/api/invoices/inv-7/xlsx", "owner-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.WorkbookContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "INV-2024-0007.xlsx")
}
