package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/garyjia/billcraft/internal/application/port"
	"github.com/garyjia/billcraft/internal/domain/entity"
	"github.com/garyjia/billcraft/internal/invoice/pdf"
	"github.com/garyjia/billcraft/internal/invoice/raster"
	"github.com/garyjia/billcraft/internal/invoice/render"
)

const (
	// PDFContentType is the MIME type of generated documents
	PDFContentType = "application/pdf"
	// WorkbookContentType is the MIME type of XLSX exports
	WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultTimeout       = 60 * time.Second
	defaultMaxConcurrent = 2
	defaultCreator       = "billcraft"
)

// ExportRequest identifies an invoice on behalf of its owner
type ExportRequest struct {
	OwnerID   string
	InvoiceID string
}

// PDFDocument is a finished, downloadable invoice PDF
type PDFDocument struct {
	Bytes         []byte
	Pages         int
	Filename      string
	ContentType   string
	InvoiceNumber string
	RequestID     string
	// Defaults lists the fields rendered with a substituted value
	Defaults       []render.Default
	TotalsMismatch bool
}

// Workbook is a finished XLSX export
type Workbook struct {
	Bytes       []byte
	Filename    string
	ContentType string
}

// Paginator lays a captured bitmap out over PDF pages
type Paginator interface {
	Paginate(bmp *raster.Bitmap, meta pdf.Metadata) (*pdf.Result, error)
}

// WorkbookBuilder writes an invoice into an XLSX workbook
type WorkbookBuilder interface {
	Build(bundle entity.InvoiceBundle) ([]byte, error)
}

// PagePreviewer renders one page of a PDF to PNG
type PagePreviewer interface {
	RenderPage(data []byte, page int, dpi float64) ([]byte, error)
}

// ExportDeps are the collaborators of the export service
type ExportDeps struct {
	Source     port.InvoiceSource
	Renderer   render.Renderer
	Rasterizer raster.Rasterizer
	Paginator  Paginator
	Workbooks  WorkbookBuilder
	Previewer  PagePreviewer
}

// ExportConfig bounds PDF generation
type ExportConfig struct {
	// Timeout caps one generation, fetch excluded
	Timeout time.Duration
	// MaxConcurrent is the number of captures allowed at once
	MaxConcurrent int64
	// Creator is written into the PDF info dictionary
	Creator string
	// PreviewDPI is the resolution of page previews
	PreviewDPI float64
}

// ExportService turns stored invoices into PDF and other export formats
type ExportService interface {
	ExportPDF(ctx context.Context, req ExportRequest) (*PDFDocument, error)
	ExportBundle(ctx context.Context, bundle entity.InvoiceBundle) (*PDFDocument, error)
	RenderHTML(ctx context.Context, req ExportRequest) (*render.Document, error)
	ExportWorkbook(ctx context.Context, req ExportRequest) (*Workbook, error)
	Preview(ctx context.Context, req ExportRequest, page int) ([]byte, error)
}

type exportServiceImpl struct {
	deps    ExportDeps
	cfg     ExportConfig
	capture *semaphore.Weighted
	logger  Logger
	now     func() time.Time
}

// NewExportService creates a new ExportService
func NewExportService(deps ExportDeps, cfg ExportConfig, logger Logger) ExportService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.Creator == "" {
		cfg.Creator = defaultCreator
	}
	return &exportServiceImpl{
		deps:    deps,
		cfg:     cfg,
		capture: semaphore.NewWeighted(cfg.MaxConcurrent),
		logger:  logger,
		now:     time.Now,
	}
}

// ExportPDF fetches an invoice and generates its PDF
func (s *exportServiceImpl) ExportPDF(ctx context.Context, req ExportRequest) (*PDFDocument, error) {
	bundle, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.ExportBundle(ctx, *bundle)
}

// ExportBundle generates the PDF for an already loaded invoice
func (s *exportServiceImpl) ExportBundle(ctx context.Context, bundle entity.InvoiceBundle) (*PDFDocument, error) {
	requestID := uuid.NewString()
	inv := bundle.Invoice
	started := s.now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.logger.Info("Generating invoice PDF",
		"request_id", requestID,
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"items", len(inv.Items))

	doc, err := s.render(requestID, bundle)
	if err != nil {
		return nil, err
	}

	bmp, err := s.rasterize(ctx, requestID, doc)
	if err != nil {
		return nil, err
	}

	meta := pdf.Metadata{
		Title:     "Invoice " + inv.InvoiceNumber,
		Author:    businessName(bundle.Profile),
		Subject:   inv.InvoiceNumber,
		Creator:   s.cfg.Creator,
		CreatedAt: inv.CreatedAt,
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = started
	}

	result, err := s.deps.Paginator.Paginate(bmp, meta)
	if err != nil {
		s.logger.Error("Failed to paginate invoice", "request_id", requestID, "error", err)
		return nil, generationFailed(StagePaginate, err)
	}

	s.logger.Info("Invoice PDF generated",
		"request_id", requestID,
		"invoice_number", inv.InvoiceNumber,
		"pages", result.Pages,
		"size_bytes", len(result.Bytes),
		"duration_ms", s.now().Sub(started).Milliseconds())

	return &PDFDocument{
		Bytes:          result.Bytes,
		Pages:          result.Pages,
		Filename:       inv.PDFFilename(),
		ContentType:    PDFContentType,
		InvoiceNumber:  inv.InvoiceNumber,
		RequestID:      requestID,
		Defaults:       doc.Defaults,
		TotalsMismatch: doc.TotalsMismatch,
	}, nil
}

// RenderHTML fetches an invoice and returns the markup that would be captured
func (s *exportServiceImpl) RenderHTML(ctx context.Context, req ExportRequest) (*render.Document, error) {
	bundle, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.render(uuid.NewString(), *bundle)
}

// ExportWorkbook fetches an invoice and writes it as an XLSX workbook
func (s *exportServiceImpl) ExportWorkbook(ctx context.Context, req ExportRequest) (*Workbook, error) {
	if s.deps.Workbooks == nil {
		return nil, errors.New("workbook export is not configured")
	}
	bundle, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := s.deps.Workbooks.Build(*bundle)
	if err != nil {
		s.logger.Error("Failed to build workbook", "invoice_id", req.InvoiceID, "error", err)
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}

	return &Workbook{
		Bytes:       data,
		Filename:    bundle.Invoice.WorkbookFilename(),
		ContentType: WorkbookContentType,
	}, nil
}

// Preview generates the PDF and renders one of its pages to PNG
func (s *exportServiceImpl) Preview(ctx context.Context, req ExportRequest, page int) ([]byte, error) {
	if s.deps.Previewer == nil {
		return nil, errors.New("page preview is not configured")
	}
	doc, err := s.ExportPDF(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.deps.Previewer.RenderPage(doc.Bytes, page, s.cfg.PreviewDPI)
}

func (s *exportServiceImpl) fetch(ctx context.Context, req ExportRequest) (*entity.InvoiceBundle, error) {
	if s.deps.Source == nil {
		return nil, errors.New("invoice source is not configured")
	}
	bundle, err := s.deps.Source.GetInvoiceBundle(ctx, req.OwnerID, req.InvoiceID)
	if err != nil {
		if errors.Is(err, port.ErrInvoiceNotFound) {
			s.logger.Info("Invoice not found", "invoice_id", req.InvoiceID, "owner_id", req.OwnerID)
		} else {
			s.logger.Error("Failed to load invoice", "invoice_id", req.InvoiceID, "error", err)
		}
		return nil, err
	}
	return bundle, nil
}

func (s *exportServiceImpl) render(requestID string, bundle entity.InvoiceBundle) (*render.Document, error) {
	doc, err := s.deps.Renderer.Render(bundle)
	if err != nil {
		s.logger.Error("Failed to render invoice", "request_id", requestID, "error", err)
		return nil, generationFailed(StageRender, err)
	}

	for _, d := range doc.Defaults {
		s.logger.Warn("Invoice field missing, default used",
			"request_id", requestID,
			"field", d.Field,
			"default", d.Value)
	}
	if doc.TotalsMismatch {
		inv := bundle.Invoice
		s.logger.Warn("Invoice total differs from subtotal + tax - discount",
			"request_id", requestID,
			"invoice_number", inv.InvoiceNumber,
			"stored_total", inv.TotalAmount.Decimal.String(),
			"computed_total", inv.ComputedTotal().String())
	}
	return doc, nil
}

func (s *exportServiceImpl) rasterize(ctx context.Context, requestID string, doc *render.Document) (*raster.Bitmap, error) {
	if err := s.capture.Acquire(ctx, 1); err != nil {
		s.logger.Error("Gave up waiting for a capture slot", "request_id", requestID, "error", err)
		return nil, generationFailed(StageRasterize, err)
	}
	defer s.capture.Release(1)

	bmp, err := s.deps.Rasterizer.Rasterize(ctx, doc)
	if err != nil {
		s.logger.Error("Failed to rasterize invoice", "request_id", requestID, "error", err)
		return nil, generationFailed(StageRasterize, err)
	}
	return bmp, nil
}

func businessName(p *entity.BusinessProfile) string {
	if p == nil {
		return ""
	}
	return p.BusinessName
}
