// Package inspect reads generated invoice PDFs back with MuPDF.
package inspect

import (
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// DefaultDPI is the resolution used for page previews
const DefaultDPI = 96

var (
	// ErrNotPDF is returned when the bytes cannot be opened as a PDF
	ErrNotPDF = errors.New("document is not a readable PDF")
	// ErrPageOutOfRange is returned for a page number the document does not have
	ErrPageOutOfRange = errors.New("page out of range")
)

// Info describes a PDF document
type Info struct {
	Pages    int
	Metadata map[string]string
}

// Reader opens PDF bytes and renders pages to PNG
type Reader struct {
	logger *zap.Logger
}

// NewReader creates a Reader
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{logger: logger}
}

// Inspect returns the page count and info dictionary of a PDF
func (r *Reader) Inspect(data []byte) (*Info, error) {
	doc, err := open(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	return &Info{Pages: doc.NumPage(), Metadata: doc.Metadata()}, nil
}

// PageCount returns the number of pages in a PDF
func (r *Reader) PageCount(data []byte) (int, error) {
	info, err := r.Inspect(data)
	if err != nil {
		return 0, err
	}
	return info.Pages, nil
}

// RenderPage rasterizes one page (1-based) to PNG at the given DPI
func (r *Reader) RenderPage(data []byte, page int, dpi float64) ([]byte, error) {
	doc, err := open(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	total := doc.NumPage()
	if page < 1 || page > total {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, total)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	png, err := doc.ImagePNG(page-1, dpi)
	if err != nil {
		r.logger.Warn("Failed to render page preview",
			zap.Int("page", page),
			zap.Error(err))
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}

	r.logger.Debug("Rendered page preview",
		zap.Int("page", page),
		zap.Int("total_pages", total),
		zap.Int("size_bytes", len(png)))
	return png, nil
}

func open(data []byte) (*fitz.Document, error) {
	if len(data) == 0 {
		return nil, ErrNotPDF
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return doc, nil
}
