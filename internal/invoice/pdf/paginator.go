package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/garyjia/billcraft/internal/invoice/raster"
)

var (
	// ErrEmptyBitmap is returned for a missing or zero-size capture
	ErrEmptyBitmap = errors.New("bitmap is empty")
	// ErrMalformedBitmap is returned when the capture cannot be embedded
	ErrMalformedBitmap = errors.New("bitmap is malformed")
)

const imageName = "invoice"

// Metadata is written into the PDF info dictionary
type Metadata struct {
	Title   string
	Author  string
	Subject string
	Creator string
	// CreatedAt fixes the creation and modification dates. Zero uses the current time.
	CreatedAt time.Time
}

// Result is a finished PDF
type Result struct {
	Bytes  []byte
	Pages  int
	Layout Layout
}

// Paginator lays a bitmap out over PDF pages
type Paginator struct {
	cfg Config
}

// NewPaginator creates a Paginator after validating cfg
func NewPaginator(cfg Config) (*Paginator, error) {
	if cfg.Fit == "" {
		cfg.Fit = FitWidth
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Paginator{cfg: cfg}, nil
}

// Config returns the page geometry in use
func (p *Paginator) Config() Config {
	return p.cfg
}

// Paginate embeds the bitmap once and places it on every page of its layout
func (p *Paginator) Paginate(bmp *raster.Bitmap, meta Metadata) (*Result, error) {
	if bmp.Empty() {
		return nil, ErrEmptyBitmap
	}

	layout, err := ComputeLayout(p.cfg, bmp.Width, bmp.Height)
	if err != nil {
		return nil, err
	}

	doc := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: p.cfg.Page.Width, Ht: p.cfg.Page.Height},
	})
	doc.SetMargins(p.cfg.Margins.Left, p.cfg.Margins.Top, p.cfg.Margins.Right)
	doc.SetAutoPageBreak(false, p.cfg.Margins.Bottom)
	doc.SetCompression(p.cfg.Compress)
	doc.SetCatalogSort(true)
	applyMetadata(doc, meta)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	info := doc.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(bmp.PNG))
	if info == nil || doc.Err() {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBitmap, doc.Error())
	}

	for _, y := range layout.Positions {
		doc.AddPage()
		if p.cfg.ClipToMargins {
			doc.ClipRect(p.cfg.Margins.Left, p.cfg.Margins.Top, p.cfg.PrintableWidth(), p.cfg.PrintableHeight(), false)
		}
		doc.ImageOptions(imageName, layout.XOffset, y, layout.ScaledWidth, layout.ScaledHeight, false, opts, 0, "")
		if p.cfg.ClipToMargins {
			doc.ClipEnd()
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBitmap, err)
	}

	return &Result{Bytes: buf.Bytes(), Pages: doc.PageCount(), Layout: layout}, nil
}

func applyMetadata(doc *gofpdf.Fpdf, meta Metadata) {
	if meta.Title != "" {
		doc.SetTitle(meta.Title, true)
	}
	if meta.Author != "" {
		doc.SetAuthor(meta.Author, true)
	}
	if meta.Subject != "" {
		doc.SetSubject(meta.Subject, true)
	}
	if meta.Creator != "" {
		doc.SetCreator(meta.Creator, true)
		doc.SetProducer(meta.Creator, true)
	}
	if !meta.CreatedAt.IsZero() {
		doc.SetCreationDate(meta.CreatedAt)
		doc.SetModificationDate(meta.CreatedAt)
	}
}
