// Package raster captures rendered invoice documents as PNG bitmaps.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"

	"github.com/garyjia/billcraft/internal/invoice/render"
)

var (
	// ErrRenderContextUnavailable means no off-screen render context could be created
	ErrRenderContextUnavailable = errors.New("render context unavailable")
	// ErrRasterizationFailed means layout or capture of the document failed
	ErrRasterizationFailed = errors.New("rasterization failed")
)

// Bitmap is a captured document image
type Bitmap struct {
	PNG    []byte
	Width  int
	Height int
	// Scale is the device pixels per CSS pixel used for the capture
	Scale float64
}

// NewBitmap wraps PNG bytes, reading the dimensions from the image header
func NewBitmap(data []byte, scale float64) (*Bitmap, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode bitmap header: %w", err)
	}
	if format != "png" {
		return nil, fmt.Errorf("unexpected bitmap format %q", format)
	}
	return &Bitmap{PNG: data, Width: cfg.Width, Height: cfg.Height, Scale: scale}, nil
}

// Empty reports whether the bitmap has no pixels
func (b *Bitmap) Empty() bool {
	return b == nil || len(b.PNG) == 0 || b.Width <= 0 || b.Height <= 0
}

// Rasterizer renders document markup into a bitmap
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *render.Document) (*Bitmap, error)
}

// contentHeight clamps a measured height to something capturable
func contentHeight(measured, estimated int) int {
	if measured > 0 {
		return measured
	}
	if estimated > 0 {
		return estimated
	}
	return 1
}
