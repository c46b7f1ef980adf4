// Package pdf places a captured invoice bitmap onto fixed-size PDF pages.
package pdf

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// pageEpsilon absorbs float noise so content of exactly one printable
// height does not spill a blank page
const pageEpsilon = 1e-6

// PageSize is a physical page in millimetres
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

var (
	A4     = PageSize{Name: "A4", Width: 210, Height: 297}
	Letter = PageSize{Name: "Letter", Width: 215.9, Height: 279.4}
	Legal  = PageSize{Name: "Legal", Width: 215.9, Height: 355.6}
)

// ParsePageSize resolves a page size by name, defaulting to A4
func ParsePageSize(name string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return A4, nil
	case "letter":
		return Letter, nil
	case "legal":
		return Legal, nil
	default:
		return PageSize{}, fmt.Errorf("unknown page size: %q", name)
	}
}

// Margins are the unprintable borders of a page in millimetres
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// UniformMargins returns the same margin on every side
func UniformMargins(mm float64) Margins {
	return Margins{Top: mm, Right: mm, Bottom: mm, Left: mm}
}

// DefaultMargins is the 8mm border used for downloads
var DefaultMargins = UniformMargins(8)

// FitMode decides how the image is scaled into the printable area
type FitMode string

const (
	// FitWidth scales the image to the printable width; tall images span pages
	FitWidth FitMode = "width"
	// FitPage scales the image to fit the printable area in both dimensions
	FitPage FitMode = "page"
)

// ParseFitMode validates a configured fit mode, defaulting to FitWidth
func ParseFitMode(s string) (FitMode, error) {
	switch m := FitMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return FitWidth, nil
	case FitWidth, FitPage:
		return m, nil
	default:
		return "", fmt.Errorf("unknown fit mode: %q", s)
	}
}

// ErrInvalidLayout is returned for page geometry with no printable area
var ErrInvalidLayout = errors.New("invalid page layout")

// Config holds the page geometry and output options
type Config struct {
	Page    PageSize
	Margins Margins
	Fit     FitMode
	// ClipToMargins hides the parts of the image that fall into the margins
	ClipToMargins bool
	Compress      bool
}

// DefaultConfig is A4 with 8mm margins, width fit, clipping and compression on
func DefaultConfig() Config {
	return Config{
		Page:          A4,
		Margins:       DefaultMargins,
		Fit:           FitWidth,
		ClipToMargins: true,
		Compress:      true,
	}
}

// PrintableWidth is the page width minus the side margins
func (c Config) PrintableWidth() float64 {
	return c.Page.Width - c.Margins.Left - c.Margins.Right
}

// PrintableHeight is the page height minus the top and bottom margins
func (c Config) PrintableHeight() float64 {
	return c.Page.Height - c.Margins.Top - c.Margins.Bottom
}

// Validate rejects geometry without a printable area
func (c Config) Validate() error {
	m := c.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return fmt.Errorf("%w: negative margin", ErrInvalidLayout)
	}
	if c.PrintableWidth() <= 0 || c.PrintableHeight() <= 0 {
		return fmt.Errorf("%w: margins leave no printable area on %s", ErrInvalidLayout, c.Page.Name)
	}
	switch c.Fit {
	case FitWidth, FitPage, "":
	default:
		return fmt.Errorf("%w: unknown fit mode %q", ErrInvalidLayout, c.Fit)
	}
	return nil
}

// FitRatio is the largest scale at which a w×h image fits inside
// availW×availH without distortion
func FitRatio(w, h, availW, availH float64) float64 {
	return math.Min(availW/w, availH/h)
}

// Layout is the placement of one image across one or more pages
type Layout struct {
	// Ratio converts image pixels into millimetres
	Ratio float64
	// ScaledWidth and ScaledHeight are the image size on paper
	ScaledWidth  float64
	ScaledHeight float64
	// XOffset centres the image horizontally on the page
	XOffset float64
	// Positions holds the image top edge for every page, in order
	Positions []float64
}

// Pages is the number of pages the layout spans
func (l Layout) Pages() int {
	return len(l.Positions)
}

// ComputeLayout scales a width×height pixel image into the configured page
// and splits it across as many pages as its scaled height needs. Every page
// draws the full image, shifted up so the next slice lands in the printable
// area.
func ComputeLayout(cfg Config, width, height int) (Layout, error) {
	if width <= 0 || height <= 0 {
		return Layout{}, ErrEmptyBitmap
	}
	if err := cfg.Validate(); err != nil {
		return Layout{}, err
	}

	w, h := float64(width), float64(height)
	availW, availH := cfg.PrintableWidth(), cfg.PrintableHeight()

	ratio := FitRatio(w, h, availW, availH)
	if cfg.Fit != FitPage {
		ratio = availW / w
	}

	l := Layout{
		Ratio:        ratio,
		ScaledWidth:  w * ratio,
		ScaledHeight: h * ratio,
	}
	l.XOffset = (cfg.Page.Width - l.ScaledWidth) / 2

	top := cfg.Margins.Top
	heightLeft := l.ScaledHeight
	l.Positions = append(l.Positions, top)
	heightLeft -= availH

	for heightLeft > pageEpsilon {
		l.Positions = append(l.Positions, heightLeft-l.ScaledHeight+top)
		heightLeft -= availH
	}
	return l, nil
}
