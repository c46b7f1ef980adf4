package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billcraft/internal/invoice/raster"
)

func testBitmap(t *testing.T, w, h int) *raster.Bitmap {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for y := 0; y < h; y++ {
		img.Set(w/2, y, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	bmp, err := raster.NewBitmap(buf.Bytes(), 1)
	require.NoError(t, err)
	return bmp
}

func TestFitRatio_TightFit(t *testing.T) {
	tests := []struct {
		w, h, aw, ah float64
	}{
		{2000, 3100, 194, 281},
		{2000, 8000, 194, 281},
		{100, 10, 194, 281},
		{800, 800, 200, 287},
	}

	for _, tt := range tests {
		r := FitRatio(tt.w, tt.h, tt.aw, tt.ah)
		assert.LessOrEqual(t, tt.w*r, tt.aw+1e-9)
		assert.LessOrEqual(t, tt.h*r, tt.ah+1e-9)
		widthTight := tt.aw-tt.w*r < 1e-9
		heightTight := tt.ah-tt.h*r < 1e-9
		assert.True(t, widthTight || heightTight, "one dimension must be tight")
	}
}

func TestComputeLayout_PageCounts(t *testing.T) {
	cfg := DefaultConfig()
	perPage := cfg.PrintableHeight() / (cfg.PrintableWidth() / 2000)

	tests := []struct {
		name   string
		height int
		pages  int
	}{
		{"short", 1200, 1},
		{"just under one page", int(perPage) - 1, 1},
		{"between one and two pages", int(perPage * 1.5), 2},
		{"just under two pages", int(perPage*2) - 1, 2},
		{"three pages", int(perPage * 2.5), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ComputeLayout(cfg, 2000, tt.height)
			require.NoError(t, err)
			assert.Equal(t, tt.pages, l.Pages())
			assert.InDelta(t, cfg.Margins.Top, l.Positions[0], 1e-9)
			assert.InDelta(t, (cfg.Page.Width-l.ScaledWidth)/2, l.XOffset, 1e-9)
		})
	}
}

func TestComputeLayout_Positions(t *testing.T) {
	cfg := DefaultConfig()
	ah := cfg.PrintableHeight()
	ratio := cfg.PrintableWidth() / 1000
	height := int(3 * ah / ratio)

	l, err := ComputeLayout(cfg, 1000, height)
	require.NoError(t, err)
	require.GreaterOrEqual(t, l.Pages(), 3)

	for i := 1; i < l.Pages(); i++ {
		heightLeft := l.ScaledHeight - float64(i)*ah
		assert.InDelta(t, heightLeft-l.ScaledHeight+cfg.Margins.Top, l.Positions[i], 1e-9)
		assert.InDelta(t, ah, l.Positions[i-1]-l.Positions[i], 1e-9)
	}
}

func TestComputeLayout_FitPageIsSinglePage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fit = FitPage

	l, err := ComputeLayout(cfg, 2000, 12000)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Pages())
	assert.InDelta(t, cfg.PrintableHeight(), l.ScaledHeight, 1e-9)
	assert.Less(t, l.ScaledWidth, cfg.PrintableWidth())
	assert.Greater(t, l.XOffset, cfg.Margins.Left)
}

func TestComputeLayout_Errors(t *testing.T) {
	_, err := ComputeLayout(DefaultConfig(), 0, 100)
	assert.ErrorIs(t, err, ErrEmptyBitmap)

	cfg := DefaultConfig()
	cfg.Margins = UniformMargins(150)
	_, err = ComputeLayout(cfg, 100, 100)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestPaginator_Paginate(t *testing.T) {
	p, err := NewPaginator(DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name   string
		height int
		pages  int
	}{
		{"single page", 200, 1},
		{"two pages", 450, 2},
		{"three pages", 700, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Paginate(testBitmap(t, 200, tt.height), Metadata{Title: "INV-2024-0007"})
			require.NoError(t, err)
			assert.Equal(t, tt.pages, res.Pages)
			assert.True(t, bytes.HasPrefix(res.Bytes, []byte("%PDF-")))
			assert.Equal(t, 1, bytes.Count(res.Bytes, []byte("/Subtype /Image")), "image must be embedded once")
		})
	}
}

func TestPaginator_Deterministic(t *testing.T) {
	p, err := NewPaginator(DefaultConfig())
	require.NoError(t, err)

	meta := Metadata{Title: "INV-1", Creator: "billcraft", CreatedAt: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)}
	bmp := testBitmap(t, 120, 400)

	first, err := p.Paginate(bmp, meta)
	require.NoError(t, err)
	second, err := p.Paginate(bmp, meta)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes, second.Bytes)
}

func TestPaginator_RejectsBadBitmaps(t *testing.T) {
	p, err := NewPaginator(DefaultConfig())
	require.NoError(t, err)

	_, err = p.Paginate(nil, Metadata{})
	assert.ErrorIs(t, err, ErrEmptyBitmap)

	_, err = p.Paginate(&raster.Bitmap{PNG: []byte("junk"), Width: 10, Height: 10}, Metadata{})
	assert.ErrorIs(t, err, ErrMalformedBitmap)
}

func TestNewPaginator_Validates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Margins.Left = -1
	_, err := NewPaginator(cfg)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	cfg = DefaultConfig()
	cfg.Fit = ""
	p, err := NewPaginator(cfg)
	require.NoError(t, err)
	assert.Equal(t, FitWidth, p.Config().Fit)
}

func TestParsers(t *testing.T) {
	size, err := ParsePageSize("letter")
	require.NoError(t, err)
	assert.Equal(t, Letter, size)
	_, err = ParsePageSize("b5")
	assert.Error(t, err)

	mode, err := ParseFitMode("PAGE")
	require.NoError(t, err)
	assert.Equal(t, FitPage, mode)
	_, err = ParseFitMode("stretch")
	assert.Error(t, err)
}
