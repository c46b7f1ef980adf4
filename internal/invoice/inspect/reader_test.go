package inspect

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/billcraft/internal/invoice/pdf"
	"github.com/garyjia/billcraft/internal/invoice/raster"
)

func generatePDF(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	bmp, err := raster.NewBitmap(buf.Bytes(), 1)
	require.NoError(t, err)

	p, err := pdf.NewPaginator(pdf.DefaultConfig())
	require.NoError(t, err)
	res, err := p.Paginate(bmp, pdf.Metadata{Title: "INV-2024-0007"})
	require.NoError(t, err)
	return res.Bytes
}

func TestReader_PageCount(t *testing.T) {
	r := NewReader(zap.NewNop())

	tests := []struct {
		name   string
		height int
		pages  int
	}{
		{"below one printable height", 250, 1},
		{"between one and two printable heights", 450, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := r.PageCount(generatePDF(t, 200, tt.height))
			require.NoError(t, err)
			assert.Equal(t, tt.pages, n)
		})
	}
}

func TestReader_Inspect(t *testing.T) {
	info, err := NewReader(nil).Inspect(generatePDF(t, 200, 100))
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
	assert.Equal(t, "INV-2024-0007", info.Metadata["title"])
}

func TestReader_RenderPage(t *testing.T) {
	r := NewReader(zap.NewNop())
	data := generatePDF(t, 200, 450)

	img, err := r.RenderPage(data, 2, 0)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	// A4 at 96 DPI
	assert.InDelta(t, 794, cfg.Width, 2)
	assert.InDelta(t, 1123, cfg.Height, 2)

	_, err = r.RenderPage(data, 3, DefaultDPI)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, err = r.RenderPage(data, 0, DefaultDPI)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestReader_RejectsNonPDF(t *testing.T) {
	r := NewReader(zap.NewNop())
	_, err := r.PageCount(nil)
	assert.ErrorIs(t, err, ErrNotPDF)
}
