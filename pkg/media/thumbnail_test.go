package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRenderDownscales(t *testing.T) {
	out, contentType, err := NewThumbnailer(64).Render(pngBytes(t, 256, 128))
	require.NoError(t, err)
	require.Equal(t, WebPContentType, contentType)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 64, cfg.Width)
	require.Equal(t, 32, cfg.Height)
}

func TestRenderKeepsSmallImages(t *testing.T) {
	out, _, err := NewThumbnailer(640).Render(pngBytes(t, 40, 20))
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 40, cfg.Width)
}

func TestRenderRejectsGarbage(t *testing.T) {
	_, _, err := NewThumbnailer(64).Render([]byte("%PDF-1.7"))
	require.Error(t, err)
}
