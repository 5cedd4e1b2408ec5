// Package media renders downscaled previews of uploaded drawings.
package media

import (
	"bytes"
	"fmt"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// WebPContentType is the content type of rendered thumbnails.
const WebPContentType = "image/webp"

// Thumbnailer turns raster images into WebP previews no wider than MaxWidth.
type Thumbnailer struct {
	maxWidth int
	quality  float32
}

// NewThumbnailer returns a thumbnailer; maxWidth <= 0 keeps the original width.
func NewThumbnailer(maxWidth int) *Thumbnailer {
	return &Thumbnailer{maxWidth: maxWidth, quality: 85}
}

// Render decodes data, applies EXIF orientation, downsizes it and encodes it as WebP.
func (t *Thumbnailer) Render(data []byte) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	if t.maxWidth > 0 && img.Bounds().Dx() > t.maxWidth {
		img = imaging.Resize(img, t.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: t.quality}); err != nil {
		return nil, "", fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), WebPContentType, nil
}
