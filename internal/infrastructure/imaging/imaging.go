// Package imaging produces preview thumbnails of approval photos.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/docflow/approvals/internal/core/ports"
)

const (
	DefaultMaxDimension = 320
	JPEGQuality         = 80
)

var supported = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Resizer downsizes photos so neither side exceeds MaxDimension.
type Resizer struct {
	MaxDimension int
}

func NewResizer(maxDim int) *Resizer {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &Resizer{MaxDimension: maxDim}
}

// Thumbnail decodes res, downscales it and re-encodes it as JPEG. The format
// is sniffed from the bytes; the server's content type is not trusted.
func (r *Resizer) Thumbnail(res *ports.Resource) (*ports.Resource, error) {
	detected := http.DetectContentType(res.Data)
	if !supported[detected] {
		return nil, fmt.Errorf("unsupported image format: %s", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(res.Data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, downscale(img, r.MaxDimension), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return &ports.Resource{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
}

// downscale keeps the aspect ratio and never upscales.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

var _ ports.ImageResizer = (*Resizer)(nil)
