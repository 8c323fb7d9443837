package artifacts

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // registered for decoding stored artifacts
	_ "image/jpeg" // registered for decoding stored artifacts
	"image/png"

	"golang.org/x/image/draw"
)

// Preview errors.
var (
	ErrEmptyImage   = errors.New("artifacts: empty image data")
	ErrInvalidImage = errors.New("artifacts: invalid image data")
)

// DefaultPreviewSize is the bounding box for history previews, in pixels.
const DefaultPreviewSize = 256

// DecodeImage decodes image data from common formats (PNG, JPEG, GIF).
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// Downscale resizes img to fit within maxDim on its longer edge, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(max(width, height))
	dstW := int(float64(width) * scale)
	dstH := int(float64(height) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// PreviewPNG reads a stored artifact, downscales it to fit maxDim, and
// returns the result PNG-encoded. Used by history listings.
func (s *Store) PreviewPNG(path string, maxDim int) ([]byte, error) {
	if maxDim <= 0 {
		maxDim = DefaultPreviewSize
	}

	data, err := s.Read(path)
	if err != nil {
		return nil, err
	}

	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Downscale(img, maxDim)); err != nil {
		return nil, fmt.Errorf("artifacts: failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
