package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"

	_ "golang.org/x/image/webp"
)

// ErrEmptyPath is returned when an artifact has no path to load.
var ErrEmptyPath = errors.New("image path is empty")

// Image is a decoded artifact re-encoded as PNG, ready for embedding.
type Image struct {
	Name   string
	PNG    []byte
	Width  int
	Height int
}

// ImageLoader resolves an artifact path into an embeddable image.
type ImageLoader interface {
	Load(path string) (Image, error)
}

// FileLoader reads PNG, JPEG, GIF and WebP files from disk.
type FileLoader struct{}

// Load decodes the file and normalizes it to an 8-bit NRGBA PNG.
func (FileLoader) Load(path string) (Image, error) {
	if path == "" {
		return Image{}, ErrEmptyPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image %s: %w", path, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("decode image %s: %w", path, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return Image{}, fmt.Errorf("image %s has no pixels", path)
	}

	// Source PNGs are re-encoded too: the PDF writer rejects interlaced and
	// 16-bit files that the decoder accepts.
	flat := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return Image{}, fmt.Errorf("encode image %s: %w", path, err)
	}
	return Image{Name: path, PNG: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// Fit scales w x h into the box preserving aspect ratio. Images are never upscaled.
func Fit(w, h int, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	fw, fh := float64(w), float64(h)
	scale := math.Min(math.Min(maxW/fw, maxH/fh), 1)
	return fw * scale, fh * scale
}

func place(img Image, maxW, maxH float64) *Placed {
	w, h := Fit(img.Width, img.Height, maxW, maxH)
	return &Placed{Image: img, Width: w, Height: h}
}
