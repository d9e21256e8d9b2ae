// Package thumbnail derives small preview images from uploaded originals.
// Generation is best-effort: callers treat any error as "no thumbnail".
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// DefaultMaxSize is the bounding box for generated thumbnails.
const DefaultMaxSize = 200

// ErrUnsupported is returned for originals that are not decodable images.
var ErrUnsupported = fmt.Errorf("thumbnail: unsupported content type")

// Generate scales an image down to fit within maxW x maxH, preserving aspect
// ratio, and returns it PNG-encoded. Non-image input yields ErrUnsupported.
func Generate(data []byte, mimeType string, maxW, maxH int) ([]byte, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, ErrUnsupported
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image")
	}

	tw, th := fit(w, h, maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return out.Bytes(), nil
}

// fit computes target dimensions within the bounding box. Images already
// inside the box keep their size.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	rw := float64(maxW) / float64(w)
	rh := float64(maxH) / float64(h)
	r := rw
	if rh < rw {
		r = rh
	}
	tw := int(float64(w) * r)
	th := int(float64(h) * r)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}
