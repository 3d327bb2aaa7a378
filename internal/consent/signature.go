// Package consent turns a captured signature into a signed consent PDF and
// stores it in S3.
package consent

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

// Sentinel errors returned while decoding signatures.
var (
	ErrEmptySignature   = errors.New("signature is empty")
	ErrInvalidSignature = errors.New("signature is not a valid PNG data URL")
)

// maxSignatureWidth bounds the rendered signature so oversized canvas
// captures do not blow up the PDF.
const maxSignatureWidth = 600

// DecodeSignature parses a base64 PNG data URL ("data:image/png;base64,...")
// into a decoded image. Bare base64 without the data URL prefix is also
// accepted. Signatures wider than maxSignatureWidth are scaled down
// preserving aspect ratio.
func DecodeSignature(dataURL string) (image.Image, error) {
	s := strings.TrimSpace(dataURL)
	if s == "" {
		return nil, ErrEmptySignature
	}

	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		header := s[:idx]
		if !strings.Contains(header, "image/png") {
			return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidSignature, header)
		}
		s = s[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return scaleDown(img), nil
}

// EncodePNG renders an image back to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding signature png: %w", err)
	}
	return buf.Bytes(), nil
}

func scaleDown(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSignatureWidth {
		return img
	}
	h := b.Dy() * maxSignatureWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxSignatureWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
