// Package derivative renders fixed-size renditions of uploaded images.
//
// Every rendition is a fill-crop: the source is scaled to cover the target
// rectangle and the overflow is cropped around the centre, so the output is
// never letterboxed and never stretched. Output is always PNG.
package derivative

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Quality is the encoder quality passed with every rendition. Only lossy
// codecs honour it; PNG output is lossless and ignores it.
const Quality = 70

// MaxPixels bounds the decoded size of a source image. The upload limit
// caps compressed bytes only, and a small PNG can declare a huge canvas.
const MaxPixels = 40_000_000

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidDimensions = errors.New("invalid dimensions")
)

type Size struct {
	Width  int
	Height int
}

var (
	Size200 = Size{Width: 200, Height: 200}
	Size400 = Size{Width: 400, Height: 400}
)

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

func (s Size) valid() bool {
	return s.Width > 0 && s.Height > 0
}

type Rendition struct {
	Size Size
	Data []byte
}

// Generate decodes src and returns a width×height fill-crop encoded as PNG.
func Generate(src []byte, width, height int) ([]byte, error) {
	out, err := Renditions(src, Size{Width: width, Height: height})
	if err != nil {
		return nil, err
	}
	return out[0].Data, nil
}

// Renditions decodes src once and renders every requested size, in order.
func Renditions(src []byte, sizes ...Size) ([]Rendition, error) {
	for _, size := range sizes {
		if !size.valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDimensions, size)
		}
	}

	img, err := decode(src)
	if err != nil {
		return nil, err
	}

	out := make([]Rendition, 0, len(sizes))
	for _, size := range sizes {
		data, err := render(img, size)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", size, err)
		}
		out = append(out, Rendition{Size: size, Data: data})
	}
	return out, nil
}

func decode(src []byte) (image.Image, error) {
	if len(src) == 0 {
		return nil, ErrUnsupportedFormat
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedFormat, cfg.Width, cfg.Height, MaxPixels)
	}
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return img, nil
}

func render(img image.Image, size Size) ([]byte, error) {
	cropped := imaging.Fill(img, size.Width, size.Height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.PNG, imaging.JPEGQuality(Quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
