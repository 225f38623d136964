// Package sniffer identifies uploaded images by their leading bytes.
package sniffer

import (
	"bytes"
	"errors"
)

type Format string

const (
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
)

var (
	ErrUnknownType = errors.New("unknown media type")
	// ErrMismatch means the bytes do not carry the declared extension.
	ErrMismatch = errors.New("content does not match file extension")
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func Detect(head []byte) (Format, error) {
	switch {
	case isJPEG(head):
		return FormatJPEG, nil
	case isPNG(head):
		return FormatPNG, nil
	}
	return "", ErrUnknownType
}

// Verify checks that data is a jpg or png matching ext.
func Verify(ext string, data []byte) error {
	format, err := Detect(data)
	if err != nil {
		return err
	}
	if string(format) != ext {
		return ErrMismatch
	}
	return nil
}

func isJPEG(head []byte) bool {
	return len(head) >= 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}
