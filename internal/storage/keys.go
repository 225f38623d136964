package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedExtension = errors.New("unsupported file extension")

var allowedExtensions = map[string]string{
	"jpg": "image/jpeg",
	"png": "image/png",
}

const (
	// SourcePrefix is the key prefix of every uploaded source image.
	SourcePrefix = "uploads/custom-images/"
	// DerivativePrefix is the key prefix of every generated rendition.
	DerivativePrefix = "derivatives/"
)

// ValidateExtension checks the declared extension of filename and returns
// it lower-cased without the dot.
func ValidateExtension(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %q (allowed: jpg, png)", ErrUnsupportedExtension, ext)
	}
	return ext, nil
}

func ContentType(ext string) string {
	if ct, ok := allowedExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SourceKey names a freshly uploaded source image.
func SourceKey(ext string) string {
	return fmt.Sprintf("%s%s.%s", SourcePrefix, uuid.NewString(), ext)
}

// DerivativeKey is deterministic in the record, the source content and the
// rectangle, so an unchanged key means the rendition is already stored.
func DerivativeKey(recordID, checksum string, width, height int) string {
	if len(checksum) > 16 {
		checksum = checksum[:16]
	}
	return fmt.Sprintf("%s%s/%s_%dx%d.png", DerivativePrefix, recordID, checksum, width, height)
}
