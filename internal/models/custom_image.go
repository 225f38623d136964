package models

import "time"

type CustomImage struct {
	ID      string
	OwnerID string
	Name    string

	ImageKey      string
	ImageExt      string
	ImageChecksum string

	Link200Key string
	Link400Key string

	ExpiringLinkSeconds int

	CustomExpiringSeconds int
	CustomHeight          int
	CustomWidth           int
	CustomLinkKey         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSource reports whether a source image has been uploaded.
func (c CustomImage) HasSource() bool {
	return c.ImageKey != ""
}

// HasCustomDimensions reports whether both admin dimensions are configured.
func (c CustomImage) HasCustomDimensions() bool {
	return c.CustomHeight > 0 && c.CustomWidth > 0
}

// ObjectKeys lists every stored object the record points at.
func (c CustomImage) ObjectKeys() (originals []string, variants []string) {
	if c.ImageKey != "" {
		originals = append(originals, c.ImageKey)
	}
	for _, key := range []string{c.Link200Key, c.Link400Key, c.CustomLinkKey} {
		if key != "" {
			variants = append(variants, key)
		}
	}
	return originals, variants
}
