package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		ok       bool
	}{
		{"photo.jpg", "jpg", true},
		{"PHOTO.PNG", "png", true},
		{"archive.tar.png", "png", true},
		{"anim.gif", "", false},
		{"photo.jpeg", "", false},
		{"noext", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := ValidateExtension(tt.filename)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrUnsupportedExtension)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeys(t *testing.T) {
	key := SourceKey("png")
	assert.True(t, strings.HasPrefix(key, "uploads/custom-images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, SourceKey("png"))

	d := DerivativeKey("rec1", "0123456789abcdef0123", 200, 200)
	assert.Equal(t, "derivatives/rec1/0123456789abcdef_200x200.png", d)
	assert.Equal(t, d, DerivativeKey("rec1", "0123456789abcdef0123", 200, 200))
	assert.NotEqual(t, d, DerivativeKey("rec1", "0123456789abcdef0123", 400, 400))

	assert.Equal(t, "image/jpeg", ContentType("jpg"))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, Originals, "a/1.png", []byte("one"), "image/png"))
	require.NoError(t, s.Put(ctx, Variants, "derivatives/x/1.png", []byte("v"), "image/png"))

	data, err := s.Get(ctx, Originals, "a/1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	_, err = s.Get(ctx, Variants, "a/1.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	listed, err := s.List(ctx, Variants, DerivativePrefix)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "derivatives/x/1.png", listed[0].Key)

	link, err := s.PresignedURL(ctx, Originals, "a/1.png", 300*time.Second)
	require.NoError(t, err)
	assert.Contains(t, link, "memory://originals/a/1.png?expires=")

	require.NoError(t, s.Remove(ctx, Originals, "a/1.png", "missing"))
	assert.False(t, s.Has(Originals, "a/1.png"))
	assert.Equal(t, 1, s.Len(Variants))
}
