package service

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"faceblog/internal/config"
	"faceblog/internal/models"
	"faceblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_SaveThumbnail(t *testing.T) {
	dir := t.TempDir()
	s := NewImageService(&config.Config{ImageUploadDir: dir, ImageMaxUploadSizeMB: 1})

	name, err := s.SaveThumbnail(context.Background(), testutil.TinyPNG(t, 600, 300), "image/png")
	require.NoError(t, err)
	assert.Equal(t, ".webp", filepath.Ext(name))

	f, err := os.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 150, cfg.Height)

	s.Remove(name)
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestImageService_RejectsBadUploads(t *testing.T) {
	s := NewImageService(&config.Config{ImageUploadDir: t.TempDir(), ImageMaxUploadSizeMB: 1})
	ctx := context.Background()

	tests := []struct {
		name    string
		content []byte
		ctype   string
	}{
		{"empty", nil, "image/png"},
		{"not an image", []byte("plain text, definitely not pixels"), "text/plain"},
		{"oversized", make([]byte, 2*1024*1024), "image/png"},
		{"svg claimed", testutil.TinyPNG(t, 4, 4), "image/svg+xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveThumbnail(ctx, tt.content, tt.ctype)
			assert.True(t, models.IsCode(err, models.CodeValidation))
		})
	}
}

func TestImageService_RemoveIgnoresUnsafeNames(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, models.DefaultImageFile)
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o600))

	s := NewImageService(&config.Config{ImageUploadDir: dir, ImageMaxUploadSizeMB: 1})
	s.Remove(models.DefaultImageFile)
	s.Remove("../" + models.DefaultImageFile)

	_, err := os.Stat(keep)
	assert.NoError(t, err)
}
