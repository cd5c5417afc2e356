package nanobanana

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFilename(t *testing.T) {
	now := time.UnixMilli(1735689600000)
	assert.Equal(t, "generated_1735689600000.png", DownloadFilename("image/png", now))
	assert.Equal(t, "generated_1735689600000.jpeg", DownloadFilename("image/jpeg", now))
	assert.Equal(t, "generated_1735689600000.png", DownloadFilename("", now))
}

func TestExtensionFromMIME(t *testing.T) {
	tests := map[string]string{
		"image/png":                  "png",
		"image/webp":                 "webp",
		"image/jpeg; charset=binary": "jpeg",
		"garbage":                    "png",
		"image/":                     "png",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtensionFromMIME(in), in)
	}
}

func TestDetectMIMEType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectMIMEType("photo.JPG", nil))
	assert.Equal(t, "image/webp", DetectMIMEType("a.webp", nil))
	assert.Equal(t, "image/png", DetectMIMEType("noext", []byte("\x89PNG\r\n\x1a\n0000")))
	assert.Equal(t, "image/png", DetectMIMEType("noext", nil))
}

func TestLocalStorage_SaveFile(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)

	path, err := s.SaveFile(context.Background(), []byte("img"), "sub/out.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub", "out.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)

	// Paths cannot escape the directory.
	path, err = s.SaveFile(context.Background(), []byte("img"), "../../escape.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.png"), path)
}

func TestSaveImage(t *testing.T) {
	ctx := context.Background()
	img := GeneratedImage{Data: []byte("img"), MIMEType: "image/webp"}

	_, err := SaveImage(ctx, nil, img, "")
	assert.ErrorIs(t, err, ErrStorageNotConfigured)

	store := newMemoryStorage()
	_, err = SaveImage(ctx, store, GeneratedImage{}, "")
	assert.ErrorIs(t, err, ErrNoImage)

	path, err := SaveImage(ctx, store, img, "")
	require.NoError(t, err)
	assert.Regexp(t, `^mem://generated_\d+\.webp$`, path)

	path, err = SaveImage(ctx, store, img, "mine.webp")
	require.NoError(t, err)
	assert.Equal(t, "mem://mine.webp", path)
	assert.Equal(t, "image/webp", store.types["mine.webp"])
}

func TestLoadReferenceImage(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ref.png")
	require.NoError(t, os.WriteFile(p, []byte("\x89PNG\r\n\x1a\nrest"), 0o644))

	img, err := LoadReferenceImage(p)
	require.NoError(t, err)
	assert.Equal(t, "ref.png", img.Name)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, 12, img.Size)

	_, err = LoadReferenceImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = LoadReferenceImage(empty)
	assert.ErrorIs(t, err, ErrEmptyImageData)
}
