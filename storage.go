package nanobanana

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Storage is an interface for persisting downloaded images.
// Implementations can wrap existing storage clients with this interface.
type Storage interface {
	// SaveFile saves image data under path and returns where it ended up.
	// The contentType is the image's MIME type (e.g., "image/png").
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}

// LocalStorage saves files beneath a directory on the local disk.
type LocalStorage struct {
	Dir string
}

// NewLocalStorage creates a LocalStorage rooted at dir.
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{Dir: dir}
}

// SaveFile writes data to Dir/path, creating parent directories as needed.
func (s *LocalStorage) SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(s.Dir, filepath.Clean("/"+path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", full, err)
	}
	return full, nil
}

// SaveImage stores img under name, or under a generated timestamped name
// when name is empty.
func SaveImage(ctx context.Context, storage Storage, img GeneratedImage, name string) (string, error) {
	if storage == nil {
		return "", ErrStorageNotConfigured
	}
	if len(img.Data) == 0 {
		return "", ErrNoImage
	}

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = DefaultImageMIMEType
	}
	if name == "" {
		name = DownloadFilename(mimeType, time.Now())
	}

	return storage.SaveFile(ctx, img.Data, name, mimeType)
}

// DownloadFilename returns the default file name for a download,
// e.g. "generated_1735689600000.png".
func DownloadFilename(mimeType string, now time.Time) string {
	return fmt.Sprintf("generated_%d.%s", now.UnixMilli(), ExtensionFromMIME(mimeType))
}

// ExtensionFromMIME returns the MIME subtype as a file extension
// ("image/jpeg" gives "jpeg"), falling back to "png".
func ExtensionFromMIME(mimeType string) string {
	_, sub, ok := strings.Cut(mimeType, "/")
	if !ok || sub == "" {
		return "png"
	}
	// Drop parameters such as "; charset=binary".
	if i := strings.IndexByte(sub, ';'); i >= 0 {
		sub = strings.TrimSpace(sub[:i])
	}
	if sub == "" {
		return "png"
	}
	return sub
}

// DetectMIMEType guesses the MIME type of a reference image from its file
// extension, then from its content.
func DetectMIMEType(filePath string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "image/png"
}

// LoadReferenceImage reads a reference image from disk.
func LoadReferenceImage(filePath string) (*ReferenceImage, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading reference image: %w", err)
	}
	img := &ReferenceImage{
		Data:     data,
		MIMEType: DetectMIMEType(filePath, data),
		Name:     filepath.Base(filePath),
		Size:     len(data),
	}
	if err := ValidateReferenceImage(*img); err != nil {
		return nil, err
	}
	return img, nil
}
