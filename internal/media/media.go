// Package media stores uploaded images on an external or local media host.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"

	// Register decoders used by image.DecodeConfig.
	_ "image/jpeg"
	_ "image/png"

	"cidadeemfoco/internal/models"
)

// AllowedFormats lists the accepted image formats.
var AllowedFormats = []string{"jpg", "jpeg", "png"}

// File is an image received from a client.
type File struct {
	Filename string
	Data     []byte
}

// Asset describes a stored image.
type Asset struct {
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Host uploads and deletes images on a media host.
type Host interface {
	Name() string
	Upload(ctx context.Context, file File) (*Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// Limits bound what a host accepts.
type Limits struct {
	MaxBytes     int64
	MaxDimension int
}

// Validate checks f against the allow-list and limits and returns its normalized format
// ("jpeg" or "png"). The extension and the sniffed content must agree.
func Validate(f File, limits Limits) (string, error) {
	if len(f.Data) == 0 {
		return "", models.NewValidationError("Image file is empty")
	}
	if limits.MaxBytes > 0 && int64(len(f.Data)) > limits.MaxBytes {
		return "", models.NewValidationError(fmt.Sprintf("Image exceeds the %d MB limit", limits.MaxBytes/(1024*1024)))
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), ".")
	if !allowedExtension(ext) {
		return "", models.NewValidationError("Unsupported image format. Use JPG, JPEG or PNG")
	}

	var sniffed string
	switch http.DetectContentType(f.Data) {
	case "image/jpeg":
		sniffed = "jpeg"
	case "image/png":
		sniffed = "png"
	default:
		return "", models.NewValidationError("File content is not a JPG or PNG image")
	}
	if normalizeFormat(ext) != sniffed {
		return "", models.NewValidationError("Image extension does not match its content")
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(f.Data)); err != nil {
		return "", models.NewValidationError("Image could not be decoded")
	}
	return sniffed, nil
}

func allowedExtension(ext string) bool {
	for _, allowed := range AllowedFormats {
		if ext == allowed {
			return true
		}
	}
	return false
}

func normalizeFormat(ext string) string {
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}

// extensionFor returns the file extension written for a normalized format.
func extensionFor(format string) string {
	if format == "jpeg" {
		return ".jpg"
	}
	return "." + format
}
