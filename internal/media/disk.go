package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cidadeemfoco/internal/models"

	"github.com/google/uuid"
)

// DiskHost writes images to a local directory served by the HTTP server at BaseURL.
type DiskHost struct {
	dir     string
	baseURL string
	limits  Limits
}

// NewDiskHost creates dir when missing.
func NewDiskHost(dir, baseURL string, limits Limits) (*DiskHost, error) {
	if dir == "" {
		return nil, fmt.Errorf("media dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if baseURL == "" {
		baseURL = "/media"
	}
	return &DiskHost{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), limits: limits}, nil
}

// Name returns the provider name.
func (h *DiskHost) Name() string {
	return "disk"
}

// Dir is the directory images are written to.
func (h *DiskHost) Dir() string {
	return h.dir
}

// Upload validates, resizes and writes file under a random name.
func (h *DiskHost) Upload(_ context.Context, file File) (*Asset, error) {
	format, err := Validate(file, h.limits)
	if err != nil {
		return nil, err
	}

	data, err := resizeEncoded(file.Data, format, h.limits.MaxDimension)
	if err != nil {
		return nil, models.NewValidationError("Image could not be processed")
	}

	name := uuid.NewString() + extensionFor(format)
	if err := os.WriteFile(filepath.Join(h.dir, name), data, 0o644); err != nil {
		return nil, models.NewUpstreamError("Failed to store image", err)
	}

	url := h.baseURL + "/" + name
	return &Asset{URL: url, SecureURL: url, PublicID: name}, nil
}

// Delete removes the stored file. Missing files are not an error.
func (h *DiskHost) Delete(_ context.Context, publicID string) error {
	if publicID == "" {
		return models.NewValidationError("public_id is required")
	}
	// Public ids are flat file names; anything else could escape dir.
	if publicID != filepath.Base(publicID) || strings.HasPrefix(publicID, ".") {
		return models.NewValidationError("Invalid public_id")
	}

	err := os.Remove(filepath.Join(h.dir, publicID))
	if err != nil && !os.IsNotExist(err) {
		return models.NewUpstreamError("Failed to delete image", err)
	}
	return nil
}
