package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"cidadeemfoco/internal/middleware"
	"cidadeemfoco/internal/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// cloudinaryUploader is the subset of the Cloudinary upload API the host uses.
type cloudinaryUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryConfig configures CloudinaryHost.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	Limits    Limits
}

// CloudinaryHost stores images on Cloudinary. Resizing happens on Cloudinary through
// an incoming "limit" transformation.
type CloudinaryHost struct {
	api    cloudinaryUploader
	ping   func(ctx context.Context) error
	folder string
	limits Limits
}

// NewCloudinaryHost builds a host from credentials.
func NewCloudinaryHost(cfg CloudinaryConfig) (*CloudinaryHost, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary credentials are not configured")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}

	host := newCloudinaryHost(&cld.Upload, cfg.Folder, cfg.Limits)
	host.ping = func(ctx context.Context) error {
		_, err := cld.Admin.Ping(ctx)
		return err
	}
	return host, nil
}

func newCloudinaryHost(api cloudinaryUploader, folder string, limits Limits) *CloudinaryHost {
	return &CloudinaryHost{api: api, folder: folder, limits: limits}
}

// Name returns the provider name.
func (h *CloudinaryHost) Name() string {
	return "cloudinary"
}

// Ping verifies the credentials against the Cloudinary admin API.
func (h *CloudinaryHost) Ping(ctx context.Context) error {
	if h.ping == nil {
		return nil
	}
	return h.ping(ctx)
}

// Upload validates file and sends it to Cloudinary.
func (h *CloudinaryHost) Upload(ctx context.Context, file File) (*Asset, error) {
	if _, err := Validate(file, h.limits); err != nil {
		return nil, err
	}

	params := uploader.UploadParams{
		Folder:         h.folder,
		PublicID:       uuid.NewString(),
		AllowedFormats: api.CldAPIArray(AllowedFormats),
		Transformation: h.transformation(),
		ResourceType:   "image",
		Overwrite:      api.Bool(false),
	}

	result, err := h.api.Upload(ctx, bytes.NewReader(file.Data), params)
	if err != nil {
		return nil, models.NewUpstreamError("Failed to upload image", err)
	}
	if result.Error.Message != "" {
		return nil, models.NewUpstreamError("Failed to upload image", errors.New(result.Error.Message))
	}
	if result.PublicID == "" {
		return nil, models.NewUpstreamError("Failed to upload image", errors.New("empty public id in cloudinary response"))
	}

	middleware.Logger.InfoContext(ctx, "image uploaded to cloudinary",
		slog.String("public_id", result.PublicID),
		slog.Int("bytes", result.Bytes),
	)
	return &Asset{
		URL:       result.URL,
		SecureURL: result.SecureURL,
		PublicID:  result.PublicID,
	}, nil
}

// Delete destroys the asset with publicID.
func (h *CloudinaryHost) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return models.NewValidationError("public_id is required")
	}

	result, err := h.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return models.NewUpstreamError("Failed to delete image", err)
	}
	if result.Error.Message != "" {
		return models.NewUpstreamError("Failed to delete image", errors.New(result.Error.Message))
	}
	// "not found" is accepted: the asset is gone either way.
	if result.Result != "ok" && result.Result != "not found" {
		return models.NewUpstreamError("Failed to delete image", fmt.Errorf("cloudinary destroy result %q", result.Result))
	}
	return nil
}

func (h *CloudinaryHost) transformation() string {
	if h.limits.MaxDimension <= 0 {
		return ""
	}
	d := strconv.Itoa(h.limits.MaxDimension)
	return "c_limit,h_" + d + ",w_" + d
}
