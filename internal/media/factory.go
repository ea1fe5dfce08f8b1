package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cidadeemfoco/internal/config"
	"cidadeemfoco/internal/middleware"
	"cidadeemfoco/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// New builds the host selected by MEDIA_PROVIDER, wrapped with metrics and tracing.
func New(ctx context.Context, cfg *config.Config) (Host, error) {
	limits := Limits{
		MaxBytes:     cfg.MaxUploadBytes(),
		MaxDimension: cfg.MediaMaxDimension,
	}

	var (
		host Host
		err  error
	)
	switch cfg.MediaProvider {
	case config.MediaProviderCloudinary:
		host, err = NewCloudinaryHost(CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
			Limits:    limits,
		})
	case config.MediaProviderS3:
		host, err = NewS3Host(ctx, S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			KeyPrefix:     cfg.S3KeyPrefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
			Limits:        limits,
		})
	case config.MediaProviderDisk:
		host, err = NewDiskHost(cfg.MediaDir, cfg.MediaBaseURL, limits)
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.MediaProvider)
	}
	if err != nil {
		return nil, err
	}

	middleware.Logger.Info("media host configured", slog.String("provider", host.Name()))
	return Instrument(host), nil
}

// Instrument wraps host so every call is traced and counted.
func Instrument(host Host) Host {
	if _, ok := host.(*instrumentedHost); ok {
		return host
	}
	return &instrumentedHost{next: host}
}

type instrumentedHost struct {
	next Host
}

func (h *instrumentedHost) Name() string {
	return h.next.Name()
}

// Unwrap returns the underlying host.
func (h *instrumentedHost) Unwrap() Host {
	return h.next
}

func (h *instrumentedHost) Upload(ctx context.Context, file File) (*Asset, error) {
	span, ctx := observability.StartSpan(ctx, "media.upload",
		attribute.String("media.provider", h.next.Name()),
		attribute.Int("media.bytes", len(file.Data)),
	)
	defer span.End()

	start := time.Now()
	asset, err := h.next.Upload(ctx, file)
	h.record(ctx, "upload", err, start)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	observability.MediaUploadBytes.Observe(float64(len(file.Data)))
	span.AddAttributes(attribute.String("media.public_id", asset.PublicID))
	return asset, nil
}

func (h *instrumentedHost) Delete(ctx context.Context, publicID string) error {
	span, ctx := observability.StartSpan(ctx, "media.delete",
		attribute.String("media.provider", h.next.Name()),
		attribute.String("media.public_id", publicID),
	)
	defer span.End()

	start := time.Now()
	err := h.next.Delete(ctx, publicID)
	h.record(ctx, "delete", err, start)
	if err != nil {
		span.SetError(err)
	}
	return err
}

func (h *instrumentedHost) record(ctx context.Context, operation string, err error, start time.Time) {
	result := "success"
	if err != nil {
		result = "error"
		middleware.Logger.WarnContext(ctx, "media operation failed",
			slog.String("provider", h.next.Name()),
			slog.String("operation", operation),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
	}
	observability.MediaOperations.WithLabelValues(h.next.Name(), operation, result).Inc()
}
