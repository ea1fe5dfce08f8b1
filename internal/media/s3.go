package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"cidadeemfoco/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3API is the subset of the S3 client used by S3Host.
type s3API interface {
	manager.UploadAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Config configures S3Host.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	KeyPrefix     string
	PublicBaseURL string
	Limits        Limits
}

// S3Host stores images in an S3 (or S3 compatible) bucket. Images are resized locally
// before upload because S3 has no transformation pipeline.
type S3Host struct {
	client   s3API
	uploader *manager.Uploader
	cfg      S3Config
}

// NewS3Host loads AWS credentials from the default chain and builds a host.
func NewS3Host(ctx context.Context, cfg S3Config) (*S3Host, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Host(client, cfg), nil
}

func newS3Host(client s3API, cfg S3Config) *S3Host {
	return &S3Host{
		client:   client,
		uploader: manager.NewUploader(client),
		cfg:      cfg,
	}
}

// Name returns the provider name.
func (h *S3Host) Name() string {
	return "s3"
}

// Ping checks that the bucket is reachable with the loaded credentials.
func (h *S3Host) Ping(ctx context.Context) error {
	_, err := h.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(h.cfg.Bucket)})
	return err
}

// Upload validates, resizes and stores file under the configured key prefix.
func (h *S3Host) Upload(ctx context.Context, file File) (*Asset, error) {
	format, err := Validate(file, h.cfg.Limits)
	if err != nil {
		return nil, err
	}

	data, err := resizeEncoded(file.Data, format, h.cfg.Limits.MaxDimension)
	if err != nil {
		return nil, models.NewValidationError("Image could not be processed")
	}

	key := h.objectKey(uuid.NewString() + extensionFor(format))
	_, err = h.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + format),
	})
	if err != nil {
		return nil, models.NewUpstreamError("Failed to upload image", err)
	}

	url := h.publicURL(key)
	return &Asset{URL: url, SecureURL: url, PublicID: key}, nil
}

// Delete removes the object stored under publicID.
func (h *S3Host) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return models.NewValidationError("public_id is required")
	}
	if prefix := strings.Trim(h.cfg.KeyPrefix, "/"); prefix != "" && !strings.HasPrefix(publicID, prefix+"/") {
		return models.NewValidationError("public_id does not belong to this media store")
	}

	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.cfg.Bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return models.NewUpstreamError("Failed to delete image", err)
	}
	return nil
}

func (h *S3Host) objectKey(name string) string {
	prefix := strings.Trim(h.cfg.KeyPrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (h *S3Host) publicURL(key string) string {
	if base := strings.TrimRight(h.cfg.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	if h.cfg.Endpoint != "" {
		return strings.TrimRight(h.cfg.Endpoint, "/") + "/" + h.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", h.cfg.Bucket, h.cfg.Region, key)
}
