package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"cidadeemfoco/internal/media"
	"cidadeemfoco/internal/models"
)

// MediaHostStub is an in-memory media.Host.
type MediaHostStub struct {
	mu        sync.Mutex
	nextID    int
	Assets    map[string]media.File
	Deleted   []string
	UploadErr error
	DeleteErr error
}

// NewMediaHostStub returns an empty stub.
func NewMediaHostStub() *MediaHostStub {
	return &MediaHostStub{Assets: make(map[string]media.File)}
}

// Name returns the provider name.
func (s *MediaHostStub) Name() string {
	return "stub"
}

// Upload validates the file like real hosts and records it.
func (s *MediaHostStub) Upload(_ context.Context, file media.File) (*media.Asset, error) {
	if s.UploadErr != nil {
		return nil, s.UploadErr
	}
	if _, err := media.Validate(file, media.Limits{MaxBytes: 10 << 20}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := "stub/" + strconv.Itoa(s.nextID)
	s.Assets[id] = file
	return &media.Asset{
		URL:       "http://media.test/" + id,
		SecureURL: "https://media.test/" + id,
		PublicID:  id,
	}, nil
}

// Delete forgets the asset.
func (s *MediaHostStub) Delete(_ context.Context, publicID string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if publicID == "" {
		return models.NewValidationError("public_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, publicID)
	delete(s.Assets, publicID)
	return nil
}

// Count returns the number of stored assets.
func (s *MediaHostStub) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Assets)
}

// ErrUpstream is a canned media host failure.
var ErrUpstream = models.NewUpstreamError("Failed to upload image", errors.New("media host unavailable"))
