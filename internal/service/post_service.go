package service

import (
	"context"
	"log/slog"
	"strings"

	"cidadeemfoco/internal/cache"
	"cidadeemfoco/internal/media"
	"cidadeemfoco/internal/middleware"
	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/notifications"
	"cidadeemfoco/internal/repository"
)

const (
	maxDescriptionLength = 2000
	maxPostPageSize      = 100
)

type PostService struct {
	posts repository.PostRepository
	media media.Host
	feed  FeedPublisher
}

type CreatePostInput struct {
	UserID      uint
	Description string
	Image       *media.File
}

// ListPostsInput pages the feed. A zero Limit returns every post.
type ListPostsInput struct {
	Limit  int
	Offset int
}

func NewPostService(posts repository.PostRepository, host media.Host, feed FeedPublisher) *PostService {
	return &PostService{posts: posts, media: host, feed: feed}
}

// CreatePost uploads the image and stores the post with a zero like counter. When the
// post cannot be stored the uploaded image is deleted again.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Image == nil || len(in.Image.Data) == 0 {
		return nil, models.NewValidationError("Image is required")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, models.NewValidationError("Description is required")
	}
	if len([]rune(description)) > maxDescriptionLength {
		return nil, models.NewValidationError("Description too long (max 2000 characters)")
	}
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("User not authenticated")
	}

	asset, err := s.media.Upload(ctx, *in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ImageURL:    asset.SecureURL,
		Description: description,
		UserID:      in.UserID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		if delErr := s.media.Delete(ctx, asset.PublicID); delErr != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove orphaned image",
				slog.String("public_id", asset.PublicID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, err
	}

	created, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	cache.InvalidatePostList(ctx)
	if s.feed != nil {
		if err := s.feed.Publish(ctx, notifications.PostCreated(created.ID, created.UserID)); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish post event", slog.String("error", err.Error()))
		}
	}
	return created, nil
}

// ListPosts returns posts newest first with their author summary.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit, offset := in.Limit, in.Offset
	if limit < 0 {
		limit = 0
	}
	if limit > maxPostPageSize {
		limit = maxPostPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var posts []*models.Post
	err := cache.Aside(ctx, cache.PostListKey(ctx, limit, offset), &posts, cache.PostListTTL, func() error {
		var err error
		posts, err = s.posts.List(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = make([]*models.Post, 0)
	}
	return posts, nil
}
