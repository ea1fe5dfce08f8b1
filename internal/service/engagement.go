// Package service holds the application's use cases on top of the repositories.
package service

import (
	"context"
	"errors"
	"log/slog"

	"cidadeemfoco/internal/cache"
	"cidadeemfoco/internal/middleware"
	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/notifications"
	"cidadeemfoco/internal/observability"
	"cidadeemfoco/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedPublisher pushes events to realtime feed subscribers.
type FeedPublisher interface {
	Publish(ctx context.Context, event notifications.Event) error
}

// LikeResult is the committed state of a post after a like or unlike.
type LikeResult struct {
	PostID uint `json:"id"`
	Likes  int  `json:"curtidas"`
}

// EngagementLedger toggles likes while keeping each post's counter equal to its like rows.
// There is no application lock: the unique (post, user) index and the repository
// transaction are the only concurrency control.
type EngagementLedger struct {
	posts repository.PostRepository
	likes repository.LikeRepository
	feed  FeedPublisher
}

// NewEngagementLedger creates a ledger. feed may be nil.
func NewEngagementLedger(posts repository.PostRepository, likes repository.LikeRepository, feed FeedPublisher) *EngagementLedger {
	return &EngagementLedger{posts: posts, likes: likes, feed: feed}
}

// Like records that userID likes postID.
func (l *EngagementLedger) Like(ctx context.Context, postID, userID uint) (*LikeResult, error) {
	return l.run(ctx, "like", postID, userID, func(ctx context.Context) (int, error) {
		liked, err := l.likes.HasLiked(ctx, postID, userID)
		if err != nil {
			return 0, err
		}
		if liked {
			return 0, models.NewAlreadyLikedError()
		}
		return l.likes.AddLike(ctx, postID, userID)
	})
}

// Unlike removes userID's like from postID.
func (l *EngagementLedger) Unlike(ctx context.Context, postID, userID uint) (*LikeResult, error) {
	return l.run(ctx, "unlike", postID, userID, func(ctx context.Context) (int, error) {
		liked, err := l.likes.HasLiked(ctx, postID, userID)
		if err != nil {
			return 0, err
		}
		if !liked {
			return 0, models.NewNotLikedError()
		}
		return l.likes.RemoveLike(ctx, postID, userID)
	})
}

func (l *EngagementLedger) run(
	ctx context.Context,
	operation string,
	postID, userID uint,
	apply func(ctx context.Context) (int, error),
) (*LikeResult, error) {
	span, ctx := observability.StartSpan(ctx, "engagement."+operation,
		attribute.Int64("post.id", int64(postID)),
		attribute.Int64("user.id", int64(userID)),
	)
	defer span.End()

	likes, err := l.withPost(ctx, postID, apply)
	observability.EngagementOperations.WithLabelValues(operation, outcome(err)).Inc()
	if err != nil {
		if errors.Is(err, repository.ErrCounterUnderflow) {
			observability.LedgerInvariantViolations.Inc()
			middleware.Logger.ErrorContext(ctx, "like counter out of sync with like rows, unlike rolled back",
				slog.Uint64("post_id", uint64(postID)),
				slog.Uint64("user_id", uint64(userID)),
			)
			err = models.NewInternalError(err)
		}
		span.SetError(err)
		return nil, err
	}

	span.AddAttributes(attribute.Int("post.curtidas", likes))
	cache.InvalidatePostList(ctx)
	if l.feed != nil {
		if err := l.feed.Publish(ctx, notifications.PostReactionUpdated(postID, likes)); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish reaction event", slog.String("error", err.Error()))
		}
	}
	return &LikeResult{PostID: postID, Likes: likes}, nil
}

// withPost runs apply only when the post exists.
func (l *EngagementLedger) withPost(ctx context.Context, postID uint, apply func(ctx context.Context) (int, error)) (int, error) {
	exists, err := l.posts.Exists(ctx, postID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, models.NewPostNotFoundError(postID)
	}
	return apply(ctx)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrAlreadyLiked):
		return "already_liked"
	case errors.Is(err, models.ErrNotLiked):
		return "not_liked"
	case errors.Is(err, models.ErrPostNotFound):
		return "post_not_found"
	case errors.Is(err, repository.ErrCounterUnderflow):
		return "invariant_violation"
	default:
		return "error"
	}
}
