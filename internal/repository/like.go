package repository

import (
	"context"
	"errors"

	"cidadeemfoco/internal/models"

	"gorm.io/gorm"
)

// LikeRepository persists likes together with the post counter they feed.
// AddLike and RemoveLike each run as one transaction and return the committed counter.
type LikeRepository interface {
	HasLiked(ctx context.Context, postID, userID uint) (bool, error)
	AddLike(ctx context.Context, postID, userID uint) (int, error)
	RemoveLike(ctx context.Context, postID, userID uint) (int, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func likeKey(postID, userID uint) map[string]any {
	return map[string]any{"publicacaoId": postID, "usuarioId": userID}
}

func (r *likeRepository) HasLiked(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where(likeKey(postID, userID)).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// AddLike inserts the like and increments the counter. A concurrent duplicate surfaces as
// AlreadyLiked through the unique index.
func (r *likeRepository) AddLike(ctx context.Context, postID, userID uint) (int, error) {
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := &models.Like{PostID: postID, UserID: userID}
		if err := tx.Omit("Post", "User").Create(like).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("curtidas", gorm.Expr("curtidas + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewPostNotFoundError(postID)
		}

		var err error
		likes, err = counter(tx, postID)
		return err
	})
	if err != nil {
		return 0, translateLedgerError(err, postID)
	}
	return likes, nil
}

// RemoveLike deletes the like and decrements the counter. The decrement never runs below
// zero; when it would, the transaction is rolled back with ErrCounterUnderflow.
func (r *likeRepository) RemoveLike(ctx context.Context, postID, userID uint) (int, error) {
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(likeKey(postID, userID)).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotLikedError()
		}

		res = tx.Model(&models.Post{}).Where("id = ? AND curtidas > 0", postID).
			UpdateColumn("curtidas", gorm.Expr("curtidas - ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCounterUnderflow
		}

		var err error
		likes, err = counter(tx, postID)
		return err
	})
	if err != nil {
		return 0, translateLedgerError(err, postID)
	}
	return likes, nil
}

func counter(tx *gorm.DB, postID uint) (int, error) {
	var values []int
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).Pluck("curtidas", &values).Error; err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, models.NewPostNotFoundError(postID)
	}
	return values[0], nil
}

func translateLedgerError(err error, postID uint) error {
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr), errors.Is(err, ErrCounterUnderflow):
		return err
	case isUniqueConstraintError(err):
		return models.NewAlreadyLikedError()
	case isForeignKeyError(err):
		return models.NewPostNotFoundError(postID)
	default:
		return models.NewInternalError(err)
	}
}
