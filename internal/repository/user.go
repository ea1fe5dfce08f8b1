package repository

import (
	"context"
	"errors"

	"cidadeemfoco/internal/cache"
	"cidadeemfoco/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetProfile(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateProfileImage(ctx context.Context, id uint, imageURL string) error
	SetLevel(ctx context.Context, id uint, level models.Level) error
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID loads the full row, password hash included.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetProfile is the cached, password-less view of a user.
func (r *userRepository) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		found, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return &user, nil
}

// GetByEmail returns nil without error when no user has email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email already registered")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(user).Select("nome", "email", "password").Updates(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email already registered")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) UpdateProfileImage(ctx context.Context, id uint, imageURL string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("cod_usuario = ?", id).
		UpdateColumn("profileImage", imageURL)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) SetLevel(ctx context.Context, id uint, level models.Level) error {
	if !level.Valid() {
		return models.NewValidationError("Invalid level")
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("cod_usuario = ?", id).
		UpdateColumn("level", level)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := r.db.WithContext(ctx).Order("cod_usuario").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Delete removes the user with their likes and posts in one transaction. Counters of
// the posts the user liked are decremented first so they keep matching their like rows;
// a counter already at zero aborts the deletion with ErrCounterUnderflow.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("cod_usuario").First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return err
		}

		var liked int64
		if err := tx.Model(&models.Like{}).Where(map[string]any{"usuarioId": id}).Count(&liked).Error; err != nil {
			return err
		}
		likedPosts := tx.Model(&models.Like{}).Select(`"publicacaoId"`).Where(map[string]any{"usuarioId": id})
		res := tx.Model(&models.Post{}).
			Where("id IN (?) AND curtidas > 0", likedPosts).
			UpdateColumn("curtidas", gorm.Expr("curtidas - ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != liked {
			return ErrCounterUnderflow
		}
		if err := tx.Where(map[string]any{"usuarioId": id}).Delete(&models.Like{}).Error; err != nil {
			return err
		}

		ownPosts := tx.Model(&models.Post{}).Select("id").Where(map[string]any{"usuarioId": id})
		if err := tx.Where(`"publicacaoId" IN (?)`, ownPosts).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where(map[string]any{"usuarioId": id}).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, id)
	cache.InvalidatePostList(ctx)
	return nil
}
