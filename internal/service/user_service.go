package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"cidadeemfoco/internal/auth"
	"cidadeemfoco/internal/cache"
	"cidadeemfoco/internal/middleware"
	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/observability"
	"cidadeemfoco/internal/repository"
	"cidadeemfoco/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(identity auth.Identity, ttl time.Duration) (string, error)
}

type UserService struct {
	users      repository.UserRepository
	tokens     TokenIssuer
	tokenTTL   time.Duration
	bcryptCost int
}

type UserServiceConfig struct {
	TokenTTL   time.Duration
	BcryptCost int
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type UpdateProfileInput struct {
	UserID          uint
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer, cfg UserServiceConfig) *UserService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		users:      users,
		tokens:     tokens,
		tokenTTL:   cfg.TokenTTL,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates an ordinary user. Administrators are only created by SetLevel or EnsureAdmin.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("nome, email and password are required")
	}
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hash,
		Level:    models.LevelOrdinary,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks the credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := models.NewUnauthorizedError("Invalid email or password")
	if email == "" || password == "" {
		return nil, invalid
	}

	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}

	token, err := s.tokens.Issue(auth.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Level:  user.Level,
	}, s.tokenTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *UserService) GetCurrentUser(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetProfile(ctx, id)
}

// UpdateProfile applies the non-empty fields of in. Changing the password requires the
// current one.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return nil, models.NewValidationError("Current password is required to change the password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)); err != nil {
			return nil, models.NewUnauthorizedError("Current password is incorrect")
		}
		if err := validation.ValidatePassword(in.NewPassword); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hash, err := s.hash(in.NewPassword)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if in.Name != "" {
		if err := validation.ValidateName(in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = strings.TrimSpace(in.Name)
	}

	if in.Email != "" {
		email := validation.NormalizeEmail(in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if email != user.Email {
			other, err := s.users.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, models.NewConflictError("Email already registered")
			}
			user.Email = email
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfileImage(ctx context.Context, userID uint, imageURL string) (*models.User, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, models.NewValidationError("imageUrl is required")
	}
	if err := s.users.UpdateProfileImage(ctx, userID, imageURL); err != nil {
		return nil, err
	}
	cache.InvalidatePostList(ctx)
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// DeleteUser removes the user with their posts and likes.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, repository.ErrCounterUnderflow) {
		observability.LedgerInvariantViolations.Inc()
		middleware.Logger.ErrorContext(ctx, "like counter out of sync with like rows, user deletion rolled back",
			slog.Uint64("user_id", uint64(id)),
		)
	}
	return err
}

func (s *UserService) SetLevel(ctx context.Context, id uint, level models.Level) error {
	return s.users.SetLevel(ctx, id, level)
}

// SetLevelByEmail changes the role of the user registered with email.
func (s *UserService) SetLevelByEmail(ctx context.Context, email string, level models.Level) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", email)
	}
	if err := s.users.SetLevel(ctx, user.ID, level); err != nil {
		return nil, err
	}
	user.Level = level
	return user, nil
}

// EnsureAdmin creates an administrator with the given credentials, or promotes the
// existing user with that email. The password of an existing user is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.Level != models.LevelAdmin {
			if err := s.users.SetLevel(ctx, existing.ID, models.LevelAdmin); err != nil {
				return nil, false, err
			}
			existing.Level = models.LevelAdmin
		}
		return existing, false, nil
	}

	user, err := s.Register(ctx, RegisterInput{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, false, err
	}
	if err := s.users.SetLevel(ctx, user.ID, models.LevelAdmin); err != nil {
		return nil, false, err
	}
	user.Level = models.LevelAdmin
	return user, true, nil
}

func (s *UserService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", models.NewValidationError("password must not exceed 72 bytes")
		}
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}
