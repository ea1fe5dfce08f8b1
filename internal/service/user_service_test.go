package service

import (
	"context"
	"testing"
	"time"

	"cidadeemfoco/internal/auth"
	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/observability"
	"cidadeemfoco/internal/repository"
	"cidadeemfoco/internal/testutil"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newUserService(t *testing.T) (*UserService, *auth.Codec, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	codec, err := auth.NewCodec("test-secret-with-enough-length-123")
	require.NoError(t, err)
	svc := NewUserService(repository.NewUserRepository(db), codec, UserServiceConfig{
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return svc, codec, db
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	svc, codec, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "Ana@Example.com", Password: "Senha@123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, models.LevelOrdinary, user.Level)
	assert.NotEqual(t, "Senha@123", user.Password)

	_, err = svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "Senha@123"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.Equal(t, 400, models.HTTPStatus(err))

	res, err := svc.Authenticate(ctx, "ana@example.com", "Senha@123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	identity, err := codec.Decode(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "Ana", identity.Name)
	assert.Equal(t, models.LevelOrdinary, identity.Level)
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc, _, _ := newUserService(t)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@example.com", Password: "Senha@123"}},
		{"missing email", RegisterInput{Name: "A", Password: "Senha@123"}},
		{"missing password", RegisterInput{Name: "A", Email: "a@example.com"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "Senha@123"}},
		{"weak password", RegisterInput{Name: "A", Email: "a@example.com", Password: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			assert.Equal(t, 400, models.HTTPStatus(err))
		})
	}
}

func TestUserService_AuthenticateFailures(t *testing.T) {
	svc, _, db := newUserService(t)
	testutil.CreateUser(t, db, "Ana", "ana@example.com", models.LevelOrdinary)

	for _, tc := range []struct{ email, password string }{
		{"ana@example.com", "wrong-password1"},
		{"nobody@example.com", testutil.Password},
		{"", ""},
	} {
		_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
		require.Error(t, err)
		assert.Equal(t, 401, models.HTTPStatus(err))
		assert.Equal(t, "Invalid email or password", err.Error())
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, _, db := newUserService(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", models.LevelOrdinary)
	testutil.CreateUser(t, db, "Bruno", "bruno@example.com", models.LevelOrdinary)

	t.Run("new password requires current", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: ana.ID, NewPassword: "NovaSenha1"})
		assert.Equal(t, 400, models.HTTPStatus(err))
	})

	t.Run("wrong current password", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: ana.ID, CurrentPassword: "nope12345", NewPassword: "NovaSenha1"})
		assert.Equal(t, 401, models.HTTPStatus(err))
	})

	t.Run("email taken", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: ana.ID, Email: "bruno@example.com"})
		assert.Equal(t, 400, models.HTTPStatus(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: 999, Name: "X"})
		assert.Equal(t, 404, models.HTTPStatus(err))
	})

	t.Run("empty fields keep current values", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{
			UserID:          ana.ID,
			Name:            "Ana Paula",
			CurrentPassword: testutil.Password,
			NewPassword:     "NovaSenha1",
		})
		require.NoError(t, err)
		assert.Equal(t, "Ana Paula", updated.Name)
		assert.Equal(t, "ana@example.com", updated.Email)

		_, err = svc.Authenticate(ctx, "ana@example.com", "NovaSenha1")
		assert.NoError(t, err)
	})
}

func TestUserService_ProfileImageAndLevels(t *testing.T) {
	svc, _, db := newUserService(t)
	ctx := context.Background()
	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", models.LevelOrdinary)

	_, err := svc.UpdateProfileImage(ctx, ana.ID, "")
	assert.Equal(t, 400, models.HTTPStatus(err))
	_, err = svc.UpdateProfileImage(ctx, 999, "https://img/x.png")
	assert.Equal(t, 404, models.HTTPStatus(err))

	user, err := svc.UpdateProfileImage(ctx, ana.ID, "https://img/ana.png")
	require.NoError(t, err)
	require.NotNil(t, user.ProfileImage)
	assert.Equal(t, "https://img/ana.png", *user.ProfileImage)

	promoted, err := svc.SetLevelByEmail(ctx, "ANA@example.com", models.LevelAdmin)
	require.NoError(t, err)
	assert.True(t, promoted.Level.IsAdmin())

	_, err = svc.SetLevelByEmail(ctx, "ghost@example.com", models.LevelAdmin)
	assert.Equal(t, 404, models.HTTPStatus(err))

	current, err := svc.GetCurrentUser(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LevelAdmin, current.Level)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	svc, _, db := newUserService(t)
	ctx := context.Background()

	root, created, err := svc.EnsureAdmin(ctx, "root", "root@example.com", "RootSenha1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.LevelAdmin, root.Level)

	again, created, err := svc.EnsureAdmin(ctx, "root", "root@example.com", "Ignored123")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, root.ID, again.ID)

	bruno := testutil.CreateUser(t, db, "Bruno", "bruno@example.com", models.LevelOrdinary)
	promoted, created, err := svc.EnsureAdmin(ctx, "Bruno", "bruno@example.com", "whatever1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, bruno.ID, promoted.ID)
	assert.Equal(t, models.LevelAdmin, promoted.Level)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, svc.DeleteUser(ctx, bruno.ID))
	assert.Equal(t, 404, models.HTTPStatus(svc.DeleteUser(ctx, bruno.ID)))
}

func TestUserService_DeleteUserReportsCounterDrift(t *testing.T) {
	svc, _, db := newUserService(t)
	ctx := context.Background()

	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", models.LevelOrdinary)
	fan := testutil.CreateUser(t, db, "Bruno", "bruno@example.com", models.LevelOrdinary)
	post := testutil.CreatePost(t, db, ana.ID, "Feira livre")
	require.NoError(t, db.Omit("Post", "User").Create(&models.Like{PostID: post.ID, UserID: fan.ID}).Error)

	before := promtestutil.ToFloat64(observability.LedgerInvariantViolations)
	err := svc.DeleteUser(ctx, fan.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrCounterUnderflow)
	assert.Equal(t, before+1, promtestutil.ToFloat64(observability.LedgerInvariantViolations))

	_, rows := testutil.LikeCount(t, db, post.ID)
	assert.Equal(t, int64(1), rows)
}
