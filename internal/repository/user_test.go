package repository

import (
	"context"
	"regexp"
	"testing"

	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		userID        uint
		mockBehavior  func()
		expectedUser  *models.User
		expectedError bool
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"cod_usuario", "nome", "email", "level"}).
					AddRow(1, "Ana", "ana@example.com", 2)
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "usuario" WHERE "usuario"."cod_usuario" = $1 ORDER BY "usuario"."cod_usuario" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Name: "Ana", Email: "ana@example.com", Level: models.LevelAdmin},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "usuario"`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)
			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, user)
				assert.Equal(t, 404, models.HTTPStatus(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedUser, user)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "Ana", Email: "ana@example.com", Password: "x", Level: models.LevelOrdinary}))
	err := repo.Create(ctx, &models.User{Name: "Ana 2", Email: "ana@example.com", Password: "y", Level: models.LevelOrdinary})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	found, err := repo.GetByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUserRepository_UpdatesAndLevels(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "Ana", "ana@example.com", models.LevelOrdinary)

	require.NoError(t, repo.UpdateProfileImage(ctx, user.ID, "https://img/ana.png"))
	require.NoError(t, repo.SetLevel(ctx, user.ID, models.LevelAdmin))
	assert.Error(t, repo.SetLevel(ctx, user.ID, models.Level(7)))
	assert.Equal(t, 404, models.HTTPStatus(repo.UpdateProfileImage(ctx, 999, "x")))

	profile, err := repo.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.ProfileImage)
	assert.Equal(t, "https://img/ana.png", *profile.ProfileImage)
	assert.Equal(t, models.LevelAdmin, profile.Level)
	assert.Empty(t, profile.Password)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepository_DeleteKeepsCountersConsistent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	users := NewUserRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", models.LevelOrdinary)
	bruno := testutil.CreateUser(t, db, "Bruno", "bruno@example.com", models.LevelOrdinary)
	carla := testutil.CreateUser(t, db, "Carla", "carla@example.com", models.LevelOrdinary)

	anaPost := testutil.CreatePost(t, db, ana.ID, "Ana's post")
	brunoPost := testutil.CreatePost(t, db, bruno.ID, "Bruno's post")

	for _, like := range []struct{ post, user uint }{
		{brunoPost.ID, ana.ID},
		{brunoPost.ID, carla.ID},
		{anaPost.ID, bruno.ID},
		{anaPost.ID, ana.ID},
	} {
		_, err := likes.AddLike(ctx, like.post, like.user)
		require.NoError(t, err)
	}

	require.NoError(t, users.Delete(ctx, ana.ID))

	counter, rows := testutil.LikeCount(t, db, brunoPost.ID)
	assert.Equal(t, 1, counter)
	assert.Equal(t, int64(1), rows)

	var remaining int64
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", anaPost.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, db.Model(&models.Like{}).Where(map[string]any{"publicacaoId": anaPost.ID}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	assert.Equal(t, 404, models.HTTPStatus(users.Delete(ctx, ana.ID)))
}

func TestUserRepository_DeleteRejectsDriftedCounter(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", models.LevelOrdinary)
	fan := testutil.CreateUser(t, db, "Bruno", "bruno@example.com", models.LevelOrdinary)
	post := testutil.CreatePost(t, db, ana.ID, "Ponte iluminada")

	// Like row written without its counter increment.
	require.NoError(t, db.Omit("Post", "User").Create(&models.Like{PostID: post.ID, UserID: fan.ID}).Error)

	err := users.Delete(ctx, fan.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCounterUnderflow)
	assert.Equal(t, 500, models.HTTPStatus(err))

	counter, rows := testutil.LikeCount(t, db, post.ID)
	assert.Equal(t, 0, counter)
	assert.Equal(t, int64(1), rows, "deletion must roll back")

	var stillThere int64
	require.NoError(t, db.Model(&models.User{}).Where("cod_usuario = ?", fan.ID).Count(&stillThere).Error)
	assert.Equal(t, int64(1), stillThere)
}
