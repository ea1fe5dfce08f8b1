package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Exists(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "publicacao" WHERE id = $1`)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.Exists(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CreateAndList(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "Ana", "ana@example.com", models.LevelOrdinary)

	older := &models.Post{ImageURL: "https://img/1.png", Description: "first", UserID: author.ID, Likes: 9, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, older))
	assert.Equal(t, 0, older.Likes)

	newer := &models.Post{ImageURL: "https://img/2.png", Description: "second", UserID: author.ID}
	require.NoError(t, repo.Create(ctx, newer))

	posts, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "Ana", posts[0].Author.Name)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)

	got, err := repo.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Description)
	assert.Equal(t, author.ID, got.Author.ID)

	_, err = repo.GetByID(ctx, 404)
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestPostRepository_CreateForUnknownUser(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)

	err := repo.Create(context.Background(), &models.Post{ImageURL: "x", Description: "y", UserID: 42})
	require.Error(t, err)
	assert.Equal(t, 404, models.HTTPStatus(err))
}

func TestPostRepository_ListEmpty(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	posts, err := NewPostRepository(db).List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}
