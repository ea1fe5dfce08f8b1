package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cidadeemfoco/internal/database"
	"cidadeemfoco/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a migrated SQLite database in a temp dir with foreign keys on.
// A single connection serialises writers the way row locks would on PostgreSQL.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=1&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Password is the plain-text password of users created by CreateUser.
const Password = "Senha@123"

var passwordHash []byte

// CreateUser inserts a user with Password as its password.
func CreateUser(t *testing.T, db *gorm.DB, name, email string, level models.Level) *models.User {
	t.Helper()
	if passwordHash == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		passwordHash = hash
	}
	user := &models.User{Name: name, Email: email, Password: string(passwordHash), Level: level}
	if err := db.WithContext(context.Background()).Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreatePost inserts a post owned by userID with a zero counter.
func CreatePost(t *testing.T, db *gorm.DB, userID uint, description string) *models.Post {
	t.Helper()
	post := &models.Post{
		ImageURL:    "https://res.cloudinary.com/demo/image/upload/sample.jpg",
		Description: description,
		UserID:      userID,
		CreatedAt:   time.Now(),
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

// LikeCount returns the stored counter and the number of like rows for postID.
func LikeCount(t *testing.T, db *gorm.DB, postID uint) (counter int, rows int64) {
	t.Helper()
	var post models.Post
	if err := db.First(&post, postID).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if err := db.Model(&models.Like{}).Where(map[string]any{"publicacaoId": postID}).Count(&rows).Error; err != nil {
		t.Fatalf("count likes: %v", err)
	}
	return post.Likes, rows
}
