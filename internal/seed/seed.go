// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/repository"
	"cidadeemfoco/internal/service"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumPosts        int
	MaxLikesPerPost int
	// MaxDays spreads post creation dates over the last N days.
	MaxDays int
	// SkipBcrypt stores DefaultPassword unhashed. Seeded users cannot log in.
	SkipBcrypt bool
	// RandomSeed makes the generated data reproducible when non-zero.
	RandomSeed int64
}

// DefaultOptions returns the options used by the seed command.
func DefaultOptions() Options {
	return Options{NumUsers: 20, NumPosts: 60, MaxLikesPerPost: 10, MaxDays: 90}
}

// Summary counts what a seeding run created.
type Summary struct {
	Users int
	Posts int
	Likes int
}

// Seeder populates the database with users, posts and likes.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	ledger  *service.EngagementLedger
}

// NewSeeder creates a Seeder. Likes go through the engagement ledger so every
// post counter matches its like rows.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		opts:    opts,
		factory: NewFactory(db, opts),
		ledger: service.NewEngagementLedger(
			repository.NewPostRepository(db),
			repository.NewLikeRepository(db),
			nil,
		),
	}
}

// Factory exposes the seeder's factory for callers that need extra records.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll removes every like, post and user, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Like{}, &models.Post{}, &models.User{}} {
		if err := db.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run creates NumUsers users, NumPosts posts spread over random authors and a
// random set of likes on each post.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", s.opts.NumUsers, s.opts.NumPosts)
	summary := &Summary{}

	users, err := s.SeedUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return summary, fmt.Errorf("failed to create users: %w", err)
	}
	summary.Users = len(users)
	log.Printf("✓ %d users created", len(users))

	if len(users) == 0 {
		return summary, nil
	}

	posts, err := s.SeedPosts(ctx, users, s.opts.NumPosts)
	if err != nil {
		return summary, fmt.Errorf("failed to create posts: %w", err)
	}
	summary.Posts = len(posts)
	log.Printf("✓ %d posts created", len(posts))

	likes, err := s.SeedLikes(ctx, users, posts, s.opts.MaxLikesPerPost)
	if err != nil {
		return summary, fmt.Errorf("failed to create likes: %w", err)
	}
	summary.Likes = likes
	log.Printf("✓ %d likes recorded", likes)

	log.Println("🎉 Database seeding completed successfully!")
	return summary, nil
}

// SeedUsers creates n ordinary users.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for range n {
		user, err := s.factory.CreateUser(ctx)
		if err != nil {
			return users, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedPosts creates n posts, each authored by a random user from users.
func (s *Seeder) SeedPosts(ctx context.Context, users []*models.User, n int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, errors.New("no users to author posts")
	}
	posts := make([]*models.Post, 0, n)
	for range n {
		author := users[s.factory.rnd.Intn(len(users))]
		post, err := s.factory.CreatePost(ctx, author)
		if err != nil {
			return posts, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SeedLikes has a random subset of users like each post and returns the number
// of likes recorded. Each post's counter reflects its likes afterwards.
func (s *Seeder) SeedLikes(ctx context.Context, users []*models.User, posts []*models.Post, maxPerPost int) (int, error) {
	total := 0
	for _, post := range posts {
		for _, user := range s.factory.PickLikers(users, maxPerPost) {
			result, err := s.ledger.Like(ctx, post.ID, user.ID)
			if err != nil {
				if errors.Is(err, models.ErrAlreadyLiked) {
					continue
				}
				return total, err
			}
			post.Likes = result.Likes
			total++
		}
	}
	return total, nil
}
