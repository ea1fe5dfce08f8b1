// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded user logs in with.
const DefaultPassword = "Cidade@123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the Seeder and tests.
type Factory struct {
	db    *gorm.DB
	posts repository.PostRepository
	opts  Options
	faker *gofakeit.Faker
	rnd *rand.Rand
	// hashed DefaultPassword, computed once per factory
	passwordHash string
	seq          int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
// A zero opts.RandomSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:    db,
		posts: repository.NewPostRepository(db),
		opts:  opts,
		faker: gofakeit.New(seed),
		rnd:   rand.New(rand.NewSource(seed)), //nolint:gosec // seeding only
	}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.passwordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		f.passwordHash = string(hash)
	}
	return f.passwordHash, nil
}

// BuildUser constructs a user without persisting it. Emails are unique per factory.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	password, err := f.password()
	if err != nil {
		return nil, err
	}

	f.seq++
	first := f.faker.FirstName()
	last := f.faker.LastName()
	avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID())
	user := &models.User{
		Name:         first + " " + last,
		Email:        fmt.Sprintf("%s.%s%d@example.com", emailLocal(first), emailLocal(last), f.seq),
		Password:     password,
		Level:        models.LevelOrdinary,
		ProfileImage: &avatar,
	}

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for user with a placeholder image and a
// created_at spread over the last MaxDays days. The post is not persisted.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	age := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute

	post := &models.Post{
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		Description: f.description(),
		UserID:      user.ID,
		CreatedAt:   time.Now().Add(-age),
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// emailLocal lowercases s and keeps only ASCII letters and digits.
func emailLocal(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}

var topics = []string{
	"buraco na rua", "praça", "iluminação", "calçada", "parque", "feira",
	"ciclovia", "ponto de ônibus", "grafite", "pôr do sol", "mercado", "ponte",
}

func (f *Factory) description() string {
	topic := topics[f.rnd.Intn(len(topics))]
	return fmt.Sprintf("%s: %s", topic, f.faker.Sentence(f.rnd.Intn(8)+4))
}

// CreatePost constructs and persists a sample post through the post repository,
// so it always starts with a zero counter.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// PickLikers returns a random subset of at most max distinct users.
func (f *Factory) PickLikers(users []*models.User, max int) []*models.User {
	if max <= 0 || len(users) == 0 {
		return nil
	}
	if max > len(users) {
		max = len(users)
	}
	n := f.rnd.Intn(max + 1)
	picked := make([]*models.User, 0, n)
	for _, i := range f.rnd.Perm(len(users))[:n] {
		picked = append(picked, users[i])
	}
	return picked
}
