// Package bootstrap wires the process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cidadeemfoco/internal/cache"
	"cidadeemfoco/internal/config"
	"cidadeemfoco/internal/database"
	"cidadeemfoco/internal/media"
	"cidadeemfoco/internal/middleware"
	"cidadeemfoco/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema migrates the database according to DB_SCHEMA_MODE after connecting.
	ApplySchema bool
	// SkipMedia leaves Runtime.Media nil, for commands that never touch images.
	SkipMedia bool
}

// Runtime holds the connections a command needs.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Media media.Host
}

// InitRuntime connects to the database, Redis and the media host. Redis is optional and
// Runtime.Redis is nil when it cannot be reached.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	rt := &Runtime{DB: db, Redis: cache.GetClient()}

	if !opts.SkipMedia {
		host, err := media.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("media host: %w", err)
		}
		rt.Media = host
	}

	return rt, nil
}

// Close releases the database and Redis connections.
func (rt *Runtime) Close() {
	if sqlDB, err := rt.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
}

// EnsureDevRootAdmin provisions the development administrator when DEV_BOOTSTRAP_ROOT is on.
// It never runs outside the development environment.
func EnsureDevRootAdmin(ctx context.Context, cfg *config.Config, users *service.UserService) error {
	if cfg == nil || users == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	name := strings.TrimSpace(cfg.DevRootName)
	if name == "" {
		name = "root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@cidadeemfoco.local"
	}
	if cfg.DevRootPassword == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	user, created, err := users.EnsureAdmin(ctx, name, email, cfg.DevRootPassword)
	if err != nil {
		return fmt.Errorf("bootstrap root admin: %w", err)
	}

	middleware.Logger.Info("development root admin ensured",
		slog.Any("user_id", user.ID),
		slog.String("email", user.Email),
		slog.Bool("created", created),
	)
	return nil
}
