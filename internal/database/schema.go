package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cidadeemfoco/internal/config"
	"cidadeemfoco/internal/middleware"

	"gorm.io/gorm"
)

const (
	// SchemaModeSQL applies the embedded SQL migrations.
	SchemaModeSQL = "sql"
	// SchemaModeAuto runs GORM AutoMigrate over PersistentModels.
	SchemaModeAuto = "auto"
)

// SchemaStatus describes what ApplySchema would do for a configuration.
type SchemaStatus struct {
	Mode              string
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
}

func isProdLikeEnv(env string) bool {
	e := strings.ToLower(strings.TrimSpace(env))
	return e == "production" || e == "prod" || e == "staging" || e == "stage"
}

// SchemaMode resolves DB_SCHEMA_MODE, defaulting to SQL migrations in production-like
// environments and AutoMigrate elsewhere.
func SchemaMode(cfg *config.Config) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		if isProdLikeEnv(cfg.Env) {
			return SchemaModeSQL, nil
		}
		return SchemaModeAuto, nil
	}

	switch mode {
	case SchemaModeSQL:
		return mode, nil
	case SchemaModeAuto:
		if isProdLikeEnv(cfg.Env) {
			return "", fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// AutoMigrate creates or updates the tables of PersistentModels.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database schema up to date according to the configured mode.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode, err := SchemaMode(cfg)
	if err != nil {
		return err
	}

	middleware.Logger.Info("Applying database schema", slog.String("mode", mode), slog.String("env", cfg.Env))
	switch mode {
	case SchemaModeSQL:
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	case SchemaModeAuto:
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports applied and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	mode, err := SchemaMode(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:        mode,
		Environment: cfg.Env,
	}
	if mode != SchemaModeSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range GetMigrations() {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
