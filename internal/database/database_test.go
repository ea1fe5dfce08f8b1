package database

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"cidadeemfoco/internal/config"
	"cidadeemfoco/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=1"
	db, err := gorm.Open(sqlite.Open(dsn), GormConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, configurePool(db, &config.Config{}))
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestAutoMigrate_EnforcesLikeUniqueness(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))

	user := models.User{Name: "Ana", Email: "ana@example.com", Password: "hash", Level: models.LevelOrdinary}
	require.NoError(t, db.Create(&user).Error)
	post := models.Post{ImageURL: "https://img/1.png", Description: "praça", UserID: user.ID}
	require.NoError(t, db.Create(&post).Error)

	require.NoError(t, db.Create(&models.Like{PostID: post.ID, UserID: user.ID}).Error)
	err := db.Create(&models.Like{PostID: post.ID, UserID: user.ID}).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE"), err.Error())

	err = db.Create(&models.User{Name: "Ana 2", Email: "ana@example.com", Password: "hash", Level: models.LevelOrdinary}).Error
	assert.Error(t, err)
}

func TestAutoMigrate_EnforcesForeignKeys(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))

	err := db.Create(&models.Post{ImageURL: "x", Description: "y", UserID: 999}).Error
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations := GetMigrations()
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "000001_init", migrations[0].String())
	assert.Contains(t, migrations[0].UpScript, `UNIQUE ("publicacaoId", "usuarioId")`)
	assert.Contains(t, migrations[0].DownScript, "DROP TABLE IF EXISTS curtida")
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestLoadMigrations(t *testing.T) {
	t.Run("orders by version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/000002_b.up.sql":   {Data: []byte("B")},
			"m/000002_b.down.sql": {Data: []byte("-B")},
			"m/000001_a.up.sql":   {Data: []byte("A")},
			"m/000001_a.down.sql": {Data: []byte("-A")},
			"m/README.md":         {Data: []byte("ignored")},
		}
		migrations, err := LoadMigrations(fsys, "m")
		require.NoError(t, err)
		require.Len(t, migrations, 2)
		assert.Equal(t, "a", migrations[0].Name)
		assert.Equal(t, "-B", migrations[1].DownScript)
	})

	t.Run("missing down script", func(t *testing.T) {
		fsys := fstest.MapFS{"m/000001_a.up.sql": {Data: []byte("A")}}
		_, err := LoadMigrations(fsys, "m")
		assert.Error(t, err)
	})

	t.Run("invalid version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/abc_a.up.sql":   {Data: []byte("A")},
			"m/abc_a.down.sql": {Data: []byte("-A")},
		}
		_, err := LoadMigrations(fsys, "m")
		assert.Error(t, err)
	})
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestRunMigrations_ApplyAndRollback(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	migrations := []Migration{
		{Version: 1, Name: "bairros", UpScript: "CREATE TABLE bairro (id INTEGER PRIMARY KEY, nome TEXT)", DownScript: "DROP TABLE bairro"},
		{Version: 2, Name: "bairro_zona", UpScript: "ALTER TABLE bairro ADD COLUMN zona TEXT", DownScript: ""},
	}

	require.NoError(t, runMigrations(ctx, db, migrations))
	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasColumn("bairro", "zona"))

	// A second run is a no-op.
	require.NoError(t, runMigrations(ctx, db, migrations))

	require.NoError(t, rollbackMigration(ctx, db, migrations[1]))
	applied, err = NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, applied)

	err = rollbackMigration(ctx, db, migrations[1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been applied")

	require.NoError(t, rollbackMigration(ctx, db, migrations[0]))
	assert.False(t, db.Migrator().HasTable("bairro"))
}

func TestRunMigrations_FailedScriptIsNotRecorded(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	migrations := []Migration{
		{Version: 1, Name: "broken", UpScript: "CREATE TABLE", DownScript: ""},
	}

	require.Error(t, runMigrations(ctx, db, migrations))
	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestRunMigrations_RejectsUnknownVersions(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, db.AutoMigrate(&MigrationLog{}))
	require.NoError(t, db.Create(&MigrationLog{Version: 42, Name: "future"}).Error)

	err := runMigrations(ctx, db, []Migration{{Version: 1, Name: "a", UpScript: "SELECT 1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000042")
}

func TestGetAppliedMigrations_MissingTable(t *testing.T) {
	applied, err := NewMigrationStore(openSQLite(t)).GetAppliedMigrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestSchemaMode(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mode    string
		want    string
		wantErr bool
	}{
		{"development default", "development", "", SchemaModeAuto, false},
		{"production default", "production", "", SchemaModeSQL, false},
		{"explicit sql", "development", "sql", SchemaModeSQL, false},
		{"auto refused in production", "production", "auto", "", true},
		{"unknown", "development", "hybrid", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SchemaMode(&config.Config{Env: tt.env, DBSchemaMode: tt.mode})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
