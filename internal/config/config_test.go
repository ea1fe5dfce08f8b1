package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:               "development",
		Port:              "3344",
		JWTSecret:         "secure-secret-at-least-32-chars-long",
		JWTTTL:            24 * time.Hour,
		BcryptCost:        10,
		DBPassword:        "secure-password",
		DBSSLMode:         "require",
		MediaProvider:     MediaProviderDisk,
		MediaDir:          "./uploads",
		MediaMaxDimension: 500,
		MediaMaxUploadMB:  10,
	}
}

func TestConfig_ValidateProductionRules(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"valid production", func(c *Config) { c.Env = "production" }, false},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production with short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"production with default db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"production with ssl disabled", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "disable"
		}, true},
		{"production with dev root bootstrap", func(c *Config) {
			c.Env = "production"
			c.DevBootstrapRoot = true
		}, true},
		{"development with ssl disabled", func(c *Config) { c.DBSSLMode = "disable" }, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero ttl", func(c *Config) { c.JWTTTL = 0 }, true},
		{"bcrypt cost out of range", func(c *Config) { c.BcryptCost = 2 }, true},
		{"cloudinary without credentials", func(c *Config) { c.MediaProvider = MediaProviderCloudinary }, true},
		{"cloudinary with credentials", func(c *Config) {
			c.MediaProvider = MediaProviderCloudinary
			c.CloudinaryCloudName = "demo"
			c.CloudinaryAPIKey = "key"
			c.CloudinaryAPISecret = "secret"
		}, false},
		{"s3 without bucket", func(c *Config) { c.MediaProvider = MediaProviderS3 }, true},
		{"unknown provider", func(c *Config) { c.MediaProvider = "ftp" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("MEDIA_PROVIDER", "")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "")
	t.Setenv("S3_BUCKET", "")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "3344", c.Port)
	assert.Equal(t, 24*time.Hour, c.JWTTTL)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, MediaProviderDisk, c.MediaProvider)
	assert.Equal(t, int64(10*1024*1024), c.MaxUploadBytes())
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_PicksCloudinaryWhenCredentialsPresent(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "test")
	t.Setenv("MEDIA_PROVIDER", "")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")
	t.Setenv("JWT_TTL", "2h")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, MediaProviderCloudinary, c.MediaProvider)
	assert.Equal(t, "cidadeemfoco", c.CloudinaryFolder)
	assert.Equal(t, 2*time.Hour, c.JWTTTL)
}
