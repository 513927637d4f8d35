package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:             "8080",
		Env:              "development",
		JWTSecret:        "secure-secret-at-least-32-chars-long",
		JWTExpiryMinutes: 60,
		DBDriver:         "postgres",
		DBPassword:       "secure-password",
		DBSSLMode:        "require",
		MediaRoot:        "wwwroot",
		MediaMaxUploadMB: 10,
		FeedDefaultSize:  20,
		CommentTreeDepth: 64,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid development", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Zero expiry", func(c *Config) { c.JWTExpiryMinutes = 0 }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"SQLite in development", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"Unknown schema mode", func(c *Config) { c.DBSchemaMode = "yolo" }, true},
		{"Missing media root", func(c *Config) { c.MediaRoot = "" }, true},
		{"Zero feed size", func(c *Config) { c.FeedDefaultSize = 0 }, true},
		{"Zero tree depth", func(c *Config) { c.CommentTreeDepth = 0 }, true},
		{"Production valid", func(c *Config) { c.Env = "production" }, false},
		{"Production default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"Production short secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"Production sqlite", func(c *Config) { c.Env = "production"; c.DBDriver = "sqlite" }, true},
		{"Production weak db password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"Production ssl disabled", func(c *Config) { c.Env = "production"; c.DBSSLMode = "disable" }, true},
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

func TestConfig_TokenTTL(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 60*time.Minute, c.TokenTTL())

	c.JWTExpiryMinutes = 5
	assert.Equal(t, 5*time.Minute, c.TokenTTL())
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_DRIVER")
	defer os.Unsetenv("MEDIA_BASE_URL")
	defer os.Unsetenv("JWT_EXPIRY_MINUTES")

	os.Setenv("APP_ENV", "test")
	os.Setenv("DB_DRIVER", "  SQLite ")
	os.Setenv("MEDIA_BASE_URL", "http://cdn.local/")
	os.Setenv("JWT_EXPIRY_MINUTES", "15")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "http://cdn.local", cfg.MediaBaseURL)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL())
	assert.Equal(t, 20, cfg.FeedDefaultSize)
	assert.Equal(t, "xchangez-api", cfg.JWTIssuer)
	assert.Equal(t, "hybrid", cfg.DBSchemaMode)
	assert.Equal(t, DefaultAllowedOrigins, cfg.AllowedOrigins)
}
