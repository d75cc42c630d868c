package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"RETURNS_APP_NAME":                os.Getenv("RETURNS_APP_NAME"),
		"RETURNS_APP_ENV":                 os.Getenv("RETURNS_APP_ENV"),
		"RETURNS_APP_PORT":                os.Getenv("RETURNS_APP_PORT"),
		"RETURNS_DATABASE_HOST":           os.Getenv("RETURNS_DATABASE_HOST"),
		"RETURNS_DATABASE_MAX_OPEN_CONNS": os.Getenv("RETURNS_DATABASE_MAX_OPEN_CONNS"),
		"RETURNS_DATABASE_MAX_IDLE_CONNS": os.Getenv("RETURNS_DATABASE_MAX_IDLE_CONNS"),
		"RETURNS_RETURNS_WINDOW_DAYS":     os.Getenv("RETURNS_RETURNS_WINDOW_DAYS"),
		"SHIPROCKET_BASE_URL":             os.Getenv("SHIPROCKET_BASE_URL"),
		"SHIPROCKET_EMAIL":                os.Getenv("SHIPROCKET_EMAIL"),
		"SHIPROCKET_PASSWORD":             os.Getenv("SHIPROCKET_PASSWORD"),
		"SHIPROCKET_WEBHOOK_SECRET":       os.Getenv("SHIPROCKET_WEBHOOK_SECRET"),
		"SHIPROCKET_PICKUP_LOCATION":      os.Getenv("SHIPROCKET_PICKUP_LOCATION"),
		"SHIPROCKET_AUTO_FORWARD":         os.Getenv("SHIPROCKET_AUTO_FORWARD"),
		"SHIPROCKET_DEFAULT_WEIGHT":       os.Getenv("SHIPROCKET_DEFAULT_WEIGHT"),
		"RETURN_BANK_ENCRYPTION_KEY":      os.Getenv("RETURN_BANK_ENCRYPTION_KEY"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "returns-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "https://apiv2.shiprocket.in", cfg.Shiprocket.BaseURL)
		assert.Equal(t, 7, cfg.Returns.WindowDays)
		assert.Equal(t, 0.5, cfg.Shiprocket.DefaultWeight)
	})

	t.Run("binds provider env vars under upstream names", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPROCKET_BASE_URL", "https://sr.test")
		os.Setenv("SHIPROCKET_EMAIL", "ops@example.com")
		os.Setenv("SHIPROCKET_PASSWORD", "hunter2")
		os.Setenv("SHIPROCKET_WEBHOOK_SECRET", "whsec")
		os.Setenv("SHIPROCKET_PICKUP_LOCATION", "Primary")
		os.Setenv("SHIPROCKET_AUTO_FORWARD", "true")
		os.Setenv("SHIPROCKET_DEFAULT_WEIGHT", "1.25")
		os.Setenv("RETURN_BANK_ENCRYPTION_KEY", "c2VjcmV0")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://sr.test", cfg.Shiprocket.BaseURL)
		assert.Equal(t, "ops@example.com", cfg.Shiprocket.Email)
		assert.Equal(t, "hunter2", cfg.Shiprocket.Password)
		assert.Equal(t, "whsec", cfg.Shiprocket.WebhookSecret)
		assert.Equal(t, "Primary", cfg.Shiprocket.PickupLocation)
		assert.True(t, cfg.Shiprocket.AutoForward)
		assert.Equal(t, 1.25, cfg.Shiprocket.DefaultWeight)
		assert.Equal(t, "c2VjcmV0", cfg.Returns.BankEncryptionKey)
	})

	t.Run("loads values from environment variables with RETURNS prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("RETURNS_APP_NAME", "test-app")
		os.Setenv("RETURNS_APP_PORT", "9000")
		os.Setenv("RETURNS_DATABASE_HOST", "testdb.local")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("RETURNS_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("RETURNS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects negative return window", func(t *testing.T) {
		clearEnv()
		os.Setenv("RETURNS_RETURNS_WINDOW_DAYS", "-3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "window_days")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "svc",
		Password: "p@ss/word",
		DBName:   "returns",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Password is URL-escaped
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}
