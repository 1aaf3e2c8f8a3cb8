package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the variables Load refuses to start without
func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USER", "notesquared")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "notesquared")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshTokenExpiry)
	assert.Equal(t, "uploads", cfg.AudioBasePath)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, 120*time.Second, cfg.OpenAI.RequestTimeout)
	assert.Equal(t, "0 * * * *", cfg.Cleanup.CronSpec)
	assert.Equal(t, 24*time.Hour, cfg.Cleanup.StaleAge)
}

func TestLoadOpenAIRequestTimeout(t *testing.T) {
	t.Run("override", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("OPENAI_REQUEST_TIMEOUT", "45s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 45*time.Second, cfg.OpenAI.RequestTimeout)
	})

	t.Run("invalid value", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("OPENAI_REQUEST_TIMEOUT", "soon")

		_, err := Load()

		assert.ErrorContains(t, err, "invalid OPENAI_REQUEST_TIMEOUT")
	})
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "")

	_, err := Load()

	assert.ErrorContains(t, err, "DB_HOST is required")
}

func TestDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.User = "notesquared"
	cfg.Database.Password = "secret"
	cfg.Database.Host = "db"
	cfg.Database.Port = 3306
	cfg.Database.DBName = "notesquared"

	assert.Equal(t, "notesquared:secret@tcp(db:3306)/notesquared?parseTime=true&charset=utf8mb4", cfg.DSN())
}
