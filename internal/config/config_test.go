package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("STUB_STORAGE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1", cfg.APIBaseURL)
	assert.Equal(t, BackendFile, cfg.SessionBackend)
	assert.Equal(t, 300*time.Millisecond, cfg.SessionSettle)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Zero(t, cfg.OTPResendCooldown)
	assert.Equal(t, ":8080", cfg.StubAddr())
	assert.False(t, cfg.CloudinaryEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.vendora.ng/v1/")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("SESSION_SETTLE_DELAY", "1s")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.ng , ,https://b.ng")
	t.Setenv("PORT", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.vendora.ng/v1", cfg.APIBaseURL)
	assert.Equal(t, BackendRedis, cfg.SessionBackend)
	assert.Equal(t, time.Second, cfg.SessionSettle)
	assert.Equal(t, []string{"https://a.ng", "https://b.ng"}, cfg.AllowedOrigins)
	assert.Equal(t, ":9090", cfg.StubAddr())
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("SESSION_BACKEND", "sqlite")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_BACKEND")
	})

	t.Run("mongo without uri", func(t *testing.T) {
		t.Setenv("SESSION_BACKEND", "mongo")
		t.Setenv("MONGO_URI", "")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MONGO_URI")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "soon")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
	})
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CATEGORIES_LIMIT", "25")
	assert.Equal(t, 25, GetEnvInt("CATEGORIES_LIMIT", 10))
	t.Setenv("CATEGORIES_LIMIT", "many")
	assert.Equal(t, 10, GetEnvInt("CATEGORIES_LIMIT", 10))
}
