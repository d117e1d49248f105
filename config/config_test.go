package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{Environment: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg = &Config{Environment: "production"}
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())

	cfg = &Config{Environment: "staging"}
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadWithOptions(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("ROOT_EMAIL", "admin@example.com")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("DB_HOST", "testhost")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "simulai_test")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SECRET_KEY", "test-key")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("FRONTEND_URL", "https://app.example.com/")

	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "testhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "testuser", cfg.Database.User)
	assert.Equal(t, "testpass", cfg.Database.Password)
	assert.Equal(t, "simulai_test", cfg.Database.DBName)
	assert.Equal(t, "admin@example.com", cfg.RootEmail)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "test-key", cfg.Security.SecretKey)
	assert.Equal(t, []byte(testJWTSecret), cfg.Security.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Security.TokenTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "https://app.example.com", cfg.FrontendURL)
	assert.Equal(t, 24*time.Hour, cfg.Session.StateTTL)
	assert.Equal(t, "SimulAI", cfg.SMTP.FromName)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestLoadWithOptions_SecretKeyDefaultsToJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("SECRET_KEY", "")

	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, testJWTSecret, cfg.Security.SecretKey)
	assert.Equal(t, 24*time.Hour, cfg.Security.TokenTTL)
}

func TestLoadWithOptions_JWTSecretValidation(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := LoadWithOptions(LoadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET is required")
	})

	t.Run("too short", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "short")
		_, err := LoadWithOptions(LoadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})
}

func TestLoadWithOptions_MissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)

	cfg, err := LoadWithOptions(LoadOptions{EnvFile: ".env.does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
