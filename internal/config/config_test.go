package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 7*24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, RateLimit{Max: 5, Window: 15 * time.Minute}, cfg.LoginLimit)
	require.Equal(t, RateLimit{Max: 3, Window: time.Hour}, cfg.RegisterLimit)
	require.Equal(t, LLMMock, cfg.LLMBackend)
	require.Equal(t, "gemini-2.5-flash", cfg.ChatModels[0])
	require.Equal(t, 10, cfg.DBMaxConns)
	require.Equal(t, 2, cfg.DBMinConns)
	require.Equal(t, 5*time.Minute, cfg.DBMaxConnIdle)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("ACCESS_TOKEN_TTL", "1d")
	t.Setenv("REFRESH_TOKEN_TTL", "90m")
	t.Setenv("LOGIN_RATE_LIMIT", "10/1m")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("DB_MAX_CONN_IDLE", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 90*time.Minute, cfg.RefreshTokenTTL)
	require.Equal(t, RateLimit{Max: 10, Window: time.Minute}, cfg.LoginLimit)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.Equal(t, 25, cfg.DBMaxConns)
	require.Equal(t, time.Minute, cfg.DBMaxConnIdle)
}

func TestLoadRequiresSecretAndDatabase(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadRejectsBadRateLimit(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("REGISTER_RATE_LIMIT", "three per hour")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadPoolSize(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("DB_MAX_CONNS", "lots")
	_, err := Load()
	require.Error(t, err)
}
