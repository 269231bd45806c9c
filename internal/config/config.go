package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	LLMMock   = "mock"
	LLMGemini = "gemini"
	LLMVertex = "vertex"
)

type RateLimit struct {
	Max    int
	Window time.Duration
}

type Config struct {
	Port          string
	DatabaseURL   string
	Storage       string
	MigrationsDir string
	LogLevel      string

	DBMaxConns    int
	DBMinConns    int
	DBMaxConnIdle time.Duration

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CORSOrigins     []string

	LoginLimit    RateLimit
	RegisterLimit RateLimit

	LLMBackend   string
	GeminiAPIKey string
	GCPProject   string
	GCPLocation  string
	ChatModels   []string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	// "7d" style values are accepted alongside Go durations.
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

// getRateLimitEnv parses "<max>/<window>", e.g. "5/15m".
func getRateLimitEnv(key string, def RateLimit) (RateLimit, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	parts := strings.SplitN(v, "/", 2)
	if len(parts) != 2 {
		return RateLimit{}, fmt.Errorf("%s: expected <max>/<window>", key)
	}
	max, err := strconv.Atoi(parts[0])
	if err != nil || max < 1 {
		return RateLimit{}, fmt.Errorf("%s: invalid max %q", key, parts[0])
	}
	window, err := time.ParseDuration(parts[1])
	if err != nil {
		return RateLimit{}, fmt.Errorf("%s: %w", key, err)
	}
	return RateLimit{Max: max, Window: window}, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Storage:       getEnv("STORAGE_BACKEND", StoragePostgres),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CORSOrigins:   splitList(os.Getenv("CORS_ORIGIN")),
		LLMBackend:    getEnv("LLM_BACKEND", LLMMock),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GCPProject:    os.Getenv("GCP_PROJECT"),
		GCPLocation:   getEnv("GCP_LOCATION", "us-central1"),
		ChatModels:    splitList(getEnv("CHAT_MODELS", "gemini-2.5-flash,gemini-2.5-flash-lite,gemini-2.5-pro")),
	}

	var err error
	if cfg.AccessTokenTTL, err = getDurationEnv("ACCESS_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = getDurationEnv("REFRESH_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxConns, err = getIntEnv("DB_MAX_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.DBMinConns, err = getIntEnv("DB_MIN_CONNS", 2); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxConnIdle, err = getDurationEnv("DB_MAX_CONN_IDLE", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.LoginLimit, err = getRateLimitEnv("LOGIN_RATE_LIMIT", RateLimit{Max: 5, Window: 15 * time.Minute}); err != nil {
		return Config{}, err
	}
	if cfg.RegisterLimit, err = getRateLimitEnv("REGISTER_RATE_LIMIT", RateLimit{Max: 3, Window: time.Hour}); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for postgres storage")
		}
	case StorageMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage)
	}
	switch cfg.LLMBackend {
	case LLMMock:
	case LLMGemini:
		if cfg.GeminiAPIKey == "" {
			return Config{}, errors.New("GEMINI_API_KEY is required for the gemini backend")
		}
	case LLMVertex:
		if cfg.GCPProject == "" {
			return Config{}, errors.New("GCP_PROJECT is required for the vertex backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown LLM_BACKEND %q", cfg.LLMBackend)
	}
	if len(cfg.ChatModels) == 0 {
		return Config{}, errors.New("CHAT_MODELS must list at least one model")
	}
	return cfg, nil
}
