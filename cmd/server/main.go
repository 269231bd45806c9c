package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/auth"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/config"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/db"
	api "github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/http"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/llm"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/observability"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/ratelimit"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/repo"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/service"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.Logger().Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	observability.Configure(os.Stdout, cfg.LogLevel)
	logger := observability.Logger()
	ctx := context.Background()

	var st store.Store
	switch cfg.Storage {
	case config.StorageMemory:
		st = memory.New()
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolSettings{
			MaxConns:        int32(cfg.DBMaxConns),
			MinConns:        int32(cfg.DBMinConns),
			MaxConnIdleTime: cfg.DBMaxConnIdle,
		})
		if err != nil {
			logger.Error("failed to connect db", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.RunMigrations(ctx, pool, os.DirFS(cfg.MigrationsDir)); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		st = repo.New(pool)
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to create llm client", "backend", cfg.LLMBackend, "error", err)
		os.Exit(1)
	}

	authManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	svc := service.New(st, authManager, client, cfg.ChatModels)

	loginLimiter := ratelimit.New(cfg.LoginLimit.Window, cfg.LoginLimit.Max)
	registerLimiter := ratelimit.New(cfg.RegisterLimit.Window, cfg.RegisterLimit.Max)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweep(sweepCtx, time.Minute, loginLimiter, registerLimiter)

	handler := &api.API{
		Service:         svc,
		Origins:         cfg.CORSOrigins,
		LoginLimiter:    loginLimiter,
		RegisterLimiter: registerLimiter,
		Storage:         cfg.Storage,
		LLMBackend:      cfg.LLMBackend,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "storage", cfg.Storage, "llm", cfg.LLMBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}

func newLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMBackend {
	case config.LLMGemini:
		return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	case config.LLMVertex:
		return llm.NewVertexClient(ctx, cfg.GCPProject, cfg.GCPLocation)
	default:
		return llm.NewMock(), nil
	}
}

// sweep drops idle rate limit keys until ctx is cancelled.
func sweep(ctx context.Context, every time.Duration, limiters ...*ratelimit.Limiter) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range limiters {
				l.Sweep()
			}
		}
	}
}
