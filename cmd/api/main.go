package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"agency-dashboard-backend/internal/ai"
	"agency-dashboard-backend/internal/analytics"
	"agency-dashboard-backend/internal/auth"
	"agency-dashboard-backend/internal/campaigns"
	"agency-dashboard-backend/internal/clients"
	"agency-dashboard-backend/internal/config"
	"agency-dashboard-backend/internal/db"
	"agency-dashboard-backend/internal/logging"
	"agency-dashboard-backend/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer database.Close()
	logger.Info("connected to postgres")

	if err := db.Migrate(ctx, database); err != nil {
		logger.Fatal("failed to apply schema", zap.Error(err))
	}

	// ----- PRIORITIZATION -----

	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY is empty; prioritization requests will fail")
	}
	var prioritizer ai.Prioritizer = ai.New(ai.Options{
		APIKey:          cfg.OpenAIKey,
		Model:           cfg.OpenAIModel,
		BaseURL:         cfg.OpenAIBaseURL,
		Timeout:         cfg.AITimeout,
		BreakerFailures: cfg.AIBreakerFailures,
		BreakerTimeout:  cfg.AIBreakerTimeout,
		Logger:          logger,
	})

	if cfg.RedisURL != "" {
		cache, err := ai.NewRedisCache(cfg.RedisURL, cfg.PrioritizationCacheTTL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.Ping(ctx); err != nil {
			logger.Warn("redis unreachable; cache misses until it recovers", zap.Error(err))
		}
		prioritizer = ai.NewCachedPrioritizer(prioritizer, cache, logger)
		logger.Info("prioritization cache enabled", zap.Duration("ttl", cfg.PrioritizationCacheTTL))
	}

	// ----- STORES & HANDLERS -----

	users := &auth.PGStore{DB: database}
	taskStore := &tasks.PGStore{DB: database}
	recorder := &analytics.Store{DB: database, Logger: logger}

	mux := newMux(auth.New([]byte(cfg.JWTSecret)), routes{
		auth: auth.NewHandler(users, []byte(cfg.JWTSecret), cfg.JWTTTL, auth.SuperAdmin{
			Email:    cfg.SuperAdminEmail,
			Password: cfg.SuperAdminPassword,
		}, recorder, logger),
		tasks:     tasks.New(taskStore, users, prioritizer, recorder, logger),
		campaigns: campaigns.NewHandler(&campaigns.PGStore{DB: database}, taskStore, users, recorder, logger),
		clients:   &clients.PGStore{DB: database},
		analytics: recorder,
		logger:    logger,
	})

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Platform", "X-App-Version", "X-Session-Id", "Idempotency-Key", "X-Source-Event-Key"},
		ExposedHeaders:   []string{"X-AI-Error", "Content-Disposition"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api server is running", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
