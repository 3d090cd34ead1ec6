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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pmajay/image-verifier/internal/adapter/postgres"
	redisadapter "github.com/pmajay/image-verifier/internal/adapter/redis"
	"github.com/pmajay/image-verifier/internal/analyzer"
	"github.com/pmajay/image-verifier/internal/delivery/http/handler"
	"github.com/pmajay/image-verifier/internal/delivery/http/request"
	"github.com/pmajay/image-verifier/internal/delivery/http/router"
	"github.com/pmajay/image-verifier/internal/repository"
	"github.com/pmajay/image-verifier/internal/usecase"
	"github.com/pmajay/image-verifier/pkg/config"
	"github.com/pmajay/image-verifier/pkg/logger"
	"github.com/pmajay/image-verifier/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	metrics.Init()

	ctx := context.Background()

	// --- Storage, both optional ---
	var store repository.VerificationRepository
	if cfg.PostgresURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal("unable to connect to database", zap.Error(err))
		}
		defer dbpool.Close()

		repo := postgres.NewVerificationRepo(dbpool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal("unable to prepare database schema", zap.Error(err))
		}
		store = repo
		log.Info("postgres connection pool established")
	} else {
		log.Warn("POSTGRES_URL not set, verification history disabled")
	}

	var cache repository.ResultCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The cache is an optimisation; keep serving without it.
			log.Warn("redis unreachable at startup", zap.Error(err))
		}
		cache = redisadapter.NewResultCache(rdb)
		log.Info("redis result cache configured", zap.String("addr", cfg.RedisAddr))
	}

	// --- Use Cases ---
	imageAnalyzer := analyzer.New(
		analyzer.WithLogger(log.Named("analyzer")),
		analyzer.WithMaxPhotoAge(cfg.PhotoMaxAge()),
		analyzer.WithWorkers(cfg.AnalysisWorkers),
	)
	verifier := usecase.NewVerifier(imageAnalyzer, cache, store, usecase.VerifierConfig{
		MaxFiles:    cfg.MaxFilesPerBatch,
		CacheTTL:    cfg.CacheTTL(),
		MaxPhotoAge: cfg.PhotoMaxAge(),
	}, log.Named("verifier"))

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(verifier, request.UploadLimits{
		MaxFileSize: cfg.MaxFileSize(),
		MaxFiles:    cfg.MaxFilesPerBatch,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()
	log.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exiting")
}
