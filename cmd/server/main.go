package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/config"
	"github.com/3gr1v750v/api-yamdb-docker/internal/database"
	"github.com/3gr1v750v/api-yamdb-docker/internal/handler"
	"github.com/3gr1v750v/api-yamdb-docker/internal/mailer"
	"github.com/3gr1v750v/api-yamdb-docker/internal/middleware"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET is required")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect(cfg)
	if err := database.Migrate(database.DB); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Confirmation mail goes through Redis when it is configured, otherwise
	// it is sent inline from the signup request.
	smtpSender := mailer.NewSMTPSender(cfg.Mail)
	var sender mailer.Sender = smtpSender
	var limiter *middleware.RateLimiter

	if cfg.RedisURL != "" {
		queue, err := mailer.NewRedisQueue(cfg.RedisURL, cfg.Mail.QueueKey)
		if err != nil {
			logger.Log.Fatal("Failed to initialize mail queue", zap.Error(err))
		}
		defer queue.Close()
		sender = queue

		wg.Add(1)
		go func() {
			defer wg.Done()
			mailer.NewDispatcher(queue, smtpSender).Run(ctx)
		}()

		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		limiterClient := redis.NewClient(opts)
		defer limiterClient.Close()
		limiter = middleware.NewRateLimiter(limiterClient, middleware.RateLimiterConfig{
			Scope:       "auth",
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
			BlockTime:   cfg.RateLimitBlockTime,
		})
	} else {
		logger.Log.Warn("REDIS_URL not set: mail is sent inline and /auth is not rate limited")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	categoryRepo := repository.NewCategoryRepository(database.DB)
	genreRepo := repository.NewGenreRepository(database.DB)
	titleRepo := repository.NewTitleRepository(database.DB)
	reviewRepo := repository.NewReviewRepository(database.DB)
	commentRepo := repository.NewCommentRepository(database.DB)

	// Initialize services
	reviewService := service.NewReviewService(reviewRepo, titleRepo)
	services := handler.Services{
		Auth:     service.NewAuthService(userRepo, sender, cfg),
		Users:    service.NewUserService(userRepo),
		Catalog:  service.NewCatalogService(categoryRepo, genreRepo),
		Titles:   service.NewTitleService(titleRepo, categoryRepo, genreRepo, cfg.Now),
		Reviews:  reviewService,
		Comments: service.NewCommentService(commentRepo, reviewService),
	}

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           handler.NewRouter(cfg, services, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
	wg.Wait()

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Log.Info("Server stopped")
}
