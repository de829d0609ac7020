package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/denzelpenzel/tours/internal/api"
	"github.com/denzelpenzel/tours/internal/config"
	"github.com/denzelpenzel/tours/internal/database"
	"github.com/denzelpenzel/tours/internal/logger"
	"github.com/denzelpenzel/tours/internal/ratelimit"
	"github.com/denzelpenzel/tours/internal/repository"
	"github.com/denzelpenzel/tours/internal/services"
	"go.uber.org/zap"
)

// sweepRateLimits drops expired rate limit windows until ctx is done
func sweepRateLimits(ctx context.Context, store *ratelimit.MemoryStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep()
		}
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewLogger(cfg.Server.Environment, cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize database
	db, err := database.NewConnection(ctx, cfg.Database, cfg.Database.AutoMigrate, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, zapLogger)
	tourRepo := repository.NewTourRepository(db, zapLogger)
	reviewRepo := repository.NewReviewRepository(db, zapLogger)

	// Initialize services
	mailer, err := services.NewEmailService(services.EmailOptions{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to configure email", zap.Error(err))
	}
	authService := services.NewAuthService(userRepo, mailer, services.AuthOptions{
		Secret:     cfg.JWT.Secret,
		ExpiresIn:  cfg.JWT.ExpiresIn,
		BCryptCost: cfg.Security.BCryptCost,
	}, zapLogger)
	userService := services.NewUserService(userRepo, zapLogger)
	tourService := services.NewTourService(tourRepo, reviewRepo, userRepo, zapLogger)
	reviewService := services.NewReviewService(reviewRepo, tourRepo, zapLogger)

	limiter := ratelimit.NewMemoryStore(cfg.Security.RateLimitMax, cfg.Security.RateLimitWindow)
	go sweepRateLimits(ctx, limiter, time.Minute)

	// Initialize API server
	server := api.NewServer(cfg, zapLogger, authService, userService, tourService, reviewService, limiter)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}
