package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tenant-task-api/internal/auth"
	"github.com/yukikurage/tenant-task-api/internal/config"
	"github.com/yukikurage/tenant-task-api/internal/database"
	"github.com/yukikurage/tenant-task-api/internal/handlers"
	"github.com/yukikurage/tenant-task-api/internal/logger"
	"github.com/yukikurage/tenant-task-api/internal/middleware"
	"github.com/yukikurage/tenant-task-api/internal/repository"
	"github.com/yukikurage/tenant-task-api/internal/scheduler"
	"github.com/yukikurage/tenant-task-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err, "driver", cfg.DBDriver)
		os.Exit(1)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	jobs := scheduler.New()
	revocations, closeRevocations := newRevocationStore(cfg, jobs)
	defer closeRevocations()

	// Initialize services
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	credentials := auth.NewCredentialService(cfg.JWTSecret, cfg.TokenTTL, cfg.TokenIssuer)

	authService := services.NewAuthService(userRepo, credentials, revocations)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	handlers.Routes{
		Health:        handlers.NewHealthHandler(db),
		Auth:          handlers.NewAuthHandler(authService, cfg.IsProduction()),
		Users:         handlers.NewUserHandler(userService),
		Tasks:         handlers.NewTaskHandler(taskService),
		Authenticator: authService,
	}.Register(r)

	jobs.Start()
	defer jobs.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "mode", cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
}

// newRevocationStore uses redis when REDIS_URL is set so logouts are shared
// across instances, and otherwise a local store pruned by the scheduler.
func newRevocationStore(cfg *config.Config, jobs *scheduler.Scheduler) (repository.RevocationStore, func()) {
	if cfg.RedisURL != "" {
		rdb, err := repository.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		logger.Info("Using redis revocation store")
		return repository.NewRedisRevocationStore(rdb), func() { _ = rdb.Close() }
	}

	store := repository.NewMemoryRevocationStore()
	err := jobs.Every("revocation-cleanup", time.Minute, func() {
		if removed := store.Cleanup(time.Now()); removed > 0 {
			logger.Info("Pruned expired revocations", "removed", removed, "remaining", store.Len())
		}
	})
	if err != nil {
		logger.Error("Failed to schedule revocation cleanup", "error", err)
		os.Exit(1)
	}
	logger.Warn("REDIS_URL not set, revocations are kept in memory")
	return store, func() {}
}
