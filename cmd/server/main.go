package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sujalbistaa/cleancook/internal/config"
	"github.com/sujalbistaa/cleancook/internal/db"
	routes "github.com/sujalbistaa/cleancook/internal/http"
	"github.com/sujalbistaa/cleancook/internal/jobs"
	"github.com/sujalbistaa/cleancook/internal/logging"
	"github.com/sujalbistaa/cleancook/internal/ratelimit"
	"github.com/sujalbistaa/cleancook/internal/service"
	"github.com/sujalbistaa/cleancook/internal/upload"
	"github.com/sujalbistaa/cleancook/internal/ws"
)

func main() {
	// 1. Load configuration (.env first, then the environment)
	cfg, foundDotEnv, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if !foundDotEnv {
		log.Info("No .env file found, reading from environment")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 2. Initialize Database
	database, err := db.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 3. Run Migrations
	log.Info("Running database migrations...")
	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Info("Migrations complete.")

	uploads, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	// 4. Initialize WebSocket Hub
	hub := ws.NewHub(log, cfg.CORSOrigin)
	go hub.Run(ctx)

	// 5. Rate limiter: shared through Redis when configured, per process otherwise
	limiter := newLimiter(ctx, cfg, log)

	// 6. Counter reconciliation
	if cfg.ReconcileSchedule != "" {
		sched, err := jobs.NewReconciler(database, log).Schedule(cfg.ReconcileSchedule)
		if err != nil {
			log.Fatalf("Failed to schedule counter reconciliation: %v", err)
		}
		defer sched.Stop()
	}

	// 7. Initialize Gin Router
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Proxies()); err != nil {
		log.Fatalf("Invalid TRUSTED_PROXIES: %v", err)
	}

	env := &routes.Env{
		Svc:     service.New(database, log),
		Uploads: uploads,
		Hub:     hub,
		Log:     log,
	}
	routes.SetupRoutes(router, env, routes.Options{
		CORSOrigin: cfg.CORSOrigin,
		Limiter:    limiter,
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infof("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s", err)
		}
	}()

	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	stop()

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server exiting")
}

func newLimiter(ctx context.Context, cfg *config.Config, log *logrus.Logger) ratelimit.Limiter {
	if cfg.RedisURL != "" {
		rl, err := ratelimit.NewRedisLimiter(cfg.RedisURL, cfg.RateLimitMax, cfg.RateLimitWindow)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rl.Ping(pingCtx); err != nil {
			log.WithError(err).Warn("Redis unreachable at startup, requests fail open until it recovers")
		}
		go func() {
			<-ctx.Done()
			_ = rl.Close()
		}()
		return rl
	}

	ml := ratelimit.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	ml.StartCleanup(ctx, cfg.RateLimitWindow)
	return ml
}
