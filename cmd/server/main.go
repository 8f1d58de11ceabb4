// LeakHub server entrypoint. Wires configuration, storage, services, the
// background scheduler and the HTTP API together.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ranz0c/leakhub/internal/api/leaks"
	"github.com/ranz0c/leakhub/internal/cache"
	"github.com/ranz0c/leakhub/internal/config"
	"github.com/ranz0c/leakhub/internal/notify"
	"github.com/ranz0c/leakhub/internal/repository"
	"github.com/ranz0c/leakhub/internal/seed"
	"github.com/ranz0c/leakhub/internal/service/achievements"
	"github.com/ranz0c/leakhub/internal/service/leaderboard"
	"github.com/ranz0c/leakhub/internal/service/scheduler"
	"github.com/ranz0c/leakhub/internal/service/scoring"
	"github.com/ranz0c/leakhub/internal/service/verification"
	"github.com/ranz0c/leakhub/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	log.Info().
		Int("port", cfg.Server.Port).
		Str("environment", cfg.Server.Environment).
		Msg("Starting LeakHub server")

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.Postgres.RunMigrations {
		if err := db.RunMigrations(log); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	redisCache, err := cache.New(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCache.Close()

	submissionRepo := repository.NewSubmissionRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)

	notifyClient := notify.NewClient(&cfg.Notify, log)

	achievementService := achievements.NewService(achievementRepo, statsRepo, notifyClient, log)
	verificationService := verification.NewService(
		submissionRepo, statsRepo, achievementService, redisCache,
		cfg.Comparison.MaxContentLength, log)
	scoringService := scoring.NewService(
		submissionRepo, statsRepo, requestRepo, challengeRepo,
		achievementService, notifyClient, redisCache, log)
	leaderboardService := leaderboard.NewService(
		statsRepo, achievementRepo, submissionRepo, redisCache, log)

	if cfg.Seed.Enabled {
		if err := seed.Apply(context.Background(), cfg.Seed.File, submissionRepo, scoringService, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo data")
		}
	}

	schedulerService := scheduler.NewService(cfg, challengeRepo, submissionRepo, achievementRepo, notifyClient, log)
	if err := schedulerService.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer schedulerService.Stop()

	router := setupRouter(cfg, db, redisCache, log)

	handler := leaks.NewHandler(
		scoringService, verificationService, leaderboardService, achievementService,
		submissionRepo, statsRepo, requestRepo, challengeRepo, redisCache, log)
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func setupRouter(cfg *config.Config, db *repository.DB, redisCache *cache.RedisCache, log *logger.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "ok"}

		if err := db.Health(); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := redisCache.Health(c.Request.Context()); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status": http.StatusText(status),
			"checks": checks,
		})
	})

	return router
}

// requestLogger logs each request with method, path, status and latency.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}
