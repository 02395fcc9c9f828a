package main

import (
	"context"
	"fmt"
	"log"
	"myPropertyHub/app/echo-server/router"
	"myPropertyHub/business/recommendation"
	"myPropertyHub/internal/middleware"
	psqlRepo "myPropertyHub/internal/repository/postgres"
	redisRepo "myPropertyHub/internal/repository/redis"
	"myPropertyHub/internal/rest"
	"myPropertyHub/pkg/config"
	"myPropertyHub/pkg/database"
	redisClient "myPropertyHub/pkg/database/redis"
	"myPropertyHub/pkg/logger"
	"myPropertyHub/pkg/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Property Hub recommendations", "version", cfg.App.Version)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	logger.Info("Database connected successfully")

	// The generation lock is optional; without Redis the unique index alone
	// prevents duplicates.
	var guard recommendation.GenerationGuard
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := redisClient.NewRedisClient(ctx, cfg.Redis)
		cancel()
		if err != nil {
			logger.Warn("Redis unavailable, generation lock disabled", "error", err)
		} else {
			defer redisClient.CloseRedisClient(rdb)
			guard = redisRepo.NewGenerationLock(rdb, cfg.Recommendation.LockTTL)
			logger.Info("Redis connected successfully")
		}
	}

	// Init repo
	behaviorRepo := psqlRepo.NewBehaviorRepository(db)
	propertyRepo := psqlRepo.NewPropertyRepository(db)
	recommendationRepo := psqlRepo.NewRecommendationRepository(db)

	// Init service
	recommendationService := recommendation.NewService(
		behaviorRepo,
		propertyRepo,
		recommendationRepo,
		guard,
		recommendation.Config{
			ModelVersion:    cfg.Recommendation.ModelVersion,
			FreshnessWindow: cfg.Recommendation.FreshnessWindow,
			RequestTimeout:  cfg.Recommendation.RequestTimeout,
			QueryTimeout:    cfg.Recommendation.QueryTimeout,
			LockWait:        cfg.Recommendation.LockWait,
			ScoringWorkers:  cfg.Recommendation.ScoringWorkers,
		},
	)

	// Init handler
	recommendationHandler := rest.NewRecommendationHandler(recommendationService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Setup routes
	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)
	api := e.Group("/api/v1")
	router.SetRecommendationRoutes(api, recommendationHandler, authRequired)
	router.SetOpsRoutes(e)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Server stopped")
}
