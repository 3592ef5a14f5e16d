package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legal-rag-chatbot/internal/app"
	"legal-rag-chatbot/internal/config"
	"legal-rag-chatbot/internal/health"
	"legal-rag-chatbot/internal/logger"
	"legal-rag-chatbot/internal/queue"
	"legal-rag-chatbot/internal/rag"
	"legal-rag-chatbot/middleware"
	"legal-rag-chatbot/routes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := logger.InitLogger(cfg); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	deps, err := app.Build(context.Background(), cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to build pipeline", zap.Error(err))
	}
	defer deps.Close()

	// Corpus readiness probe
	collections := make([]string, 0, len(rag.Categories))
	for _, cat := range rag.Categories {
		collections = append(collections, cat.Collection())
	}
	probe := health.NewProbe(health.MongoCorpus{DB: deps.DB}, collections)
	scheduler := health.NewScheduler()
	if err := probe.Schedule(scheduler, cfg.HealthCron); err != nil {
		logger.Logger.Fatal("Invalid HEALTH_CRON", zap.String("cron", cfg.HealthCron), zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Async answers share Redis with the cache
	var jobs routes.JobQueue
	if deps.Redis != nil {
		redisOpt, err := config.AsynqRedisOpt(cfg)
		if err != nil {
			logger.Logger.Fatal("Invalid Redis settings for the job queue", zap.Error(err))
		}
		jobClient := queue.NewClient(redisOpt)
		defer jobClient.Close()
		jobs = jobClient
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(deps.Metrics))
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.MaxRequestSize))
	if deps.Redis != nil {
		router.Use(middleware.RateLimitMiddleware(deps.Redis, cfg.RateLimitReqs, time.Duration(cfg.RateLimitWindow)*time.Second))
	}

	// Setup routes
	routes.SetupHealthRoutes(router, probe)
	routes.SetupChatRoutes(router, deps.Pipeline, jobs)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
