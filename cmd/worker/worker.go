package main

import (
	"context"
	"log"

	"legal-rag-chatbot/internal/app"
	"legal-rag-chatbot/internal/config"
	"legal-rag-chatbot/internal/logger"
	"legal-rag-chatbot/internal/queue"

	"github.com/hibiken/asynq"
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

	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		logger.Logger.Fatal("Invalid Redis settings for the job queue", zap.Error(err))
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				queue.QueueDefault: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
		},
	)

	processor := queue.NewTaskProcessor(deps.Pipeline)

	logger.Info("Starting Asynq worker", zap.Int("concurrency", 10), zap.String("queue", queue.QueueDefault))

	if err := server.Run(processor.Mux()); err != nil {
		logger.Logger.Fatal("Failed to start worker", zap.Error(err))
	}
}
