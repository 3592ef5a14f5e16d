// Package app wires configuration into a ready pipeline. The API server, the
// job worker and the ask CLI share it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"legal-rag-chatbot/internal/ai"
	"legal-rag-chatbot/internal/cache"
	"legal-rag-chatbot/internal/config"
	"legal-rag-chatbot/internal/logger"
	"legal-rag-chatbot/internal/rag"
	"legal-rag-chatbot/internal/telemetry"
)

// Deps holds the process-wide clients. Redis is nil when disabled or unreachable.
type Deps struct {
	Config   *config.Config
	Mongo    *mongo.Client
	DB       *mongo.Database
	Redis    *redis.Client
	Metrics  *telemetry.Metrics
	Guard    *ai.Guard
	Pipeline *rag.Pipeline

	closers []func()
}

// Build connects to MongoDB (and Redis when enabled), selects the model
// providers and constructs the pipeline.
func Build(ctx context.Context, cfg *config.Config) (*Deps, error) {
	d := &Deps{Config: cfg}

	if cfg.OTelEnabled {
		shutdown, err := telemetry.InitTracer("legal-rag-chatbot", cfg.OTelEndpoint, cfg.TraceSampleRatio)
		if err != nil {
			logger.Warn("tracing disabled", zap.Error(err))
		} else {
			d.closers = append(d.closers, shutdown)
		}

		shutdown, err = telemetry.InitMeterProvider("legal-rag-chatbot", cfg.OTelEndpoint, cfg.MetricsExportInterval)
		if err != nil {
			logger.Warn("metrics export disabled", zap.Error(err))
		} else {
			d.closers = append(d.closers, shutdown)
		}
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	d.Metrics = metrics

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Mongo = mongoClient
	d.DB = mongoClient.Database(cfg.DBName)
	d.closers = append(d.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	})

	if cfg.RedisEnabled {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, embedding cache and rate limiting disabled", zap.Error(err))
		} else {
			d.Redis = rdb
			d.closers = append(d.closers, func() { _ = rdb.Close() })
		}
	}

	d.Guard = ai.NewGuard(cfg.ChatProvider, cfg.LLMRequestsPM, func(name string, _, to gobreaker.State) {
		metrics.RecordCircuitBreakerState(name, to.String())
	})

	chat, err := d.newChat(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}

	embedder, err := d.newEmbedder(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}

	policy, err := rag.ParseFailurePolicy(cfg.RetrievalPolicy)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Pipeline, err = rag.NewPipeline(rag.PipelineDeps{
		Embedder:  embedder,
		Retriever: rag.NewMongoRetriever(d.DB, cfg.VectorNumCandidates),
		Chat:      chat,
		ChatModel: cfg.ChatModel,
	},
		rag.WithFailurePolicy(policy),
		rag.WithTimeout(cfg.RequestTimeout),
		rag.WithLogger(logger.Logger),
		rag.WithRecorder(metrics),
	)
	if err != nil {
		d.Close()
		return nil, err
	}

	logger.Info("pipeline ready",
		zap.String("chat_provider", cfg.ChatProvider),
		zap.String("chat_model", cfg.ChatModel),
		zap.String("embedder", embedder.Model()),
		zap.String("retrieval_policy", cfg.RetrievalPolicy),
		zap.Bool("embedding_cache", d.Redis != nil),
	)
	return d, nil
}

func (d *Deps) newChat(ctx context.Context) (rag.ChatModel, error) {
	switch d.Config.ChatProvider {
	case "gemini":
		gc, err := ai.NewGeminiChat(ctx, d.Config.GeminiAPIKey, d.Guard)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		d.closers = append(d.closers, func() { _ = gc.Close() })
		return gc, nil
	default:
		return ai.NewOpenAIChat(d.Config.OpenAIAPIKey, d.Config.OpenAIBaseURL, d.Guard), nil
	}
}

func (d *Deps) newEmbedder(ctx context.Context) (*cache.EmbeddingService, error) {
	var next cache.Embedder
	switch d.Config.EmbeddingsProvider {
	case "google":
		ge, err := ai.NewGoogleEmbedder(ctx, d.Config.GeminiAPIKey, d.Config.GoogleEmbeddingsModel)
		if err != nil {
			return nil, fmt.Errorf("init google embeddings: %w", err)
		}
		d.closers = append(d.closers, func() { _ = ge.Close() })
		next = ge
	default:
		next = ai.NewOpenAIEmbedder(d.Config.EmbeddingsAPIKey, d.Config.EmbeddingsBaseURL, d.Config.EmbeddingsModel)
	}

	// a typed nil *redis.Client must not reach the Store interface
	if d.Redis == nil {
		return cache.NewEmbeddingService(next, nil, 0), nil
	}
	return cache.NewEmbeddingService(next, d.Redis, d.Config.EmbeddingCacheTTL), nil
}

// Close releases clients in reverse order of creation.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
