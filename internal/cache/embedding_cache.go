package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"legal-rag-chatbot/internal/logger"
	"legal-rag-chatbot/utils"
)

// Store is the subset of the Redis client used by the cache.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Embedder is a model-bound text encoder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// EmbeddingService caches query embeddings in Redis, keyed by model and text.
// Cache failures are logged and bypassed; they never fail a request.
type EmbeddingService struct {
	next  Embedder
	store Store
	ttl   time.Duration
}

// NewEmbeddingService wraps next. A nil store disables caching.
func NewEmbeddingService(next Embedder, store Store, ttl time.Duration) *EmbeddingService {
	return &EmbeddingService{next: next, store: store, ttl: ttl}
}

type cachedVector struct {
	Values []float32 `bson:"v"`
}

func (s *EmbeddingService) Model() string { return s.next.Model() }

// Embed returns the cached vector when present, otherwise computes and stores it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.store == nil {
		return s.next.Embed(ctx, text)
	}

	key := Key(s.next.Model(), text)
	if vec, ok := s.lookup(ctx, key); ok {
		return vec, nil
	}

	vec, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	raw, err := bson.Marshal(cachedVector{Values: vec})
	if err == nil {
		err = s.store.Set(ctx, key, raw, s.ttl).Err()
	}
	if err != nil {
		logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
	return vec, nil
}

func (s *EmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	raw, err := s.store.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var cv cachedVector
	if err := bson.Unmarshal(raw, &cv); err != nil || len(cv.Values) == 0 {
		logger.Warn("embedding cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return cv.Values, true
}

// Key is the Redis key for a (model, text) pair.
func Key(model, text string) string {
	return "emb:" + utils.ContentHash(model, text)
}
