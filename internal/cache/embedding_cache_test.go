package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return redis.NewStringResult("", m.readErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	m.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

type countingEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (c *countingEmbedder) Embed(context.Context, string) ([]float32, error) {
	c.calls++
	return c.vec, c.err
}

func (c *countingEmbedder) Model() string { return "ko-sroberta" }

func TestEmbeddingService_MissThenHit(t *testing.T) {
	next := &countingEmbedder{vec: []float32{0.5, -1, 2}}
	store := newMemStore()
	svc := NewEmbeddingService(next, store, time.Hour)

	v1, err := svc.Embed(context.Background(), "보험금 청구")
	require.NoError(t, err)
	v2, err := svc.Embed(context.Background(), "보험금 청구")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Hour, store.ttls[Key("ko-sroberta", "보험금 청구")])
	assert.Equal(t, "ko-sroberta", svc.Model())
}

func TestEmbeddingService_DistinctTextsDistinctKeys(t *testing.T) {
	next := &countingEmbedder{vec: []float32{1}}
	svc := NewEmbeddingService(next, newMemStore(), time.Hour)

	_, _ = svc.Embed(context.Background(), "가")
	_, _ = svc.Embed(context.Background(), "나")
	assert.Equal(t, 2, next.calls)
	assert.NotEqual(t, Key("m", "가"), Key("m", "나"))
	assert.NotEqual(t, Key("m1", "가"), Key("m2", "가"))
}

func TestEmbeddingService_NilStorePassesThrough(t *testing.T) {
	next := &countingEmbedder{vec: []float32{1}}
	svc := NewEmbeddingService(next, nil, time.Hour)

	_, _ = svc.Embed(context.Background(), "q")
	_, _ = svc.Embed(context.Background(), "q")
	assert.Equal(t, 2, next.calls)
}

func TestEmbeddingService_ReadErrorBypassesCache(t *testing.T) {
	next := &countingEmbedder{vec: []float32{3}}
	store := newMemStore()
	store.readErr = errors.New("connection refused")
	svc := NewEmbeddingService(next, store, time.Hour)

	vec, err := svc.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vec)
	assert.Equal(t, 1, next.calls)
}

func TestEmbeddingService_CorruptEntryRecomputed(t *testing.T) {
	next := &countingEmbedder{vec: []float32{4}}
	store := newMemStore()
	store.data[Key("ko-sroberta", "q")] = "not bson"
	svc := NewEmbeddingService(next, store, time.Hour)

	vec, err := svc.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{4}, vec)
	assert.Equal(t, 1, next.calls)
}

func TestEmbeddingService_ErrorsNotCached(t *testing.T) {
	next := &countingEmbedder{err: errors.New("model down")}
	store := newMemStore()
	svc := NewEmbeddingService(next, store, time.Hour)

	_, err := svc.Embed(context.Background(), "q")
	assert.Error(t, err)
	assert.Empty(t, store.data)
}
