package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memCounter struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newMemCounter() *memCounter {
	return &memCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (m *memCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	m.counts[key]++
	return redis.NewIntResult(m.counts[key], nil)
}

func (m *memCounter) Expire(_ context.Context, key string, d time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[key] = d
	return redis.NewBoolResult(true, nil)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-1", w.Body.String())
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(16))
	r.POST("/x", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(strings.Repeat("a", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "request_too_large")

	// no Content-Length: the body reader enforces the limit
	req := httptest.NewRequest(http.MethodPost, "/x", io.NopCloser(strings.NewReader(strings.Repeat("a", 64))))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRateLimit(t *testing.T) {
	counter := newMemCounter()
	r := gin.New()
	r.Use(RateLimitMiddleware(counter, 2, time.Minute))
	r.POST("/api/chat", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
		codes = append(codes, w.Code)
		if i == 2 {
			assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
			assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	require.Len(t, counter.expires, 1)
	for _, d := range counter.expires {
		assert.Equal(t, time.Minute, d)
	}

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	counter := newMemCounter()
	counter.err = errors.New("connection refused")
	r := gin.New()
	r.Use(RateLimitMiddleware(counter, 1, time.Minute))
	r.POST("/api/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
