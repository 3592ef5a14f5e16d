package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"legal-rag-chatbot/internal/logger"
)

// Guard wraps outbound model calls with a client-side rate limit and a circuit
// breaker. One Guard is shared by all requests to the same provider.
type Guard struct {
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// StateListener is notified when the breaker changes state.
type StateListener func(name string, from, to gobreaker.State)

// NewGuard limits calls to rpm requests per minute (0 disables the limiter).
func NewGuard(name string, rpm int, listener StateListener) *Guard {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// caller cancellation says nothing about provider health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			if listener != nil {
				listener(name, from, to)
			}
		},
	})

	g := &Guard{breaker: breaker}
	if rpm > 0 {
		burst := rpm / 10
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(float64(rpm)*0.9/60.0), burst)
	}
	return g
}

// Do runs fn once. No retries are attempted here.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	if g == nil {
		return fn(ctx)
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		return "", err
	}
	return out.(string), nil
}

// State exposes the breaker state for readiness reporting.
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}
