// Package health tracks whether the legal corpus can serve requests.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"legal-rag-chatbot/internal/logger"
)

// Corpus is what the probe needs from the database.
type Corpus interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context, collection string) (int64, error)
}

// Status is the last probe outcome, served by /ready.
type Status struct {
	Ready     bool             `json:"ready"`
	CheckedAt time.Time        `json:"checked_at"`
	Documents map[string]int64 `json:"documents,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Probe checks that the database answers and that every corpus collection
// holds documents. An empty collection means retrieval can only return
// fallbacks, so it counts as not ready.
type Probe struct {
	corpus      Corpus
	collections []string
	timeout     time.Duration

	mu   sync.RWMutex
	last Status
}

func NewProbe(corpus Corpus, collections []string) *Probe {
	return &Probe{corpus: corpus, collections: collections, timeout: 10 * time.Second}
}

// Run performs one check and stores the result.
func (p *Probe) Run(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	st := Status{CheckedAt: time.Now().UTC(), Documents: make(map[string]int64, len(p.collections))}
	err := p.check(ctx, st.Documents)
	if err != nil {
		st.Error = err.Error()
		logger.Warn("corpus probe failed", zap.Error(err))
	} else {
		st.Ready = true
	}

	p.mu.Lock()
	p.last = st
	p.mu.Unlock()
	return st
}

func (p *Probe) check(ctx context.Context, counts map[string]int64) error {
	if err := p.corpus.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	for _, coll := range p.collections {
		n, err := p.corpus.Count(ctx, coll)
		if err != nil {
			return fmt.Errorf("count %s: %w", coll, err)
		}
		counts[coll] = n
		if n == 0 {
			return fmt.Errorf("collection %s is empty", coll)
		}
	}
	return nil
}

// Status returns the most recent result. Before the first run it reports not ready.
func (p *Probe) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Schedule runs the probe once and then registers it on s.
func (p *Probe) Schedule(s *Scheduler, cronExpr string) error {
	p.Run(context.Background())
	return s.ScheduleCron("corpus-probe", cronExpr, func() error {
		if st := p.Run(context.Background()); !st.Ready {
			return fmt.Errorf("corpus not ready: %s", st.Error)
		}
		return nil
	})
}
