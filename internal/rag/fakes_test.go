package rag

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"legal-rag-chatbot/internal/ai"
)

type fakeChat struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []ai.ChatRequest
}

func (f *fakeChat) Complete(_ context.Context, req ai.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func (f *fakeChat) last() ai.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

// echoChat derives its reply from the request only, like a backend at temperature 0.
type echoChat struct{}

func (echoChat) Complete(_ context.Context, req ai.ChatRequest) (string, error) {
	last := req.Messages[len(req.Messages)-1].Content
	return fmt.Sprintf("근거 자료 %d자 검토 결과 청구 가능", len(last)), nil
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls atomic.Int32
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls.Add(1)
	return f.vec, f.err
}

type fakeRetriever struct {
	cases     []CaseDoc
	laws      []LawDoc
	practices []PracticeDoc
	errs      map[Category]error
	topKs     sync.Map

	// barrier, when set, blocks every call until all three categories have started.
	barrier *sync.WaitGroup
}

func (f *fakeRetriever) wait(ctx context.Context, cat Category, topK int) error {
	f.topKs.Store(cat, topK)
	if f.barrier != nil {
		f.barrier.Done()
		done := make(chan struct{})
		go func() { f.barrier.Wait(); close(done) }()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.errs[cat]
}

func (f *fakeRetriever) RetrieveCases(ctx context.Context, _ []float32, topK int) ([]CaseDoc, error) {
	if err := f.wait(ctx, CategoryCase, topK); err != nil {
		return nil, err
	}
	return f.cases, nil
}

func (f *fakeRetriever) RetrieveLaws(ctx context.Context, _ []float32, topK int) ([]LawDoc, error) {
	if err := f.wait(ctx, CategoryLaw, topK); err != nil {
		return nil, err
	}
	return f.laws, nil
}

func (f *fakeRetriever) RetrievePractices(ctx context.Context, _ []float32, topK int) ([]PracticeDoc, error) {
	if err := f.wait(ctx, CategoryPractice, topK); err != nil {
		return nil, err
	}
	return f.practices, nil
}

type stageRecorder struct {
	mu        sync.Mutex
	stages    map[string]error
	retrieved map[string]int
}

func newStageRecorder() *stageRecorder {
	return &stageRecorder{stages: map[string]error{}, retrieved: map[string]int{}}
}

func (r *stageRecorder) RecordStage(_ context.Context, stage string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage] = err
}

func (r *stageRecorder) RecordRetrieved(_ context.Context, category string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retrieved[category] = n
}
