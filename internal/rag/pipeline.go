package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Embedder turns text into a vector in the corpus embedding space. It must use
// the same model the corpus was indexed with; nothing checks this.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Recorder receives pipeline measurements. telemetry.Metrics implements it.
type Recorder interface {
	RecordStage(ctx context.Context, stage string, d time.Duration, err error)
	RecordRetrieved(ctx context.Context, category string, n int)
}

// FailurePolicy decides what a failed category retrieval does to the request.
type FailurePolicy int

const (
	// FailFast aborts the request on any retrieval failure.
	FailFast FailurePolicy = iota
	// Degrade treats a failed category as empty and reports it in Answer.Degraded.
	Degrade
)

// ParseFailurePolicy accepts "fail_fast" or "degrade".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail_fast", "failfast":
		return FailFast, nil
	case "degrade":
		return Degrade, nil
	}
	return FailFast, errors.New("unknown retrieval policy: " + s)
}

// PipelineDeps are the process-wide collaborators, fixed at construction.
type PipelineDeps struct {
	Embedder  Embedder
	Retriever Retriever
	Chat      ChatModel
	ChatModel string
}

// Pipeline answers questions: embed, retrieve per category, assemble, synthesize.
// It carries no per-request state and is safe for concurrent use.
type Pipeline struct {
	embedder    Embedder
	retriever   Retriever
	assembler   *Assembler
	synthesizer *Synthesizer
	assistant   *Assistant
	policy      FailurePolicy
	timeout     time.Duration
	log         *zap.Logger
	metrics     Recorder
	tracer      trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithFailurePolicy(policy FailurePolicy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// WithTimeout bounds retrieval and synthesis of a single request.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

func WithAssembler(a *Assembler) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.assembler = a
		}
	}
}

// NewPipeline validates the dependencies and applies options.
func NewPipeline(deps PipelineDeps, opts ...Option) (*Pipeline, error) {
	if deps.Embedder == nil {
		return nil, errors.New("rag: embedder is required")
	}
	if deps.Retriever == nil {
		return nil, errors.New("rag: retriever is required")
	}
	if deps.Chat == nil {
		return nil, errors.New("rag: chat model is required")
	}

	p := &Pipeline{
		embedder:    deps.Embedder,
		retriever:   deps.Retriever,
		assembler:   NewAssembler(),
		synthesizer: NewSynthesizer(deps.Chat, deps.ChatModel),
		assistant:   NewAssistant(deps.Chat, deps.ChatModel),
		log:         zap.NewNop(),
		tracer:      otel.Tracer("legal-rag"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// AnswerQuestion runs the full RAG flow and returns the assembled context with
// the answer. The result is all-or-nothing: on error no partial answer is returned.
func (p *Pipeline) AnswerQuestion(ctx context.Context, question string, opts AskOptions) (*Answer, error) {
	ctx, span := p.tracer.Start(ctx, "rag.answer_question")
	defer span.End()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	ans := &Answer{Question: question}

	vector, err := p.embed(ctx, question, &ans.Timings)
	if err != nil {
		return nil, p.fail(span, err)
	}

	retrieved, degraded, err := p.retrieve(ctx, vector, &ans.Timings)
	if err != nil {
		return nil, p.fail(span, err)
	}
	ans.Degraded = degraded

	ans.Context = p.assembler.Assemble(retrieved)

	synthStart := time.Now()
	sctx, sspan := p.tracer.Start(ctx, "rag.synthesize")
	ans.Answer, err = p.synthesizer.Synthesize(sctx, question, ans.Context, opts.MaxTokens)
	ans.Timings.Synthesize = time.Since(synthStart)
	p.record(ctx, "synthesize", ans.Timings.Synthesize, err)
	sspan.End()
	if err != nil {
		return nil, p.fail(span, err)
	}

	ans.Timings.Total = time.Since(start)
	span.SetAttributes(
		attribute.Int("rag.context_length", len(ans.Context)),
		attribute.Int("rag.degraded_categories", len(ans.Degraded)),
	)
	p.log.Info("question answered",
		zap.Duration("embed", ans.Timings.Embed),
		zap.Duration("retrieve", ans.Timings.Retrieve),
		zap.Duration("synthesize", ans.Timings.Synthesize),
		zap.Duration("total", ans.Timings.Total),
		zap.Int("context_length", len(ans.Context)),
	)
	p.log.Debug("assembled context", zap.String("context", ans.Context))
	return ans, nil
}

// Search embeds the query and returns the raw per-category documents without
// calling the language model.
func (p *Pipeline) Search(ctx context.Context, query string) (*Retrieved, error) {
	ctx, span := p.tracer.Start(ctx, "rag.search")
	defer span.End()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var timings Timings
	vector, err := p.embed(ctx, query, &timings)
	if err != nil {
		return nil, p.fail(span, err)
	}
	retrieved, _, err := p.retrieve(ctx, vector, &timings)
	if err != nil {
		return nil, p.fail(span, err)
	}
	return &retrieved, nil
}

// Assist forwards a prompt to the customer-service assistant without retrieval.
func (p *Pipeline) Assist(ctx context.Context, prompt string, maxTokens int) (*AssistReply, error) {
	ctx, span := p.tracer.Start(ctx, "rag.assist")
	defer span.End()

	start := time.Now()
	reply, err := p.assistant.Reply(ctx, prompt, maxTokens)
	p.record(ctx, "assist", time.Since(start), err)
	if err != nil {
		return nil, p.fail(span, err)
	}
	return reply, nil
}

func (p *Pipeline) embed(ctx context.Context, text string, t *Timings) ([]float32, error) {
	ctx, span := p.tracer.Start(ctx, "rag.embed")
	defer span.End()

	start := time.Now()
	vector, err := p.embedder.Embed(ctx, text)
	t.Embed = time.Since(start)
	p.record(ctx, "embed", t.Embed, err)
	if err != nil {
		return nil, embeddingError(err)
	}
	return vector, nil
}

func (p *Pipeline) retrieve(ctx context.Context, vector []float32, t *Timings) (Retrieved, []Category, error) {
	ctx, span := p.tracer.Start(ctx, "rag.retrieve")
	defer span.End()

	start := time.Now()
	defer func() { t.Retrieve = time.Since(start) }()

	var (
		out      Retrieved
		mu       sync.Mutex
		degraded []Category
	)

	g, gctx := errgroup.WithContext(ctx)
	run := func(cat Category, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err == nil {
				p.recordRetrieved(ctx, cat, n)
				return nil
			}
			err = retrievalError(cat, err)
			if p.policy == Degrade && ctx.Err() == nil {
				p.log.Warn("category retrieval failed, continuing without it",
					zap.String("category", string(cat)), zap.Error(err))
				mu.Lock()
				degraded = append(degraded, cat)
				mu.Unlock()
				return nil
			}
			return err
		})
	}

	run(CategoryCase, func(ctx context.Context) (int, error) {
		docs, err := p.retriever.RetrieveCases(ctx, vector, CategoryCase.TopK())
		out.Cases = docs
		return len(docs), err
	})
	run(CategoryLaw, func(ctx context.Context) (int, error) {
		docs, err := p.retriever.RetrieveLaws(ctx, vector, CategoryLaw.TopK())
		out.Laws = docs
		return len(docs), err
	})
	run(CategoryPractice, func(ctx context.Context) (int, error) {
		docs, err := p.retriever.RetrievePractices(ctx, vector, CategoryPractice.TopK())
		out.Practices = docs
		return len(docs), err
	})

	err := g.Wait()
	p.record(ctx, "retrieve", time.Since(start), err)
	if err != nil {
		return Retrieved{}, nil, err
	}
	return out, sortCategories(degraded), nil
}

func (p *Pipeline) recordRetrieved(ctx context.Context, cat Category, n int) {
	if p.metrics != nil {
		p.metrics.RecordRetrieved(ctx, string(cat), n)
	}
}

func (p *Pipeline) record(ctx context.Context, stage string, d time.Duration, err error) {
	if p.metrics != nil {
		p.metrics.RecordStage(ctx, stage, d, err)
	}
}

func (p *Pipeline) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.log.Error("rag request failed", zap.Error(err))
	return err
}

// sortCategories keeps Degraded in context order regardless of goroutine timing.
func sortCategories(in []Category) []Category {
	if len(in) == 0 {
		return nil
	}
	out := make([]Category, 0, len(in))
	for _, c := range Categories {
		for _, d := range in {
			if c == d {
				out = append(out, c)
			}
		}
	}
	return out
}
