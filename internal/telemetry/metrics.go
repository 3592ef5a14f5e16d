package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "legal-rag-chatbot"

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	StageDuration       metric.Float64Histogram
	StageErrors         metric.Int64Counter
	RetrievedDocs       metric.Int64Histogram
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics creates the instruments on the global meter provider. Call
// InitMeterProvider first or every recording is a no-op.
func InitMetrics() (*Metrics, error) {
	return NewMetrics(otel.Meter(meterName))
}

// NewMetrics creates the instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"rag.stage.duration",
		metric.WithDescription("RAG pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter(
		"rag.stage.errors",
		metric.WithDescription("Failed RAG pipeline stages"),
	)
	if err != nil {
		return nil, err
	}

	retrievedDocs, err := meter.Int64Histogram(
		"rag.retrieved.documents",
		metric.WithDescription("Documents returned per category search"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		StageDuration:       stageDuration,
		StageErrors:         stageErrors,
		RetrievedDocs:       retrievedDocs,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordStage records one pipeline stage (embed, retrieve, synthesize, assist).
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("rag.stage", stage),
		attribute.Bool("rag.success", err == nil),
	)
	m.StageDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.StageErrors.Add(ctx, 1, attrs)
	}
}

// RecordRetrieved records how many documents a category search returned.
func (m *Metrics) RecordRetrieved(ctx context.Context, category string, n int) {
	m.RetrievedDocs.Record(ctx, int64(n), metric.WithAttributes(attribute.String("rag.category", category)))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
