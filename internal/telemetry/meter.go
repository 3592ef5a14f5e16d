package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"legal-rag-chatbot/internal/logger"
)

// DefaultExportInterval is how often metrics are pushed to the collector.
const DefaultExportInterval = 30 * time.Second

// InitMeterProvider registers a global meter provider that pushes metrics over
// OTLP gRPC to the same collector as the tracer. The returned func flushes and
// shuts down.
func InitMeterProvider(serviceName, endpoint string, interval time.Duration) (func(), error) {
	ctx := context.Background()
	if interval <= 0 {
		interval = DefaultExportInterval
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("OpenTelemetry meter provider initialized",
		zap.String("service", serviceName), zap.String("endpoint", endpoint), zap.Duration("interval", interval))

	return func() {
		if err := mp.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown meter provider", zap.Error(err))
		}
	}, nil
}
