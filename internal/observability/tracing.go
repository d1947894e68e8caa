package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vcscsvcscs/symptom-checker/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.uber.org/zap"
)

// ShutdownFunc flushes and stops the tracer provider
type ShutdownFunc func(context.Context) error

// TracingOptions carries the values the tracer resource is labelled with
type TracingOptions struct {
	Environment string
	Version     string
}

// InitTracing installs the global tracer provider and propagators. When
// tracing is disabled it installs nothing and returns a no-op shutdown.
func InitTracing(ctx context.Context, cfg config.TracingConfig, opts TracingOptions, logger *zap.Logger) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "symptom-checker"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(opts.Version),
			attribute.String("deployment.environment", opts.Environment),
		),
	)
	if err != nil {
		logger.Warn("otel resource init failed, continuing with partial resource", zap.Error(err))
	}

	exporter, err := buildExporter(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("otel tracing initialized",
		zap.String("service", serviceName),
		zap.String("endpoint", cfg.Endpoint),
		zap.Float64("sample_ratio", clampRatio(cfg.SampleRatio)),
	)
	return tp.Shutdown, nil
}

func buildExporter(ctx context.Context, cfg config.TracingConfig, logger *zap.Logger) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		logger.Warn("otel using stdout exporter, no OTLP endpoint configured")
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}

	var opts []otlptracehttp.Option
	if strings.Contains(endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func clampRatio(ratio float64) float64 {
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}
