package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"

	"github.com/X-Plane/dashboard/internal/metrics"
)

// TracingConfig describes the OTLP collector.
type TracingConfig struct {
	ServiceName string
	Environment string
	Endpoint    string
	Protocol    string // grpc (default) or http
	Headers     map[string]string
	Insecure    bool
}

// TracerProvider is the installed SDK provider, or nothing when tracing runs
// as a no-op.
type TracerProvider struct {
	sdk      *sdktrace.TracerProvider
	fallback bool
}

// Shutdown flushes buffered spans.
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

// Fallback is true when an endpoint was configured but no exporter could be
// built.
func (p *TracerProvider) Fallback() bool {
	return p != nil && p.fallback
}

var exporterRetry = struct{ initial, max time.Duration }{100 * time.Millisecond, 5 * time.Second}

// InitTracing installs the global tracer provider and W3C propagators. gRPC
// failures are retried over HTTP before giving up to a no-op provider.
func InitTracing(ctx context.Context, cfg TracingConfig) *TracerProvider {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if cfg.Endpoint == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return &TracerProvider{}
	}

	attempts := []string{cfg.Protocol}
	if cfg.Protocol == "" || cfg.Protocol == "grpc" {
		attempts = append(attempts, "http")
	}

	var errs []error
	for _, protocol := range attempts {
		sdk, err := newSDKProvider(ctx, cfg, protocol)
		if err == nil {
			otel.SetTracerProvider(sdk)
			return &TracerProvider{sdk: sdk}
		}
		if protocol == "" {
			protocol = "grpc"
		}
		metrics.RecordTelemetryExportFailure(protocol)
		errs = append(errs, fmt.Errorf("%s exporter: %w", protocol, err))
	}

	otel.Handle(errors.Join(errs...))
	metrics.RecordTelemetryExportFailure("degraded")
	otel.SetTracerProvider(noop.NewTracerProvider())
	return &TracerProvider{fallback: true}
}

func newSDKProvider(ctx context.Context, cfg TracingConfig, protocol string) (*sdktrace.TracerProvider, error) {
	client, err := otlpClient(cfg, protocol)
	if err != nil {
		return nil, err
	}
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter), sdktrace.WithResource(res)), nil
}

func otlpClient(cfg TracingConfig, protocol string) (otlptrace.Client, error) {
	switch protocol {
	case "", "grpc":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithRetry(otlptracegrpc.RetryConfig{
				Enabled:         true,
				InitialInterval: exporterRetry.initial,
				MaxInterval:     exporterRetry.max,
			}),
			otlptracegrpc.WithDialOption(grpc.WithUserAgent(cfg.ServiceName)),
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.NewClient(opts...), nil
	case "http":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
				Enabled:         true,
				InitialInterval: exporterRetry.initial,
				MaxInterval:     exporterRetry.max,
			}),
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.NewClient(opts...), nil
	}
	return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
}
