// Package observability sets up tracing and the process logger for the
// dashboard server.
//
// Dependencies:
//   - go.opentelemetry.io/otel: OTLP trace export over gRPC or HTTP
//   - go.uber.org/zap via internal/logging
package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/logging"
)

// Observability holds the tracer provider and logger for one process.
type Observability struct {
	TracerProvider *TracerProvider
	Logger         *zap.Logger
}

// Config selects the exporter and log level.
type Config struct {
	ServiceName string
	Environment string
	Endpoint    string
	Protocol    string
	Headers     map[string]string
	Insecure    bool
	LogLevel    string
}

// Init builds the logger first so exporter problems can be reported through it.
func Init(ctx context.Context, cfg Config) (*Observability, error) {
	logger, err := logging.New(
		logging.WithService(cfg.ServiceName),
		logging.WithEnvironment(cfg.Environment),
		logging.WithLevel(cfg.LogLevel),
	)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	tp := InitTracing(ctx, TracingConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Endpoint,
		Protocol:    cfg.Protocol,
		Headers:     cfg.Headers,
		Insecure:    cfg.Insecure,
	})
	if tp.Fallback() {
		logger.Warn("tracing disabled, no usable exporter",
			zap.String("endpoint", cfg.Endpoint),
			zap.String("protocol", cfg.Protocol))
	}
	return &Observability{TracerProvider: tp, Logger: logger}, nil
}

// MustInit is Init for main packages.
func MustInit(ctx context.Context, cfg Config) *Observability {
	obs, err := Init(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "observability: %v\n", err)
		os.Exit(1)
	}
	return obs
}

// Shutdown flushes pending spans and log entries.
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.TracerProvider != nil {
		if err := o.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer: %w", err))
		}
	}
	if o.Logger != nil {
		if err := o.Logger.Sync(); err != nil && !terminalSync(err) {
			errs = append(errs, fmt.Errorf("logger: %w", err))
		}
	}
	return errors.Join(errs...)
}

// terminalSync matches the EINVAL zap gets when fsyncing a tty.
func terminalSync(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "/dev/stdout") || strings.Contains(msg, "/dev/stderr")
}
