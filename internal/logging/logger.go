// Package logging builds the zap loggers used by the dashboard server and the
// report CLI. Server output is JSON with ISO8601 timestamps and carries the
// service and environment on every entry; the CLI logs to stderr in console
// form so stdout stays clean for tables.
package logging

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type settings struct {
	service     string
	environment string
	level       string
	output      string
	console     bool
}

// Option adjusts logger construction.
type Option func(*settings)

// WithService sets the "service" field.
func WithService(name string) Option {
	return func(s *settings) { s.service = name }
}

// WithEnvironment sets the "environment" field; "development" also switches
// on development encoder defaults.
func WithEnvironment(env string) Option {
	return func(s *settings) { s.environment = env }
}

// WithLevel sets the minimum level: debug, info, warn (or warning), error.
// Anything else means info.
func WithLevel(level string) Option {
	return func(s *settings) { s.level = level }
}

// WithOutput sends logs to stdout, stderr or a file path.
func WithOutput(path string) Option {
	return func(s *settings) { s.output = path }
}

// WithConsole switches to the human-readable console encoder.
func WithConsole() Option {
	return func(s *settings) { s.console = true }
}

// New builds a logger. Environment and level default to $ENVIRONMENT and
// $LOG_LEVEL.
func New(opts ...Option) (*zap.Logger, error) {
	s := settings{
		service:     "usage-dashboard",
		environment: envOr("ENVIRONMENT", "development"),
		level:       envOr("LOG_LEVEL", "info"),
		output:      "stdout",
	}
	for _, opt := range opts {
		opt(&s)
	}

	development := strings.EqualFold(s.environment, "development")
	encoder := zap.NewProductionEncoderConfig()
	if development {
		encoder = zap.NewDevelopmentEncoderConfig()
	}
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeLevel = zapcore.LowercaseLevelEncoder

	encoding := "json"
	if s.console {
		encoding = "console"
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(s.level)),
		Development:      development,
		Encoding:         encoding,
		EncoderConfig:    encoder,
		OutputPaths:      []string{s.output},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"service":     s.service,
			"environment": s.environment,
		},
	}
	return cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// MustNew builds a logger and panics on error.
func MustNew(opts ...Option) *zap.Logger {
	logger, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return logger
}

// FromContext decorates logger with the OpenTelemetry ids found in ctx.
func FromContext(logger *zap.Logger, ctx context.Context) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// WithComponent scopes logger to a named component.
func WithComponent(logger *zap.Logger, name string) *zap.Logger {
	return logger.With(zap.String("component", name))
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
