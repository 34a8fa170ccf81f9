// Package audit writes authorization decisions to the structured log.
package audit

import (
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/auth"
)

// Logger logs allow and deny decisions for protected dashboard routes.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates an audit logger named "audit".
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.Named("audit")}
}

// Setup routes auth decisions to this logger.
func (l *Logger) Setup() {
	auth.SetAuditRecorder(l.Record)
}

// Record logs one decision; denials are warnings.
func (l *Logger) Record(d auth.Decision) {
	fields := []zap.Field{
		zap.String("audit.action", d.Action),
		zap.String("audit.subject", d.Subject),
		zap.Strings("audit.roles", d.Roles),
		zap.Bool("audit.allowed", d.Allowed),
		zap.String("request_id", d.RequestID),
		zap.String("remote_addr", d.Remote),
		zap.Time("audit.at", d.At),
	}
	if d.Allowed {
		l.logger.Info("refresh or export authorized", fields...)
		return
	}
	l.logger.Warn("refresh or export denied", fields...)
}
