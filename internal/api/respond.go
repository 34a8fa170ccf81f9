package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apierrors "github.com/X-Plane/dashboard/internal/errors"
	"github.com/X-Plane/dashboard/internal/observability"
)

// responder is embedded by every handler.
type responder struct {
	logger *zap.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h responder) respondError(w http.ResponseWriter, r *http.Request, code, message string, err error) {
	requestID, ok := observability.RequestIDFromContext(r.Context())
	if !ok {
		requestID = middleware.GetReqID(r.Context())
	}
	opts := []apierrors.Option{apierrors.WithRequestID(requestID)}
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		opts = append(opts, apierrors.WithTraceID(sc.TraceID().String()))
	}
	fields := []zap.Field{zap.String("code", code), zap.String("path", r.URL.Path)}
	if err != nil {
		opts = append(opts, apierrors.WithDetail(err.Error()))
		fields = append(fields, zap.Error(err))
	}
	h.logger.Warn(message, fields...)
	apierrors.Write(w, apierrors.New(code, message, opts...))
}
