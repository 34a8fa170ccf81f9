package observability

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerRequestID = "X-Request-ID"
	headerTraceID   = "X-Trace-ID"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored by RequestContextMiddleware.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// RequestContextMiddleware settles on one ID per request: the caller's
// X-Request-ID, else the ID chi's RequestID middleware generated, else a new
// UUID. The ID is echoed on the response along with the trace ID when a span
// is recording.
func RequestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}
		if id == "" {
			id = uuid.NewString()
		}

		r.Header.Set(headerRequestID, id)
		w.Header().Set(headerRequestID, id)
		if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
			w.Header().Set(headerTraceID, sc.TraceID().String())
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}
