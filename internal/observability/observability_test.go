package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/X-Plane/dashboard/internal/metrics"
)

func TestInitTracingWithoutEndpointIsNoop(t *testing.T) {
	tp := InitTracing(context.Background(), TracingConfig{ServiceName: "usage-dashboard"})
	require.NotNil(t, tp)
	assert.False(t, tp.Fallback())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestInitTracingUnsupportedProtocolFallsBack(t *testing.T) {
	metrics.TelemetryExportFailuresTotal.Reset()

	tp := InitTracing(context.Background(), TracingConfig{
		ServiceName: "usage-dashboard",
		Endpoint:    "collector:4317",
		Protocol:    "ws",
	})
	assert.True(t, tp.Fallback())

	ws, err := metrics.TelemetryExportFailuresTotal.GetMetricWithLabelValues("ws")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, testutil.ToFloat64(ws), 1.0)

	degraded, err := metrics.TelemetryExportFailuresTotal.GetMetricWithLabelValues("degraded")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, testutil.ToFloat64(degraded), 1.0)
}

func TestInitBuildsLogger(t *testing.T) {
	obs, err := Init(context.Background(), Config{ServiceName: "usage-dashboard", Environment: "test", LogLevel: "debug"})
	require.NoError(t, err)
	require.NotNil(t, obs.Logger)
	_ = obs.Shutdown(context.Background())
}

func TestTerminalSync(t *testing.T) {
	assert.True(t, terminalSync(errors.New("sync /dev/stdout: invalid argument")))
	assert.False(t, terminalSync(errors.New("disk full")))
}

func TestRequestContextMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generates id"},
		{name: "propagates id", incoming: "req-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := RequestIDFromContext(r.Context())
				require.True(t, ok)
				seen = id
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestRequestContextMiddlewareUsesChiID(t *testing.T) {
	var seen string
	handler := middleware.RequestID(RequestContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RequestIDFromContext(r.Context())
		assert.Equal(t, middleware.GetReqID(r.Context()), seen)
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
	assert.Empty(t, rr.Header().Get("X-Trace-ID"))
}
