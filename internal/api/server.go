// Package api provides HTTP server setup and routing for the usage dashboard.
//
// Purpose:
//
//	This package sets up the chi router with middleware, health/readiness probes,
//	and route registration for the dashboard page, its JSON API and report
//	downloads.
//
// Dependencies:
//   - github.com/go-chi/chi/v5: HTTP router
//   - github.com/prometheus/client_golang: Prometheus metrics
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/audit"
	"github.com/X-Plane/dashboard/internal/auth"
	rbacmiddleware "github.com/X-Plane/dashboard/internal/middleware"
	"github.com/X-Plane/dashboard/internal/observability"
)

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wraps the router.
type Server struct {
	responder
	router      *chi.Mux
	rbacCfg     rbacmiddleware.RBACConfig
	store       Pinger
	redisClient *redis.Client
}

// Config holds server configuration.
type Config struct {
	Logger *zap.Logger
	// EnableRBAC controls whether RBAC middleware is enabled.
	EnableRBAC     bool
	// Policy overrides the built-in role policy.
	Policy         *auth.Engine
	RequestTimeout time.Duration
	// Optional dependencies for readiness checks.
	Store       Pinger
	RedisClient *redis.Client
}

// NewServer creates a router with middleware and operational endpoints.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	audit.NewLogger(cfg.Logger).Setup()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestContextMiddleware)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	s := &Server{
		responder: responder{logger: cfg.Logger},
		router:    r,
		rbacCfg: rbacmiddleware.RBACConfig{
			Logger:     cfg.Logger,
			EnableRBAC: cfg.EnableRBAC,
			Engine:     cfg.Policy,
		},
		store:       cfg.Store,
		redisClient: cfg.RedisClient,
	}

	r.Get("/status/healthz", healthzHandler)
	r.Get("/status/readyz", s.readyzHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return s
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// RegisterDashboardRoutes registers the page and dashboard API routes.
// API routes are registered in an inline group with full paths so the RBAC
// middleware sees the complete route pattern.
func (s *Server) RegisterDashboardRoutes(handler *DashboardHandler) {
	s.router.Get("/", handler.Index)
	s.router.Group(func(r chi.Router) {
		r.Use(rbacmiddleware.RBAC(s.rbacCfg))
		r.Get("/api/v1/dashboard", handler.GetDashboard)
		r.Get("/api/v1/figures/{figureId}", handler.GetFigure)
		r.Get("/api/v1/locations", handler.GetLocations)
		r.Get("/api/v1/versions", handler.ListVersions)
		r.Get("/api/v1/snapshots", handler.ListSnapshots)
		r.Post("/api/v1/refresh", handler.Refresh)
	})
}

// RegisterGatewayRoutes registers scenery gateway routes.
func (s *Server) RegisterGatewayRoutes(handler *GatewayHandler) {
	s.router.With(rbacmiddleware.RBAC(s.rbacCfg)).Get("/api/v1/gateway/{stat}", handler.GetStat)
}

// RegisterReportRoutes registers report download and export routes.
func (s *Server) RegisterReportRoutes(handler *ReportsHandler) {
	s.router.Group(func(r chi.Router) {
		r.Use(rbacmiddleware.RBAC(s.rbacCfg))
		r.Get("/api/v1/reports/{kind}", handler.Download)
		r.Post("/api/v1/reports/{kind}/exports", handler.Export)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			requestID, _ := observability.RequestIDFromContext(r.Context())
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", requestID),
			)
		})
	}
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type probe struct {
	name string
	ping func(context.Context) error
}

// readyzHandler pings Postgres and Redis when they are configured. Any failed
// ping turns the response into a 503 "degraded".
func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	probes := []probe{{name: "postgres"}, {name: "redis"}}
	if s.store != nil {
		probes[0].ping = s.store.Ping
	}
	if s.redisClient != nil {
		probes[1].ping = func(ctx context.Context) error { return s.redisClient.Ping(ctx).Err() }
	}

	status, code := "ready", http.StatusOK
	components := make(map[string]string, len(probes))
	for _, p := range probes {
		if p.ping == nil {
			components[p.name] = "not_configured"
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		err := p.ping(ctx)
		cancel()
		if err != nil {
			s.logger.Debug("readiness probe failed", zap.String("component", p.name), zap.Error(err))
			components[p.name] = "unhealthy"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		components[p.name] = "healthy"
	}

	s.respondJSON(w, code, map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
