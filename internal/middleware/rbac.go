// Package middleware provides HTTP middleware for the dashboard API.
//
// Purpose:
//
//	This package binds the dashboard's role policy to the auth middleware.
//	Reads are public; refreshing the dashboard and exporting reports to
//	object storage require a role.
//
// Dependencies:
//   - github.com/X-Plane/dashboard/internal/auth: policy engine and actor extraction
//   - github.com/go-chi/chi/v5: route patterns for policy matching
//   - go.uber.org/zap: Structured logging
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/auth"
)

// RBACConfig holds configuration for RBAC middleware.
type RBACConfig struct {
	Logger *zap.Logger
	// EnableRBAC controls whether RBAC is enforced. Disable only for local development.
	EnableRBAC bool
	// Engine replaces the built-in dashboard policy when set.
	Engine *auth.Engine
}

// dashboardPolicy keys are chi route patterns.
var dashboardPolicy = map[string][]string{
	"POST:/api/v1/refresh": {
		"dashboard:refresh",
		"admin",
	},
	"POST:/api/v1/reports/{kind}/exports": {
		"dashboard:reports:export",
		"admin",
	},
}

// Policy returns a copy of the dashboard policy.
func Policy() auth.Policy {
	rules := make(map[string][]string, len(dashboardPolicy))
	for action, roles := range dashboardPolicy {
		rules[action] = append([]string(nil), roles...)
	}
	return auth.Policy{Rules: rules}
}

// routeAction matches requests by their chi route pattern so path parameters
// resolve to a single rule. Requests outside a chi router fall back to the raw path.
func routeAction(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return r.Method + ":" + pattern
		}
	}
	return auth.MethodPath(r)
}

// RBAC creates RBAC middleware for dashboard endpoints.
// If EnableRBAC is false, it returns a no-op middleware.
func RBAC(cfg RBACConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if !cfg.EnableRBAC {
		cfg.Logger.Warn("RBAC disabled, refresh and export are open to every caller")
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	engine := cfg.Engine
	if engine == nil {
		engine = auth.NewEngine(Policy())
	}
	return auth.Middleware(engine, auth.HeaderExtractor, routeAction)
}
