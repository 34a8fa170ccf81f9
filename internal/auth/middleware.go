// Package auth enforces role-based access on mutating dashboard endpoints.
// Callers are identified by headers set by the fronting proxy.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/X-Plane/dashboard/internal/errors"
)

type contextKey string

const actorContextKey contextKey = "dashboard.auth.actor"

// Actor represents the authenticated subject attached to a request.
type Actor struct {
	Subject string
	Roles   []string
}

// ActorFromContext extracts the actor from request context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(Actor)
	return actor, ok
}

// Extractor derives an actor from an HTTP request.
type Extractor func(*http.Request) Actor

// HeaderExtractor reads actor information from X-Actor-* headers.
func HeaderExtractor(r *http.Request) Actor {
	var roles []string
	for _, role := range strings.Split(r.Header.Get("X-Actor-Roles"), ",") {
		role = strings.TrimSpace(role)
		if role != "" {
			roles = append(roles, role)
		}
	}
	return Actor{
		Subject: r.Header.Get("X-Actor-Subject"),
		Roles:   roles,
	}
}

// ActionFunc names the policy action for a request.
type ActionFunc func(*http.Request) string

// MethodPath is the default action: "METHOD:/path".
func MethodPath(r *http.Request) string {
	return r.Method + ":" + r.URL.Path
}

// Middleware enforces the engine's rules. Actions the policy does not cover
// pass through unaudited.
func Middleware(engine *Engine, extractor Extractor, action ActionFunc) func(http.Handler) http.Handler {
	if extractor == nil {
		extractor = HeaderExtractor
	}
	if action == nil {
		action = MethodPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			act := action(r)
			if !engine.Covers(act) {
				next.ServeHTTP(w, r)
				return
			}

			actor := extractor(r)
			allowed := engine.Allowed(act, actor.Roles)
			record(r, act, actor, allowed)

			if !allowed {
				errors.Write(w, errors.New(errors.CodeForbidden, "access denied",
					errors.WithActor(&errors.Actor{
						Subject: actor.Subject,
						Roles:   actor.Roles,
					}),
					errors.WithRequestID(requestID(r)),
				))
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
