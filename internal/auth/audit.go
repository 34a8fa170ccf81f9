package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/X-Plane/dashboard/internal/observability"
)

// Decision is one allow or deny outcome for a protected route.
type Decision struct {
	Action    string
	Subject   string
	Roles     []string
	Allowed   bool
	RequestID string
	Remote    string
	At        time.Time
}

var (
	recorderMu sync.RWMutex
	recorder   func(Decision)
)

// SetAuditRecorder installs fn as the destination for decisions; nil discards them.
func SetAuditRecorder(fn func(Decision)) {
	recorderMu.Lock()
	defer recorderMu.Unlock()
	recorder = fn
}

func record(r *http.Request, action string, actor Actor, allowed bool) {
	recorderMu.RLock()
	fn := recorder
	recorderMu.RUnlock()
	if fn == nil {
		return
	}
	fn(Decision{
		Action:    action,
		Subject:   actor.Subject,
		Roles:     append([]string(nil), actor.Roles...),
		Allowed:   allowed,
		RequestID: requestID(r),
		Remote:    r.RemoteAddr,
		At:        time.Now().UTC(),
	})
}

func requestID(r *http.Request) string {
	if id, ok := observability.RequestIDFromContext(r.Context()); ok {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
