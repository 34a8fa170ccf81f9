package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apierrors "github.com/X-Plane/dashboard/internal/errors"
	"github.com/X-Plane/dashboard/internal/gateway"
)

// GatewaySource provides monthly gateway series; *gateway.Client satisfies it.
type GatewaySource interface {
	OverTime(ctx context.Context, stat gateway.Stat, now time.Time) ([]gateway.MonthCount, error)
}

// GatewayHandler serves scenery gateway statistics.
type GatewayHandler struct {
	responder
	source GatewaySource
	now    func() time.Time
}

// NewGatewayHandler creates a gateway handler. A nil source answers 503.
func NewGatewayHandler(source GatewaySource, logger *zap.Logger) *GatewayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayHandler{responder: responder{logger: logger}, source: source, now: time.Now}
}

// GatewayResponse is a monthly series for one statistic.
type GatewayResponse struct {
	Stat   gateway.Stat         `json:"stat"`
	Months []gateway.MonthCount `json:"months"`
}

// GetStat handles GET /api/v1/gateway/{stat}
func (h *GatewayHandler) GetStat(w http.ResponseWriter, r *http.Request) {
	stat, err := gateway.ParseStat(chi.URLParam(r, "stat"))
	if err != nil {
		h.respondError(w, r, apierrors.CodeBadRequest, "unknown gateway statistic", err)
		return
	}
	if h.source == nil {
		h.respondError(w, r, apierrors.CodeUnavailable, "scenery gateway is not configured", nil)
		return
	}

	months, err := h.source.OverTime(r.Context(), stat, h.now())
	if err != nil {
		h.respondError(w, r, apierrors.CodeUnavailable, "scenery gateway statistics are unavailable", err)
		return
	}
	if months == nil {
		months = []gateway.MonthCount{}
	}
	h.respondJSON(w, http.StatusOK, GatewayResponse{Stat: stat, Months: months})
}
