package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/dashboard"
	apierrors "github.com/X-Plane/dashboard/internal/errors"
	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/storage/postgres"
)

const (
	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 200
)

// DashboardService is the subset of *dashboard.Service the handlers use.
type DashboardService interface {
	Current(ctx context.Context) (*dashboard.Snapshot, error)
	Refresh(ctx context.Context) (*dashboard.Snapshot, error)
	Freshness(now time.Time, interval time.Duration) dashboard.Freshness
	Snapshots(ctx context.Context, limit int) ([]postgres.SnapshotMeta, error)
	HasStorage() bool
}

// DashboardHandler serves the page and its JSON API.
type DashboardHandler struct {
	responder
	service  DashboardService
	interval time.Duration
	now      func() time.Time
}

// NewDashboardHandler creates a handler; interval is the refresh period used
// to classify freshness.
func NewDashboardHandler(service DashboardService, interval time.Duration, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{
		responder: responder{logger: logger},
		service:   service,
		interval:  interval,
		now:       time.Now,
	}
}

// DashboardResponse is returned by GET /api/v1/dashboard.
type DashboardResponse struct {
	Snapshot  *dashboard.Snapshot `json:"snapshot"`
	Freshness dashboard.Freshness `json:"freshness"`
}

// LocationsResponse is returned by GET /api/v1/locations.
type LocationsResponse struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Locations   []LocationEntry `json:"locations"`
}

// LocationEntry is a ranked location with its formatted share.
type LocationEntry struct {
	Rank       int     `json:"rank"`
	Region     string  `json:"region"`
	Share      float64 `json:"share"`
	ShareLabel string  `json:"shareLabel"`
}

// VersionEntry describes a catalogued release.
type VersionEntry struct {
	ga.Version
	HasFullDataRetention bool `json:"hasFullDataRetention"`
}

// RefreshResponse is returned by POST /api/v1/refresh.
type RefreshResponse struct {
	ID          string              `json:"id"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Version     string              `json:"version"`
	UserGroup   string              `json:"userGroup"`
	Persisted   bool                `json:"persisted"`
	Warnings    []string            `json:"warnings,omitempty"`
	Freshness   dashboard.Freshness `json:"freshness"`
}

func (h *DashboardHandler) current(w http.ResponseWriter, r *http.Request) (*dashboard.Snapshot, bool) {
	snap, err := h.service.Current(r.Context())
	if err != nil {
		h.respondError(w, r, apierrors.CodeUnavailable, "dashboard data is not available", err)
		return nil, false
	}
	return snap, true
}

// Index handles GET /
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dashboard.Render(&buf, snap, h.service.Freshness(h.now(), h.interval)); err != nil {
		h.respondError(w, r, apierrors.CodeInternal, "failed to render dashboard", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, DashboardResponse{
		Snapshot:  snap,
		Freshness: h.service.Freshness(h.now(), h.interval),
	})
}

// GetFigure handles GET /api/v1/figures/{figureId}
func (h *DashboardHandler) GetFigure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "figureId")
	snap, ok := h.current(w, r)
	if !ok {
		return
	}
	fig, found := snap.Figure(id)
	if !found {
		h.respondError(w, r, apierrors.CodeNotFound, "figure not found", errors.New("no figure with id "+strconv.Quote(id)))
		return
	}
	h.respondJSON(w, http.StatusOK, fig)
}

// GetLocations handles GET /api/v1/locations
func (h *DashboardHandler) GetLocations(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w, r)
	if !ok {
		return
	}
	out := LocationsResponse{GeneratedAt: snap.GeneratedAt, Locations: make([]LocationEntry, 0, len(snap.Locations))}
	for _, loc := range snap.Locations {
		out.Locations = append(out.Locations, LocationEntry{
			Rank:       loc.Rank,
			Region:     loc.Region,
			Share:      loc.Share,
			ShareLabel: loc.ShareString(),
		})
	}
	h.respondJSON(w, http.StatusOK, out)
}

// ListVersions handles GET /api/v1/versions
func (h *DashboardHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	versions := ga.Versions()
	out := make([]VersionEntry, 0, len(versions))
	for _, v := range versions {
		out = append(out, VersionEntry{Version: v, HasFullDataRetention: v.HasFullDataRetention(now)})
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"versions": out})
}

// ListSnapshots handles GET /api/v1/snapshots
func (h *DashboardHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := defaultSnapshotLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxSnapshotLimit {
			h.respondError(w, r, apierrors.CodeBadRequest, "limit must be between 1 and 200", err)
			return
		}
		limit = n
	}

	metas, err := h.service.Snapshots(r.Context(), limit)
	if err != nil {
		if errors.Is(err, dashboard.ErrStorageDisabled) {
			h.respondError(w, r, apierrors.CodeUnavailable, "snapshot storage is not configured", nil)
			return
		}
		h.respondError(w, r, apierrors.CodeInternal, "failed to list snapshots", err)
		return
	}
	if metas == nil {
		metas = []postgres.SnapshotMeta{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"snapshots": metas})
}

// Refresh handles POST /api/v1/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Refresh(r.Context())
	persisted := err == nil && h.service.HasStorage()
	if err != nil && !errors.Is(err, dashboard.ErrPersist) {
		h.respondError(w, r, apierrors.CodeUnavailable, "dashboard refresh failed", err)
		return
	}
	if err != nil {
		h.logger.Warn("refreshed snapshot was not persisted", zap.Error(err))
	}
	h.respondJSON(w, http.StatusOK, RefreshResponse{
		ID:          snap.ID.String(),
		GeneratedAt: snap.GeneratedAt,
		Version:     snap.Version,
		UserGroup:   snap.UserGroup,
		Persisted:   persisted,
		Warnings:    snap.Warnings,
		Freshness:   dashboard.FreshnessOf(snap.GeneratedAt, h.now(), h.interval),
	})
}
