package dashboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/X-Plane/dashboard/internal/charts"
	"github.com/X-Plane/dashboard/internal/stats"
)

// Figure ids, stable across releases since the page and API link to them.
const (
	FigureCategories         = "categories"
	FigureFirstVsThirdParty  = "first-vs-third-party"
	FigureThirdPartyPlanes   = "third-party-planes"
	FigureFirstPartyPlanes   = "first-party-planes"
	FigureOperatingSystems   = "operating-systems"
	FigureRAMAmounts         = "ram-amounts"
	FigureGPUManufacturer    = "gpu-manufacturer"
	FigureVRHeadsets         = "vr-headsets"
	FigureVRUsage            = "vr-usage"
	FigureGatewayAirports    = "gateway-airports"
	FigureGatewayAirports3D  = "gateway-airports-3d"
	FigureGatewaySubmissions = "gateway-submissions"
	FigureGatewayArtists     = "gateway-artists"
)

// Panel is one chart on the page.
type Panel struct {
	FigureID string `json:"figureId"`
	Title    string `json:"title,omitempty"`
}

// Section groups panels under a heading. A section with Table set shows the
// starting locations instead of charts.
type Section struct {
	Title  string  `json:"title"`
	Panels []Panel `json:"panels,omitempty"`
	Table  bool    `json:"table,omitempty"`
}

// Snapshot is a fully computed dashboard.
type Snapshot struct {
	ID          uuid.UUID                `json:"id"`
	GeneratedAt time.Time                `json:"generatedAt"`
	Version     string                   `json:"version"`
	UserGroup   string                   `json:"userGroup"`
	Sections    []Section                `json:"sections"`
	Figures     map[string]charts.Figure `json:"figures"`
	Locations   []stats.Location         `json:"locations"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

// Figure looks up a figure by id.
func (s *Snapshot) Figure(id string) (charts.Figure, bool) {
	fig, ok := s.Figures[id]
	return fig, ok
}

// Freshness statuses.
const (
	StatusFresh   = "fresh"
	StatusStale   = "stale"
	StatusDelayed = "delayed"
)

// Freshness describes how old the served snapshot is relative to the refresh interval.
type Freshness struct {
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generatedAt,omitempty"`
	AgeSeconds  int64     `json:"ageSeconds"`
}

// FreshnessOf classifies a snapshot generated at generatedAt: fresh within
// one interval, stale within two, delayed after that.
func FreshnessOf(generatedAt, now time.Time, interval time.Duration) Freshness {
	if generatedAt.IsZero() {
		return Freshness{Status: StatusDelayed}
	}
	age := now.Sub(generatedAt)
	f := Freshness{GeneratedAt: generatedAt, AgeSeconds: int64(age / time.Second)}
	switch {
	case age < interval:
		f.Status = StatusFresh
	case age < 2*interval:
		f.Status = StatusStale
	default:
		f.Status = StatusDelayed
	}
	return f
}
