package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/X-Plane/dashboard/internal/charts"
	"github.com/X-Plane/dashboard/internal/dashboard"
	apierrors "github.com/X-Plane/dashboard/internal/errors"
	"github.com/X-Plane/dashboard/internal/gateway"
	"github.com/X-Plane/dashboard/internal/reports"
	"github.com/X-Plane/dashboard/internal/stats"
	"github.com/X-Plane/dashboard/internal/storage/postgres"
)

var generatedAt = time.Date(2019, 6, 3, 12, 0, 0, 0, time.UTC)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeDashboard struct {
	snap       *dashboard.Snapshot
	currentErr error
	refreshErr error
	metas      []postgres.SnapshotMeta
	listErr    error
	lastLimit  int
	refreshes  int
	noStorage  bool
}

func (f *fakeDashboard) Current(context.Context) (*dashboard.Snapshot, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.snap, nil
}

func (f *fakeDashboard) Refresh(context.Context) (*dashboard.Snapshot, error) {
	f.refreshes++
	if f.refreshErr != nil && !errors.Is(f.refreshErr, dashboard.ErrPersist) {
		return nil, f.refreshErr
	}
	return f.snap, f.refreshErr
}

func (f *fakeDashboard) Freshness(now time.Time, interval time.Duration) dashboard.Freshness {
	if f.snap == nil {
		return dashboard.FreshnessOf(time.Time{}, now, interval)
	}
	return dashboard.FreshnessOf(f.snap.GeneratedAt, now, interval)
}

func (f *fakeDashboard) HasStorage() bool { return !f.noStorage }

func (f *fakeDashboard) Snapshots(_ context.Context, limit int) ([]postgres.SnapshotMeta, error) {
	f.lastLimit = limit
	return f.metas, f.listErr
}

type fakeGateway struct {
	months []gateway.MonthCount
	err    error
}

func (f fakeGateway) OverTime(context.Context, gateway.Stat, time.Time) ([]gateway.MonthCount, error) {
	return f.months, f.err
}

type fakeGenerator struct {
	err          error
	lastAbsolute bool
}

func (f *fakeGenerator) Generate(_ context.Context, kind reports.Kind, absolute bool) (reports.Report, error) {
	f.lastAbsolute = absolute
	if f.err != nil {
		return reports.Report{}, f.err
	}
	if kind == reports.KindHardware {
		return reports.Report{Kind: kind, Name: "hardware_analysis_11_All_2019_6_3.csv", ContentType: reports.ContentTypeCSV, Data: []byte("CPU Cores\n")}, nil
	}
	return reports.Report{Kind: kind, Name: "aircraft_analysis - 2019-06.xlsx", ContentType: reports.ContentTypeXLSX, Data: []byte("PK")}, nil
}

type fakeUploader struct {
	err      error
	uploaded []string
}

func (f *fakeUploader) Upload(_ context.Context, kind reports.Kind, name, _ string, data []byte) (reports.Export, error) {
	if f.err != nil {
		return reports.Export{}, f.err
	}
	f.uploaded = append(f.uploaded, name)
	key := "reports/" + string(kind) + "/id/" + name
	return reports.Export{
		Key:       key,
		URL:       "https://bucket.example/" + key,
		Checksum:  reports.Checksum(data),
		Size:      int64(len(data)),
		ExpiresAt: generatedAt.Add(time.Hour),
	}, nil
}

func testSnapshot() *dashboard.Snapshot {
	return &dashboard.Snapshot{
		ID:          uuid.MustParse("6f1c2a52-3c1b-4d5e-9a8b-2f0e4d1c7a90"),
		GeneratedAt: generatedAt,
		Version:     "11",
		UserGroup:   "All",
		Sections: []dashboard.Section{{
			Title:  dashboard.SectionHardware,
			Panels: []dashboard.Panel{{FigureID: dashboard.FigureRAMAmounts, Title: "RAM Amounts"}},
		}},
		Figures: map[string]charts.Figure{
			dashboard.FigureRAMAmounts: charts.Bar(stats.Series{{Label: "8GB", Value: 80}}, charts.BarOptions{}),
		},
		Locations: []stats.Location{{Rank: 1, Region: "Europe", Share: 12.5}},
	}
}

type testDeps struct {
	dash     *fakeDashboard
	gw       GatewaySource
	gen      *fakeGenerator
	uploader ReportUploader
	store    Pinger
	redis    *redis.Client
}

func newTestServer(t *testing.T, deps testDeps) *Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	if deps.dash == nil {
		deps.dash = &fakeDashboard{snap: testSnapshot()}
	}
	if deps.gen == nil {
		deps.gen = &fakeGenerator{}
	}

	srv := NewServer(Config{
		Logger:      logger,
		EnableRBAC:  true,
		Store:       deps.store,
		RedisClient: deps.redis,
	})
	dh := NewDashboardHandler(deps.dash, time.Hour, logger)
	dh.now = func() time.Time { return generatedAt.Add(30 * time.Minute) }
	srv.RegisterDashboardRoutes(dh)
	srv.RegisterGatewayRoutes(NewGatewayHandler(deps.gw, logger))
	srv.RegisterReportRoutes(NewReportsHandler(deps.gen, deps.uploader, logger))
	return srv
}

func do(t *testing.T, h http.Handler, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierrors.Error {
	t.Helper()
	var payload apierrors.Error
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload), rr.Body.String())
	return payload
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, testDeps{})
	rr := do(t, srv, http.MethodGet, "/status/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestReadyz(t *testing.T) {
	mr := miniredis.RunT(t)
	healthyRedis := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = healthyRedis.Close() })

	tests := []struct {
		name       string
		deps       testDeps
		wantCode   int
		wantStatus string
		want       map[string]string
	}{
		{
			name:       "nothing configured",
			wantCode:   http.StatusOK,
			wantStatus: "ready",
			want:       map[string]string{"postgres": "not_configured", "redis": "not_configured"},
		},
		{
			name:       "all healthy",
			deps:       testDeps{store: fakePinger{}, redis: healthyRedis},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
			want:       map[string]string{"postgres": "healthy", "redis": "healthy"},
		},
		{
			name:       "postgres down",
			deps:       testDeps{store: fakePinger{err: errors.New("connection refused")}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			want:       map[string]string{"postgres": "unhealthy", "redis": "not_configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.deps)
			rr := do(t, srv, http.MethodGet, "/status/readyz", "", nil)
			assert.Equal(t, tt.wantCode, rr.Code)

			var body struct {
				Status     string            `json:"status"`
				Components map[string]string `json:"components"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.want, body.Components)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testDeps{})
	rr := do(t, srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t, testDeps{})
	rr := do(t, srv, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `Plotly.newPlot("ram-amounts"`)
}

func TestIndexUnavailable(t *testing.T) {
	srv := newTestServer(t, testDeps{dash: &fakeDashboard{currentErr: errors.New("ga down")}})
	rr := do(t, srv, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, apierrors.CodeUnavailable, decodeError(t, rr).Code)
}
