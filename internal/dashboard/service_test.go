package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/gateway"
	"github.com/X-Plane/dashboard/internal/storage/postgres"
)

type fakeGA struct {
	mu    sync.Mutex
	rows  map[ga.CustomDimension][]ga.Row
	err   error
	calls map[ga.CustomDimension]int
	delay time.Duration
}

func newFakeGA() *fakeGA {
	return &fakeGA{
		calls: map[ga.CustomDimension]int{},
		rows: map[ga.CustomDimension][]ga.Row{
			ga.Aircraft: {
				{"Cessna 172SP - Class: General Aviation - Studio: Laminar Research - Engines: 1", "600"},
				{"Boeing 737-800X - Class: Airliner - Studio: Zibo - Engines: 2", "400"},
			},
			ga.Region: {
				{"Europe", "70"},
				{"<REGION>", "10"},
				{"North America", "20"},
			},
			ga.Os:        {{"IBM10.0", "80"}, {"APL10.14.5", "15"}, {"LIN64bit", "5"}},
			ga.Ram:       {{"8", "60"}, {"16", "40"}},
			ga.Gpu:       {{"NVIDIA GeForce GTX 1080", "70"}, {"AMD Radeon RX 580", "30"}},
			ga.VrHeadset: {{"Oculus Rift CV1", "4"}, {"HTC Vive", "1"}},
		},
	}
}

func (f *fakeGA) Query(ctx context.Context, q ga.Query) ([]ga.Row, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(q.Dimensions) > 0 {
		f.calls[q.Dimensions[0]]++
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(q.Dimensions) == 0 {
		return nil, nil
	}
	return f.rows[q.Dimensions[0]], nil
}

func (f *fakeGA) callsFor(dim ga.CustomDimension) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[dim]
}

type fakeGateway struct {
	err error
}

func (f fakeGateway) OverTime(_ context.Context, stat gateway.Stat, _ time.Time) ([]gateway.MonthCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []gateway.MonthCount{{Month: "2019-04", Count: 10}, {Month: "2019-05", Count: 12}}, nil
}

type fakeRepo struct {
	mu      sync.Mutex
	saved   []postgres.SnapshotRecord
	saveErr error
}

func (r *fakeRepo) SaveSnapshot(_ context.Context, rec postgres.SnapshotRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, rec)
	return nil
}

func (r *fakeRepo) LatestSnapshot(context.Context) (postgres.SnapshotRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saved) == 0 {
		return postgres.SnapshotRecord{}, postgres.ErrNotFound
	}
	return r.saved[len(r.saved)-1], nil
}

func (r *fakeRepo) ListSnapshots(_ context.Context, limit int) ([]postgres.SnapshotMeta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []postgres.SnapshotMeta{}
	for i := len(r.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, postgres.SnapshotMeta{ID: r.saved[i].ID, GeneratedAt: r.saved[i].GeneratedAt})
	}
	return out, nil
}

func (r *fakeRepo) PruneSnapshots(_ context.Context, keep int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saved) <= keep {
		return 0, nil
	}
	n := len(r.saved) - keep
	r.saved = r.saved[n:]
	return int64(n), nil
}

func newTestService(t *testing.T, q ga.Querier, gw GatewaySource, repo SnapshotRepository) *Service {
	t.Helper()
	cfg := Config{
		Querier:        q,
		Version:        ga.V11,
		UserGroup:      ga.PaidOnly,
		Gateway:        gw,
		LocationsStart: "2019-04-01",
		LocationsLimit: 50,
		Logger:         zaptest.NewLogger(t),
	}
	if repo != nil {
		cfg.Repository = repo
	}
	svc := NewService(cfg)
	svc.now = func() time.Time { return time.Date(2019, 6, 3, 12, 0, 0, 0, time.UTC) }
	return svc
}

func figureIDs(s *Snapshot) []string {
	ids := make([]string, 0, len(s.Figures))
	for id := range s.Figures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sectionTitles(s *Snapshot) []string {
	var out []string
	for _, sec := range s.Sections {
		out = append(out, sec.Title)
	}
	return out
}

func TestBuildAssemblesEverySection(t *testing.T) {
	svc := newTestService(t, newFakeGA(), fakeGateway{}, nil)

	snap, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "11", snap.Version)
	assert.Equal(t, "PaidOnly", snap.UserGroup)
	assert.Equal(t, []string{SectionAircraft, SectionLocations, SectionOS, SectionHardware, SectionGateway}, sectionTitles(snap))
	assert.Equal(t, []string{
		FigureCategories, FigureFirstPartyPlanes, FigureFirstVsThirdParty,
		FigureGatewayAirports, FigureGatewayAirports3D, FigureGatewayArtists, FigureGatewaySubmissions,
		FigureGPUManufacturer, FigureOperatingSystems, FigureRAMAmounts, FigureThirdPartyPlanes,
		FigureVRHeadsets, FigureVRUsage,
	}, figureIDs(snap))

	for _, sec := range snap.Sections {
		for _, p := range sec.Panels {
			_, ok := snap.Figure(p.FigureID)
			assert.True(t, ok, p.FigureID)
		}
	}

	require.Len(t, snap.Locations, 2)
	assert.Equal(t, "Europe", snap.Locations[0].Region)
	assert.InDelta(t, 70.0, snap.Locations[0].Share, 1e-9)
	assert.Equal(t, 2, snap.Locations[1].Rank)

	pie := snap.Figures[FigureFirstVsThirdParty].Data[0]
	assert.Equal(t, []float64{0.6, 0.4}, pie.Values)

	ram := snap.Figures[FigureRAMAmounts].Data[0]
	assert.Equal(t, []any{"2GB+", "4GB+", "8GB+", "16GB+"}, ram.X)
}

func TestBuildOmitsGatewayWhenUnreachable(t *testing.T) {
	svc := newTestService(t, newFakeGA(), fakeGateway{err: errors.New("connection refused")}, nil)

	snap, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, sectionTitles(snap), SectionGateway)
	assert.NotContains(t, snap.Figures, FigureGatewayAirports)
	assert.Len(t, snap.Warnings, 1)
}

func TestBuildWithoutGateway(t *testing.T) {
	svc := newTestService(t, newFakeGA(), nil, nil)

	snap, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, sectionTitles(snap), SectionGateway)
	assert.Empty(t, snap.Warnings)
}

func TestBuildFailsOnReportingError(t *testing.T) {
	q := newFakeGA()
	q.err = errors.New("quota exceeded")
	svc := newTestService(t, q, nil, nil)

	_, err := svc.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCurrentBuildsOnce(t *testing.T) {
	q := newFakeGA()
	q.delay = 20 * time.Millisecond
	svc := newTestService(t, q, nil, nil)

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 8)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := svc.Current(context.Background())
			assert.NoError(t, err)
			snaps[i] = snap
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, q.callsFor(ga.Aircraft))
	for _, s := range snaps {
		assert.Same(t, snaps[0], s)
	}
}

func TestRefreshPersistsAndSwaps(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, newFakeGA(), nil, repo)

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	current, ok := svc.Loaded()
	require.True(t, ok)
	assert.Same(t, second, current)

	require.Len(t, repo.saved, 2)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(repo.saved[1].Payload, &decoded))
	assert.Equal(t, second.ID, decoded.ID)
	assert.Equal(t, "PaidOnly", repo.saved[1].UserGroup)

	metas, err := svc.Snapshots(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, metas, 2)

	deleted, err := svc.Prune(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestRefreshPublishesDespitePersistFailure(t *testing.T) {
	repo := &fakeRepo{saveErr: errors.New("disk full")}
	svc := newTestService(t, newFakeGA(), nil, repo)

	snap, err := svc.Refresh(context.Background())
	require.ErrorIs(t, err, ErrPersist)
	require.NotNil(t, snap)

	current, ok := svc.Loaded()
	require.True(t, ok)
	assert.Same(t, snap, current)
}

func TestCurrentFallsBackToPersistedSnapshot(t *testing.T) {
	repo := &fakeRepo{}
	good := newTestService(t, newFakeGA(), nil, repo)
	persisted, err := good.Refresh(context.Background())
	require.NoError(t, err)

	broken := newFakeGA()
	broken.err = errors.New("reporting api unavailable")
	svc := newTestService(t, broken, nil, repo)

	snap, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, persisted.ID, snap.ID)
	assert.Contains(t, snap.Figures, FigureCategories)
}

func TestCurrentFailsWithoutFallback(t *testing.T) {
	broken := newFakeGA()
	broken.err = errors.New("reporting api unavailable")
	svc := newTestService(t, broken, nil, &fakeRepo{})

	_, err := svc.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reporting api unavailable")
}

func TestSnapshotsWithoutStorage(t *testing.T) {
	svc := newTestService(t, newFakeGA(), nil, nil)
	assert.False(t, svc.HasStorage())

	_, err := svc.Snapshots(context.Background(), 10)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.Prune(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestFreshnessOf(t *testing.T) {
	now := time.Date(2019, 6, 3, 12, 0, 0, 0, time.UTC)
	interval := 6 * time.Hour

	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{"just built", 0, StatusFresh},
		{"within interval", 5 * time.Hour, StatusFresh},
		{"one interval", 6 * time.Hour, StatusStale},
		{"nearly two intervals", 11 * time.Hour, StatusStale},
		{"two intervals", 12 * time.Hour, StatusDelayed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FreshnessOf(now.Add(-tt.age), now, interval)
			assert.Equal(t, tt.want, f.Status)
			assert.Equal(t, int64(tt.age/time.Second), f.AgeSeconds)
		})
	}

	assert.Equal(t, StatusDelayed, FreshnessOf(time.Time{}, now, interval).Status)
}

func TestRender(t *testing.T) {
	svc := newTestService(t, newFakeGA(), fakeGateway{}, nil)
	snap, err := svc.Build(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, snap, FreshnessOf(snap.GeneratedAt, snap.GeneratedAt, time.Hour)))
	html := buf.String()

	assert.Contains(t, html, "https://codepen.io/chriddyp/pen/bWLwgP.css")
	assert.Contains(t, html, "background-color: #ffffff")
	assert.Contains(t, html, "<h2 class=\"graph-title\">Top Starting Locations</h2>")
	assert.Contains(t, html, "<td>Europe</td><td>70.0000%</td>")
	assert.Contains(t, html, "<h3 class=\"graph-title\">Registered Scenery Artists</h3>")
	assert.Contains(t, html, `<div id="vr-usage" class="graph"></div>`)
	assert.Contains(t, html, `Plotly.newPlot("vr-usage"`)
	assert.Contains(t, html, "(fresh)")
}

func TestCurrentSurvivesCancelledFirstCaller(t *testing.T) {
	q := newFakeGA()
	q.delay = 50 * time.Millisecond
	svc := newTestService(t, q, nil, nil)

	first, cancel := context.WithCancel(context.Background())
	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = svc.Current(first)
	}()
	time.Sleep(10 * time.Millisecond)

	var (
		second    *Snapshot
		secondErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		second, secondErr = svc.Current(context.Background())
	}()
	cancel()
	wg.Wait()

	require.NoError(t, secondErr)
	require.NotNil(t, second)
	assert.NoError(t, firstErr)
	assert.Equal(t, 1, q.callsFor(ga.Aircraft))
}

func TestScheduledRefreshSharesFirstBuild(t *testing.T) {
	q := newFakeGA()
	q.delay = 50 * time.Millisecond
	svc := newTestService(t, q, nil, nil)

	var (
		wg        sync.WaitGroup
		refreshed *Snapshot
		served    *Snapshot
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		snap, err := svc.Refresh(context.Background())
		assert.NoError(t, err)
		refreshed = snap
	}()
	go func() {
		defer wg.Done()
		snap, err := svc.Current(context.Background())
		assert.NoError(t, err)
		served = snap
	}()
	wg.Wait()

	assert.Equal(t, 1, q.callsFor(ga.Aircraft))
	assert.Same(t, refreshed, served)
}

func TestTopAircraftChartsShowNinePlusOther(t *testing.T) {
	q := newFakeGA()
	studios := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot",
		"Golf", "Hotel", "India", "Juliett", "Kilo", "Lima"}
	var rows []ga.Row
	for i, studio := range studios {
		rows = append(rows, ga.Row{
			studio + " Trainer - Class: General Aviation - Studio: " + studio + " Simulations - Engines: 1",
			strconv.Itoa((i + 1) * 100),
		})
	}
	q.rows[ga.Aircraft] = rows
	svc := newTestService(t, q, nil, nil)

	snap, err := svc.Build(context.Background())
	require.NoError(t, err)

	bars := snap.Figures[FigureThirdPartyPlanes].Data[0]
	require.Len(t, bars.Y, defaultTopN+1)
	assert.Equal(t, "Other", bars.Y[0])
	assert.Equal(t, "Lima Simulations Lima Trainer", bars.Y[len(bars.Y)-1])
	assert.NotContains(t, bars.Y, "Charlie Simulations Charlie Trainer")
}
