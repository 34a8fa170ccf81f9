// Package dashboard assembles the usage dashboard from reporting queries,
// classified statistics and scenery gateway figures.
//
// Purpose:
//
//	A Snapshot holds every chart the page shows. Snapshots are built
//	concurrently, swapped in atomically on refresh and persisted so a restart
//	can keep serving the last good one.
//
// Dependencies:
//   - golang.org/x/sync (errgroup, singleflight)
//   - go.opentelemetry.io/otel for build spans
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/X-Plane/dashboard/internal/charts"
	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/gateway"
	"github.com/X-Plane/dashboard/internal/metrics"
	"github.com/X-Plane/dashboard/internal/stats"
	"github.com/X-Plane/dashboard/internal/storage/postgres"
)

var (
	// ErrStorageDisabled is returned by snapshot history calls when no repository is configured.
	ErrStorageDisabled = errors.New("snapshot storage is disabled")
	// ErrPersist wraps a failure to save a snapshot that was otherwise built and served.
	ErrPersist = errors.New("persist snapshot")
)

// GatewaySource provides monthly scenery gateway series.
type GatewaySource interface {
	OverTime(ctx context.Context, stat gateway.Stat, now time.Time) ([]gateway.MonthCount, error)
}

// SnapshotRepository persists snapshots; *postgres.Store satisfies it.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, rec postgres.SnapshotRecord) error
	LatestSnapshot(ctx context.Context) (postgres.SnapshotRecord, error)
	ListSnapshots(ctx context.Context, limit int) ([]postgres.SnapshotMeta, error)
	PruneSnapshots(ctx context.Context, keep int) (int64, error)
}

// Config wires the service.
type Config struct {
	Querier   ga.Querier
	Version   ga.Version
	UserGroup ga.UserGroup
	// Strict refuses user queries for versions past the data retention window.
	Strict bool
	// Gateway is optional; without it the gateway section is omitted.
	Gateway GatewaySource
	// Repository is optional; without it snapshots live in memory only.
	Repository     SnapshotRepository
	LocationsStart string
	LocationsLimit int
	TopN           int
	// BuildTimeout bounds one snapshot build; it runs detached from the
	// requesting caller. Defaults to 5 minutes.
	BuildTimeout time.Duration
	Logger       *zap.Logger
}

// Service builds and serves dashboard snapshots.
type Service struct {
	queries        ga.VersionQueries
	group          ga.UserGroup
	gateway        GatewaySource
	repo           SnapshotRepository
	locationsStart string
	locationsLimit int
	topN           int
	buildTimeout   time.Duration
	logger         *zap.Logger
	tracer         trace.Tracer
	now            func() time.Time

	current atomic.Pointer[Snapshot]
	builds  singleflight.Group
}

// NewService creates a dashboard service.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	if cfg.LocationsLimit <= 0 {
		cfg.LocationsLimit = 50
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = defaultBuildTimeout
	}
	return &Service{
		queries:        ga.NewVersionQueries(cfg.Querier, cfg.Version, cfg.Strict),
		group:          cfg.UserGroup,
		gateway:        cfg.Gateway,
		repo:           cfg.Repository,
		locationsStart: cfg.LocationsStart,
		locationsLimit: cfg.LocationsLimit,
		topN:           cfg.TopN,
		buildTimeout:   cfg.BuildTimeout,
		logger:         cfg.Logger,
		tracer:         otel.Tracer("github.com/X-Plane/dashboard/internal/dashboard"),
		now:            time.Now,
	}
}

// HasStorage reports whether snapshots are persisted.
func (s *Service) HasStorage() bool { return s.repo != nil }

// Build computes a new snapshot without publishing it.
func (s *Service) Build(ctx context.Context) (*Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.build", trace.WithAttributes(
		attribute.String("version", s.queries.Version().Name),
		attribute.String("user_group", s.group.Name()),
	))
	defer span.End()
	start := s.now()

	snap, err := s.build(ctx)
	elapsed := s.now().Sub(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordSnapshotBuild("error", elapsed)
		return nil, err
	}
	metrics.RecordSnapshotBuild("success", elapsed)
	s.logger.Info("built dashboard snapshot",
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int("figures", len(snap.Figures)),
		zap.Duration("elapsed", elapsed),
	)
	return snap, nil
}

func (s *Service) build(ctx context.Context) (*Snapshot, error) {
	now := s.now()
	var (
		mu        sync.Mutex
		figures   = map[string]charts.Figure{}
		locations []stats.Location
		warnings  []string
		gatewayOK bool
	)
	put := func(id string, fig charts.Figure) {
		mu.Lock()
		figures[id] = fig
		mu.Unlock()
	}

	hw := stats.NewHardwareStats(ga.NewSimpleQueries(s.queries, ga.Users, s.group.Filter()), s.logger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.queries.Query(gctx, ga.Events, []ga.CustomDimension{ga.Aircraft}, s.group.Filter(), "")
		if err != nil {
			return fmt.Errorf("aircraft: %w", err)
		}
		for id, fig := range aircraftFigures(stats.AircraftStatsFromRows(rows, s.logger), s.topN) {
			put(id, fig)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.queries.Query(gctx, ga.Events, []ga.CustomDimension{ga.Region}, "", s.locationsStart)
		if err != nil {
			return fmt.Errorf("starting locations: %w", err)
		}
		locs := stats.StartingLocations(rows, s.locationsLimit)
		mu.Lock()
		locations = locs
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		series, err := hw.OperatingSystems(gctx)
		if err != nil {
			return err
		}
		put(FigureOperatingSystems, charts.Pie(series, 0))
		return nil
	})
	g.Go(func() error {
		series, err := hw.RAMAmounts(gctx)
		if err != nil {
			return err
		}
		put(FigureRAMAmounts, ramFigure(series))
		return nil
	})
	g.Go(func() error {
		series, err := hw.GPUManufacturers(gctx)
		if err != nil {
			return err
		}
		put(FigureGPUManufacturer, gpuManufacturerFigure(series))
		return nil
	})
	g.Go(func() error {
		series, err := hw.VRHeadsets(gctx)
		if err != nil {
			return err
		}
		put(FigureVRHeadsets, vrHeadsetsFigure(series))
		return nil
	})
	g.Go(func() error {
		series, err := hw.VRUsage(gctx)
		if err != nil {
			return err
		}
		put(FigureVRUsage, charts.Pie(series, vrUsageTopPad))
		return nil
	})
	if s.gateway != nil {
		g.Go(func() error {
			gatewayFigures, err := s.gatewayFigures(gctx, now)
			if err != nil {
				s.logger.Warn("scenery gateway unavailable, omitting section", zap.Error(err))
				mu.Lock()
				warnings = append(warnings, "scenery gateway statistics are unavailable")
				mu.Unlock()
				return nil
			}
			for id, fig := range gatewayFigures {
				put(id, fig)
			}
			mu.Lock()
			gatewayOK = true
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}

	sections := []Section{
		aircraftSection(),
		{Title: SectionLocations, Table: true},
		{Title: SectionOS, Panels: []Panel{{FigureID: FigureOperatingSystems}}},
		hardwareSection(),
	}
	if gatewayOK {
		sections = append(sections, gatewaySection())
	}

	return &Snapshot{
		ID:          uuid.New(),
		GeneratedAt: now.UTC(),
		Version:     s.queries.Version().Name,
		UserGroup:   s.group.Name(),
		Sections:    sections,
		Figures:     figures,
		Locations:   locations,
		Warnings:    warnings,
	}, nil
}

func (s *Service) gatewayFigures(ctx context.Context, now time.Time) (map[string]charts.Figure, error) {
	out := make(map[string]charts.Figure, len(gatewayPanels))
	for _, p := range gatewayPanels {
		points, err := s.gateway.OverTime(ctx, p.stat, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.stat, err)
		}
		out[p.id] = gatewayFigure(points, p.yLabel)
	}
	return out, nil
}

// Current returns the published snapshot, building it on first use. When the
// first build fails the latest persisted snapshot is served instead. The build
// is shared by every waiting caller and does not stop when one of them goes away.
func (s *Service) Current(ctx context.Context) (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		metrics.RecordSnapshotServed(snap.GeneratedAt)
		return snap, nil
	}

	v, err, _ := s.builds.Do("current", func() (any, error) {
		if snap := s.current.Load(); snap != nil {
			return snap, nil
		}
		ctx, cancel := s.detach(ctx)
		defer cancel()

		snap, err := s.Refresh(ctx)
		if snap != nil {
			return snap, nil
		}
		persisted, perr := s.latestPersisted(ctx)
		if perr != nil {
			return nil, err
		}
		s.logger.Warn("serving persisted snapshot after failed build",
			zap.String("snapshot_id", persisted.ID.String()),
			zap.Time("generated_at", persisted.GeneratedAt),
			zap.Error(err),
		)
		s.current.CompareAndSwap(nil, persisted)
		return persisted, nil
	})
	if err != nil {
		return nil, err
	}
	snap := v.(*Snapshot)
	metrics.RecordSnapshotServed(snap.GeneratedAt)
	return snap, nil
}

// Loaded returns the published snapshot without building one.
func (s *Service) Loaded() (*Snapshot, bool) {
	snap := s.current.Load()
	return snap, snap != nil
}

// Refresh builds a new snapshot, publishes it and persists it. A persistence
// failure still publishes the snapshot and returns it with an ErrPersist error.
// Calls that overlap an in-flight refresh, including the scheduled one and the
// first Current, share its result.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, _ := s.builds.Do("refresh", func() (any, error) {
		ctx, cancel := s.detach(ctx)
		defer cancel()
		return s.refresh(ctx)
	})
	snap, _ := v.(*Snapshot)
	return snap, err
}

func (s *Service) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.buildTimeout)
}

func (s *Service) refresh(ctx context.Context) (*Snapshot, error) {
	snap, err := s.Build(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)

	if s.repo == nil {
		return snap, nil
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return snap, fmt.Errorf("%w: encode: %v", ErrPersist, err)
	}
	err = s.repo.SaveSnapshot(ctx, postgres.SnapshotRecord{
		ID:          snap.ID,
		GeneratedAt: snap.GeneratedAt,
		Version:     snap.Version,
		UserGroup:   snap.UserGroup,
		Payload:     payload,
	})
	if err != nil {
		s.logger.Warn("failed to persist snapshot", zap.String("snapshot_id", snap.ID.String()), zap.Error(err))
		return snap, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return snap, nil
}

func (s *Service) latestPersisted(ctx context.Context) (*Snapshot, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	rec, err := s.repo.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(rec.Payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", rec.ID, err)
	}
	return &snap, nil
}

// Snapshots lists persisted snapshot metadata, newest first.
func (s *Service) Snapshots(ctx context.Context, limit int) ([]postgres.SnapshotMeta, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	return s.repo.ListSnapshots(ctx, limit)
}

// Prune keeps the newest keep persisted snapshots.
func (s *Service) Prune(ctx context.Context, keep int) (int64, error) {
	if s.repo == nil {
		return 0, ErrStorageDisabled
	}
	return s.repo.PruneSnapshots(ctx, keep)
}

// Freshness classifies the published snapshot against the refresh interval.
func (s *Service) Freshness(now time.Time, interval time.Duration) Freshness {
	snap := s.current.Load()
	if snap == nil {
		return FreshnessOf(time.Time{}, now, interval)
	}
	return FreshnessOf(snap.GeneratedAt, now, interval)
}
