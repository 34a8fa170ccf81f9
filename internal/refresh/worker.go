// Package refresh rebuilds the dashboard snapshot on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/dashboard"
)

// ErrAlreadyRunning is returned by RunOnce while another refresh is in flight.
var ErrAlreadyRunning = errors.New("refresh already running")

// Refresher is the part of the dashboard service the worker drives.
type Refresher interface {
	Refresh(ctx context.Context) (*dashboard.Snapshot, error)
	Prune(ctx context.Context, keep int) (int64, error)
	HasStorage() bool
}

// Config holds worker configuration.
type Config struct {
	Service Refresher
	// Schedule is a standard cron expression or descriptor such as "@every 6h".
	Schedule string
	// Retention is how many persisted snapshots to keep.
	Retention int
	Logger    *zap.Logger
}

// Worker runs refreshes at start and then on schedule.
type Worker struct {
	svc       Refresher
	expr      string
	schedule  cron.Schedule
	retention int
	logger    *zap.Logger

	running  atomic.Bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewWorker validates the schedule and creates a worker.
func NewWorker(cfg Config) (*Worker, error) {
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Worker{
		svc:       cfg.Service,
		expr:      cfg.Schedule,
		schedule:  schedule,
		retention: cfg.Retention,
		logger:    cfg.Logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start refreshes once, then on schedule until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) error {
	defer close(w.doneCh)
	w.logger.Info("starting refresh worker", zap.String("schedule", w.expr), zap.Int("retention", w.retention))

	if err := w.RunOnce(ctx); err != nil {
		w.logger.Error("initial refresh failed", zap.Error(err))
	}

	logger := cronLogger{w.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(w.schedule, cron.FuncJob(func() {
		if err := w.RunOnce(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			w.logger.Error("scheduled refresh failed", zap.Error(err))
		}
	}))
	c.Start()

	select {
	case <-ctx.Done():
		w.logger.Info("refresh worker stopping due to context cancellation")
	case <-w.stopCh:
		w.logger.Info("refresh worker stopping")
	}
	<-c.Stop().Done()
	return nil
}

// Stop stops the worker and waits for Start to return.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

// RunOnce refreshes the snapshot and prunes old persisted snapshots. It
// returns ErrAlreadyRunning instead of overlapping a refresh in flight.
func (w *Worker) RunOnce(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		w.logger.Info("skipping refresh, previous run still executing")
		return ErrAlreadyRunning
	}
	defer w.running.Store(false)

	snap, err := w.svc.Refresh(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("refreshed dashboard", zap.String("snapshot_id", snap.ID.String()))

	if !w.svc.HasStorage() {
		return nil
	}
	pruned, err := w.svc.Prune(ctx, w.retention)
	if err != nil {
		w.logger.Warn("failed to prune snapshots", zap.Error(err))
		return nil
	}
	if pruned > 0 {
		w.logger.Info("pruned snapshots", zap.Int64("deleted", pruned), zap.Int("kept", w.retention))
	}
	return nil
}

// Interval is the gap between the next two activations of expr after now.
func Interval(expr string, now time.Time) (time.Duration, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return 0, fmt.Errorf("parse refresh schedule %q: %w", expr, err)
	}
	next := schedule.Next(now)
	return schedule.Next(next).Sub(next), nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
