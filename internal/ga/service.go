// Package ga queries the Google Analytics (Universal Analytics) reporting API
// for X-Plane Desktop usage data.
//
// Purpose:
//
//	Resolve the desktop property's reporting view, translate app versions and
//	user groups into query filters, and memoise every result in the query cache.
//
// Dependencies:
//   - google.golang.org/api/analytics/v3 for the reporting API
//   - golang.org/x/oauth2/google for service account or refresh-token credentials
//   - internal/cache for result memoisation
package ga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	analytics "google.golang.org/api/analytics/v3"
	"google.golang.org/api/option"

	"github.com/X-Plane/dashboard/internal/cache"
	"github.com/X-Plane/dashboard/internal/metrics"
)

const (
	// DefaultAccountID is X-Plane's analytics account.
	DefaultAccountID = "12381236"

	samplingLevel = "HIGHER_PRECISION"
	maxResults    = 10000
)

var (
	// ErrNoCredentials is returned when no credentials JSON was supplied.
	ErrNoCredentials = errors.New("GA_CREDENTIALS must be set to the credentials JSON")
	// ErrNoProfile is returned when the property has no reporting views.
	ErrNoProfile = errors.New("property has no reporting views")
)

// reportAPI is the slice of the reporting API the service needs.
type reportAPI interface {
	FirstProfileID(ctx context.Context, accountID, propertyID string) (string, error)
	Get(ctx context.Context, req reportRequest) ([]Row, error)
}

type reportRequest struct {
	IDs        string
	Start      string
	End        string
	Metric     string
	Dimensions string
	Filters    string
	Sort       string
}

// ServiceConfig configures NewService.
type ServiceConfig struct {
	Credentials string
	AccountID   string
	Property    Property
	Cache       cache.Store
	Logger      *zap.Logger
	// ClientOptions replace credential handling when set (tests, emulators).
	ClientOptions []option.ClientOption
}

// Service runs reporting queries against one property.
type Service struct {
	api       reportAPI
	property  Property
	profileID string
	cache     cache.Store
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService authenticates, resolves the property's first view and returns a ready service.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if cfg.AccountID == "" {
		cfg.AccountID = DefaultAccountID
	}
	if cfg.Property == "" {
		cfg.Property = Desktop
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	opts := cfg.ClientOptions
	if len(opts) == 0 {
		credOpt, err := credentialsOption(ctx, cfg.Credentials)
		if err != nil {
			return nil, err
		}
		opts = []option.ClientOption{credOpt}
	}

	svc, err := analytics.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create analytics client: %w", err)
	}
	return newService(ctx, &analyticsAPI{svc: svc}, cfg)
}

func newService(ctx context.Context, api reportAPI, cfg ServiceConfig) (*Service, error) {
	profileID, err := api.FirstProfileID(ctx, cfg.AccountID, string(cfg.Property))
	if err != nil {
		return nil, fmt.Errorf("resolve view for %s: %w", cfg.Property, err)
	}
	cfg.Logger.Info("analytics view resolved",
		zap.String("property", string(cfg.Property)),
		zap.String("profile_id", profileID))

	return &Service{
		api:       api,
		property:  cfg.Property,
		profileID: profileID,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
		tracer:    otel.Tracer("github.com/X-Plane/dashboard/internal/ga"),
		now:       time.Now,
	}, nil
}

// Property returns the property the service reports on.
func (s *Service) Property() Property { return s.property }

// Query runs q, consulting the query cache first. An empty result is not an error.
func (s *Service) Query(ctx context.Context, q Query) ([]Row, error) {
	if q.Strict && q.Metric == Users && !q.Version.HasFullDataRetention(s.now()) {
		s.logger.Warn("refusing users query with incomplete data retention",
			zap.String("version", q.Version.Name),
			zap.String("metric", q.Metric.String()))
		return []Row{}, nil
	}

	key := "query-" + string(s.property) + "|" + q.CacheKey()
	return cache.Cached(ctx, s.cache, s.logger, key, func(ctx context.Context) ([]Row, error) {
		return s.fetch(ctx, q)
	})
}

func (s *Service) fetch(ctx context.Context, q Query) ([]Row, error) {
	ctx, span := s.tracer.Start(ctx, "ga.query", trace.WithAttributes(
		attribute.String("ga.metric", q.Metric.String()),
		attribute.String("ga.version", q.Version.Name),
		attribute.String("ga.dimensions", q.DimensionString()),
	))
	defer span.End()

	start := time.Now()
	rows, err := s.api.Get(ctx, reportRequest{
		IDs:        "ga:" + s.profileID,
		Start:      q.StartDate(),
		End:        q.Version.End,
		Metric:     q.Metric.String(),
		Dimensions: q.DimensionString(),
		Filters:    q.FilterString(),
		Sort:       "-" + q.Metric.String(),
	})
	if err != nil {
		metrics.RecordGAQuery(q.Metric.String(), "error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query %s for %s: %w", q.Metric, q.Version, err)
	}

	if len(rows) == 0 {
		metrics.RecordGAQuery(q.Metric.String(), "empty", time.Since(start))
		s.logger.Warn("no results for query; this almost certainly indicates a logic error",
			zap.String("metric", q.Metric.String()),
			zap.String("version", q.Version.Name),
			zap.String("dimensions", q.DimensionString()))
		return []Row{}, nil
	}
	metrics.RecordGAQuery(q.Metric.String(), "ok", time.Since(start))
	span.SetAttributes(attribute.Int("ga.rows", len(rows)))
	return rows, nil
}

func (s *Service) Users(ctx context.Context, v Version, dims []CustomDimension, filters string) ([]Row, error) {
	return s.Query(ctx, Query{Version: v, Metric: Users, Dimensions: dims, Filters: filters})
}

func (s *Service) Sessions(ctx context.Context, v Version, dims []CustomDimension, filters string) ([]Row, error) {
	return s.Query(ctx, Query{Version: v, Metric: Sessions, Dimensions: dims, Filters: filters})
}

// Events accepts a start date override, as event-based tables often look at a recent window.
func (s *Service) Events(ctx context.Context, v Version, dims []CustomDimension, filters, start string) ([]Row, error) {
	return s.Query(ctx, Query{Version: v, Metric: Events, Dimensions: dims, Filters: filters, StartOverride: start})
}

func (s *Service) Crashes(ctx context.Context, v Version, dims []CustomDimension, filters string) ([]Row, error) {
	return s.Query(ctx, Query{Version: v, Metric: Crashes, Dimensions: dims, Filters: filters})
}

// analyticsAPI adapts the generated client to reportAPI.
type analyticsAPI struct {
	svc *analytics.Service
}

func (a *analyticsAPI) FirstProfileID(ctx context.Context, accountID, propertyID string) (string, error) {
	profiles, err := a.svc.Management.Profiles.List(accountID, propertyID).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(profiles.Items) == 0 || profiles.Items[0].Id == "" {
		return "", ErrNoProfile
	}
	return profiles.Items[0].Id, nil
}

func (a *analyticsAPI) Get(ctx context.Context, req reportRequest) ([]Row, error) {
	call := a.svc.Data.Ga.Get(req.IDs, req.Start, req.End, req.Metric).
		Filters(req.Filters).
		Sort(req.Sort).
		SamplingLevel(samplingLevel).
		MaxResults(maxResults)
	if req.Dimensions != "" {
		call = call.Dimensions(req.Dimensions)
	}
	data, err := call.Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(data.Rows))
	for _, r := range data.Rows {
		rows = append(rows, Row(r))
	}
	return rows, nil
}
