package ga

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoRows is returned by the total helpers when the API returned nothing.
var ErrNoRows = errors.New("query returned no rows")

// Row is one result row: dimension values followed by the metric value.
type Row []string

// Query describes a single reporting request.
type Query struct {
	Version       Version
	Metric        Metric
	Dimensions    []CustomDimension
	Filters       string
	StartOverride string
	// Strict refuses users queries for versions that have lost data to retention.
	Strict bool
}

// Querier runs reporting queries.
type Querier interface {
	Query(ctx context.Context, q Query) ([]Row, error)
}

// DimensionString joins the dimensions with ";".
func (q Query) DimensionString() string {
	parts := make([]string, len(q.Dimensions))
	for i, d := range q.Dimensions {
		parts[i] = d.String()
	}
	return strings.Join(parts, ";")
}

// FilterString combines the app version filter with any extra filters.
func (q Query) FilterString() string {
	filter := "ga:appVersion=@X-Plane " + q.Version.Name
	if q.Filters != "" {
		filter += ";" + q.Filters
	}
	return filter
}

// StartDate is the override when set, else the version's first day.
func (q Query) StartDate() string {
	if q.StartOverride != "" {
		return q.StartOverride
	}
	return q.Version.Start
}

// CacheKey identifies the query across processes.
func (q Query) CacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%t",
		q.Version.Name, q.Metric, q.DimensionString(), q.Filters, q.StartDate(), q.Version.End, q.Strict)
}

// ParseCount parses a metric cell such as "12,345".
func ParseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", s, err)
	}
	return n, nil
}

// VersionQueries scopes queries to one app version.
type VersionQueries struct {
	service Querier
	version Version
	strict  bool
}

// NewVersionQueries binds q to version.
func NewVersionQueries(q Querier, version Version, strict bool) VersionQueries {
	return VersionQueries{service: q, version: version, strict: strict}
}

// Version returns the bound version.
func (v VersionQueries) Version() Version { return v.version }

func (v VersionQueries) Query(ctx context.Context, metric Metric, dims []CustomDimension, filters, start string) ([]Row, error) {
	return v.service.Query(ctx, Query{
		Version:       v.version,
		Metric:        metric,
		Dimensions:    dims,
		Filters:       filters,
		StartOverride: start,
		Strict:        v.strict,
	})
}

// TotalUsers returns the user count; ok is false when there were no rows.
func (v VersionQueries) TotalUsers(ctx context.Context) (total int64, ok bool, err error) {
	rows, err := v.Query(ctx, Users, nil, "", "")
	if err != nil {
		return 0, false, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, false, nil
	}
	total, err = ParseCount(rows[0][0])
	return total, err == nil, err
}

func (v VersionQueries) TotalSessions(ctx context.Context) (int64, error) {
	return v.total(ctx, Sessions)
}

func (v VersionQueries) TotalEvents(ctx context.Context) (int64, error) {
	return v.total(ctx, Events)
}

func (v VersionQueries) TotalCrashes(ctx context.Context) (int64, error) {
	return v.total(ctx, Crashes)
}

func (v VersionQueries) total(ctx context.Context, metric Metric) (int64, error) {
	rows, err := v.Query(ctx, metric, nil, "", "")
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, fmt.Errorf("%s for %s: %w", metric, v.version, ErrNoRows)
	}
	return ParseCount(rows[0][0])
}

// SimpleQueries fixes the metric and filters so callers only pick a dimension.
type SimpleQueries struct {
	VersionQueries
	metric  Metric
	filters string
}

// NewSimpleQueries binds metric and filters on top of v.
func NewSimpleQueries(v VersionQueries, metric Metric, filters string) SimpleQueries {
	return SimpleQueries{VersionQueries: v, metric: metric, filters: filters}
}

// Filters returns the bound filter expression.
func (s SimpleQueries) Filters() string { return s.filters }

// Query runs the bound metric over one dimension.
func (s SimpleQueries) Query(ctx context.Context, dim CustomDimension, start string) ([]Row, error) {
	return s.VersionQueries.Query(ctx, s.metric, []CustomDimension{dim}, s.filters, start)
}
