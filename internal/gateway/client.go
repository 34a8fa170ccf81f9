// Package gateway reads monthly statistics from the X-Plane Scenery Gateway.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/cache"
	"github.com/X-Plane/dashboard/internal/metrics"
)

const (
	// DefaultURL is the public monthly statistics endpoint.
	DefaultURL     = "http://gateway.x-plane.com/apiv1/stats/by-month"
	defaultTimeout = 15 * time.Second
	cacheKey       = "gateway-stats-by-month"
	monthLayout    = "2006-01"
)

var (
	// ErrMissingMetric is returned when the response lacks a statistic or its
	// series does not line up with the months.
	ErrMissingMetric = errors.New("missing required metric from the server")
	// ErrUnknownStat is returned by ParseStat.
	ErrUnknownStat = errors.New("unknown gateway statistic")
)

// Stat is a gateway statistic key.
type Stat string

const (
	Airports    Stat = "airports"
	Airports3D  Stat = "recommended3dAirports"
	Submissions Stat = "totalUserSceneryPacks"
	Artists     Stat = "registeredArtists"
)

// Stats lists every statistic the dashboard charts.
var Stats = []Stat{Airports, Airports3D, Submissions, Artists}

// ParseStat validates a statistic key.
func ParseStat(s string) (Stat, error) {
	for _, stat := range Stats {
		if string(stat) == s {
			return stat, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStat, s)
}

// ByMonth is the validated response: one value per month for each statistic.
type ByMonth struct {
	Months []string         `json:"months"`
	Values map[Stat][]int64 `json:"values"`
}

// MonthCount is one point of a monthly series.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// Config configures the client.
type Config struct {
	URL        string
	Timeout    time.Duration
	Cache      cache.Store
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client fetches gateway statistics.
type Client struct {
	url    string
	http   *http.Client
	cache  cache.Store
	logger *zap.Logger
}

// NewClient returns a client with defaults applied.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{url: cfg.URL, http: cfg.HTTPClient, cache: cfg.Cache, logger: cfg.Logger}
}

// AllByMonth returns every statistic, served from the cache when possible.
func (c *Client) AllByMonth(ctx context.Context) (ByMonth, error) {
	return cache.Cached(ctx, c.cache, c.logger, cacheKey, c.fetch)
}

func (c *Client) fetch(ctx context.Context) (ByMonth, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return ByMonth{}, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordGatewayRequest("error")
		return ByMonth{}, fmt.Errorf("fetch gateway stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordGatewayRequest("error")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ByMonth{}, fmt.Errorf("fetch gateway stats: status %d: %s", resp.StatusCode, body)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		metrics.RecordGatewayRequest("error")
		return ByMonth{}, fmt.Errorf("decode gateway stats: %w", err)
	}

	out, err := parse(raw)
	if err != nil {
		metrics.RecordGatewayRequest("invalid")
		return ByMonth{}, err
	}
	metrics.RecordGatewayRequest("ok")
	return out, nil
}

func parse(raw map[string]json.RawMessage) (ByMonth, error) {
	out := ByMonth{Values: make(map[Stat][]int64, len(Stats))}
	if err := json.Unmarshal(raw["months"], &out.Months); err != nil {
		return ByMonth{}, fmt.Errorf("%w: months", ErrMissingMetric)
	}
	for _, stat := range Stats {
		data, ok := raw[string(stat)]
		if !ok {
			return ByMonth{}, fmt.Errorf("%w: %s", ErrMissingMetric, stat)
		}
		var values []int64
		if err := json.Unmarshal(data, &values); err != nil {
			return ByMonth{}, fmt.Errorf("%w: %s: %v", ErrMissingMetric, stat, err)
		}
		if len(values) != len(out.Months) {
			return ByMonth{}, fmt.Errorf("%w: %s has %d values for %d months", ErrMissingMetric, stat, len(values), len(out.Months))
		}
		out.Values[stat] = values
	}
	return out, nil
}

// OverTime returns the monthly series for stat, dropping months that have
// not started before now.
func (c *Client) OverTime(ctx context.Context, stat Stat, now time.Time) ([]MonthCount, error) {
	all, err := c.AllByMonth(ctx)
	if err != nil {
		return nil, err
	}
	values, ok := all.Values[stat]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStat, stat)
	}

	out := make([]MonthCount, 0, len(all.Months))
	for i, month := range all.Months {
		start, err := time.Parse(monthLayout, month)
		if err != nil {
			c.logger.Debug("skipping malformed month", zap.String("month", month))
			continue
		}
		if start.Before(now) {
			out = append(out, MonthCount{Month: month, Count: values[i]})
		}
	}
	return out, nil
}
