// Package reports renders downloadable usage reports and delivers them to
// object storage.
//
// Purpose:
//
//	The aircraft workbook and hardware CSV mirror the monthly analyses the
//	product team circulates. Both are generated on demand from the same cached
//	reporting queries the dashboard uses.
//
// Dependencies:
//   - github.com/xuri/excelize/v2 for the workbook
//   - aws-sdk-go-v2 for S3-compatible delivery
package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/ga"
	"github.com/X-Plane/dashboard/internal/metrics"
	"github.com/X-Plane/dashboard/internal/stats"
)

// Kind names a report.
type Kind string

const (
	KindAircraft Kind = "aircraft"
	KindHardware Kind = "hardware"
)

// Content types of the generated files.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

// ErrUnknownKind is returned for report names other than aircraft and hardware.
var ErrUnknownKind = errors.New("unknown report kind")

// ParseKind parses a report name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAircraft, KindHardware:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Report is a rendered file.
type Report struct {
	Kind        Kind
	Name        string
	ContentType string
	Data        []byte
}

// Generator renders reports for one version and user group.
type Generator struct {
	queries ga.VersionQueries
	group   ga.UserGroup
	logger  *zap.Logger
	now     func() time.Time
}

// NewGenerator wraps version-scoped queries.
func NewGenerator(queries ga.VersionQueries, group ga.UserGroup, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{queries: queries, group: group, logger: logger, now: time.Now}
}

// AircraftStats runs the flights-per-aircraft query.
func (g *Generator) AircraftStats(ctx context.Context) (*stats.AircraftStats, error) {
	rows, err := g.queries.Query(ctx, ga.Events, []ga.CustomDimension{ga.Aircraft}, g.group.Filter(), "")
	if err != nil {
		return nil, fmt.Errorf("aircraft query: %w", err)
	}
	return stats.AircraftStatsFromRows(rows, g.logger), nil
}

// HardwareStats returns hardware breakdowns over users in the group.
func (g *Generator) HardwareStats() *stats.HardwareStats {
	return stats.NewHardwareStats(ga.NewSimpleQueries(g.queries, ga.Users, g.group.Filter()), g.logger)
}

// Generate renders the named report.
func (g *Generator) Generate(ctx context.Context, kind Kind, absolute bool) (Report, error) {
	var (
		report Report
		err    error
	)
	switch kind {
	case KindAircraft:
		report, err = g.aircraft(ctx, absolute)
	case KindHardware:
		report, err = g.hardware(ctx, absolute)
	default:
		return Report{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		metrics.RecordReportExport(string(kind), "stream", "error")
		return Report{}, err
	}
	metrics.RecordReportExport(string(kind), "stream", "success")
	return report, nil
}

func (g *Generator) aircraft(ctx context.Context, absolute bool) (Report, error) {
	s, err := g.AircraftStats(ctx)
	if err != nil {
		return Report{}, err
	}
	var buf bytes.Buffer
	if err := WriteAircraftWorkbook(&buf, s, WorkbookOptions{Absolute: absolute}); err != nil {
		return Report{}, err
	}
	return Report{
		Kind:        KindAircraft,
		Name:        AircraftFileName(g.now()),
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

func (g *Generator) hardware(ctx context.Context, absolute bool) (Report, error) {
	hr, err := BuildHardwareReport(ctx, g.HardwareStats(), absolute)
	if err != nil {
		return Report{}, err
	}
	var buf bytes.Buffer
	if err := HardwareCSV(&buf, hr); err != nil {
		return Report{}, err
	}
	return Report{
		Kind:        KindHardware,
		Name:        HardwareFileName(g.queries.Version(), g.group, g.now()),
		ContentType: ContentTypeCSV,
		Data:        buf.Bytes(),
	}, nil
}
