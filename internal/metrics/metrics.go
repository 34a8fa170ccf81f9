// Package metrics provides Prometheus collectors for the usage dashboard.
//
// Collectors are registered globally on import and exposed on /metrics.
// Use the Record helpers rather than touching the vectors directly:
//
//	metrics.RecordGAQuery("ga:users", "ok", elapsed)
//	metrics.RecordCacheLookup("redis", "hit")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "usage_dashboard"

var (
	// GAQueriesTotal counts reporting API calls by metric and result (ok, empty, error, refused).
	GAQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ga",
			Name:      "queries_total",
			Help:      "Total number of Google Analytics reporting queries by metric and result",
		},
		[]string{"metric", "result"},
	)

	// GAQueryDuration tracks reporting API latency.
	GAQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ga",
			Name:      "query_duration_seconds",
			Help:      "Google Analytics reporting query latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"metric"},
	)

	// CacheRequestsTotal counts query cache lookups by backend and result (hit, miss, error).
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Total number of query cache lookups by backend and result",
		},
		[]string{"backend", "result"},
	)

	// SnapshotBuildsTotal counts dashboard snapshot builds by result.
	SnapshotBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "builds_total",
			Help:      "Total number of dashboard snapshot builds by result",
		},
		[]string{"result"},
	)

	// SnapshotBuildDuration tracks how long a full dashboard build takes.
	SnapshotBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "build_duration_seconds",
			Help:      "Dashboard snapshot build duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// SnapshotGeneratedTimestamp is the unix time of the snapshot currently served.
	SnapshotGeneratedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "generated_timestamp_seconds",
			Help:      "Unix timestamp of the dashboard snapshot currently being served",
		},
	)

	// ReportExportsTotal counts report generations by kind, delivery (stream, s3) and result.
	ReportExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "exports_total",
			Help:      "Total number of generated reports by kind, delivery and result",
		},
		[]string{"kind", "delivery", "result"},
	)

	// GatewayRequestsTotal counts scenery gateway statistics fetches.
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of scenery gateway statistics requests by result",
		},
		[]string{"result"},
	)

	// TelemetryExportFailuresTotal counts OTLP exporter setup failures by
	// exporter (grpc, http, degraded).
	TelemetryExportFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "export_failures_total",
			Help:      "Total number of telemetry exporter initialization failures by exporter",
		},
		[]string{"exporter"},
	)
)

// RecordGAQuery records one reporting query.
func RecordGAQuery(metric, result string, elapsed time.Duration) {
	GAQueriesTotal.WithLabelValues(metric, result).Inc()
	GAQueryDuration.WithLabelValues(metric).Observe(elapsed.Seconds())
}

// RecordCacheLookup records a cache hit, miss or error.
func RecordCacheLookup(backend, result string) {
	CacheRequestsTotal.WithLabelValues(backend, result).Inc()
}

// RecordSnapshotBuild records a snapshot build attempt.
func RecordSnapshotBuild(result string, elapsed time.Duration) {
	SnapshotBuildsTotal.WithLabelValues(result).Inc()
	SnapshotBuildDuration.Observe(elapsed.Seconds())
}

// RecordSnapshotServed marks the generation time of the snapshot being served.
func RecordSnapshotServed(generatedAt time.Time) {
	SnapshotGeneratedTimestamp.Set(float64(generatedAt.Unix()))
}

// RecordReportExport records a report generation.
func RecordReportExport(kind, delivery, result string) {
	ReportExportsTotal.WithLabelValues(kind, delivery, result).Inc()
}

// RecordGatewayRequest records a scenery gateway fetch.
func RecordGatewayRequest(result string) {
	GatewayRequestsTotal.WithLabelValues(result).Inc()
}

// RecordTelemetryExportFailure records a failed exporter setup; an empty
// exporter means the gRPC default.
func RecordTelemetryExportFailure(exporter string) {
	if exporter == "" {
		exporter = "grpc"
	}
	TelemetryExportFailuresTotal.WithLabelValues(exporter).Inc()
}
