// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingest metrics
	SnapshotRowsFetched prometheus.Counter
	SnapshotRowsStored  prometheus.Counter

	// Analysis metrics
	ReportRowsStored prometheus.Counter
	ItemsSkipped     prometheus.Counter

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulIngest   prometheus.Gauge
	LastSuccessfulAnalysis prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "market_etl"
	}

	return &Metrics{
		SnapshotRowsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "snapshot_rows_fetched_total",
			Help:      "Total number of snapshot rows fetched from the upstream API",
		}),
		SnapshotRowsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "snapshot_rows_stored_total",
			Help:      "Total number of snapshot rows handed to storage",
		}),
		ReportRowsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "report_rows_stored_total",
			Help:      "Total number of profit report rows handed to storage",
		}),
		ItemsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "items_skipped_total",
			Help:      "Total number of items dropped for incomplete comparison data",
		}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by phase and outcome",
		}, []string{"phase", "status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		LastSuccessfulIngest: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingest_timestamp",
			Help:      "Unix timestamp of the last successful ingest run",
		}),
		LastSuccessfulAnalysis: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of the last successful analysis run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordIngestRun records one ingest run. status is "ok" or the taxonomy
// label of the failure.
func RecordIngestRun(status string, durationSeconds float64, rowsFetched, rowsStored int) {
	DefaultMetrics.RunsTotal.WithLabelValues("ingest", status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues("ingest").Observe(durationSeconds)
	DefaultMetrics.SnapshotRowsFetched.Add(float64(rowsFetched))
	DefaultMetrics.SnapshotRowsStored.Add(float64(rowsStored))
}

// RecordAnalysisRun records one analysis run.
func RecordAnalysisRun(status string, durationSeconds float64, rowsStored, itemsSkipped int) {
	DefaultMetrics.RunsTotal.WithLabelValues("analysis", status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues("analysis").Observe(durationSeconds)
	DefaultMetrics.ReportRowsStored.Add(float64(rowsStored))
	DefaultMetrics.ItemsSkipped.Add(float64(itemsSkipped))
}

// MarkIngestSuccess sets the ingest health timestamp.
func MarkIngestSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulIngest.Set(float64(unixSeconds))
}

// MarkAnalysisSuccess sets the analysis health timestamp.
func MarkAnalysisSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulAnalysis.Set(float64(unixSeconds))
}
