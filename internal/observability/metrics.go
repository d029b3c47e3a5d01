// Package observability holds the Prometheus collectors shared by the
// ingestion pipeline and the report layer.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsIngested counts telemetry sessions by ingestion result:
	// "stored" or "skipped".
	SessionsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kpi_sessions_ingested_total",
		Help: "Telemetry sessions seen by ingestion, by result",
	}, []string{"result"})

	// IngestRuns counts ingestion batches by outcome.
	IngestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kpi_ingest_runs_total",
		Help: "Ingestion batches by outcome",
	}, []string{"outcome"})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kpi_ingest_duration_seconds",
		Help:    "Ingestion batch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	viewQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kpi_view_query_duration_seconds",
		Help:    "Aggregation view query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"view"})

	viewRows = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kpi_view_rows",
		Help:    "Rows returned per aggregation view query",
		Buckets: []float64{0, 1, 10, 100, 1000, 10000},
	}, []string{"view"})
)

// ObserveIngest records the duration and outcome of one ingestion batch.
func ObserveIngest(start time.Time, err error) {
	ingestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		IngestRuns.WithLabelValues("error").Inc()
		return
	}
	IngestRuns.WithLabelValues("ok").Inc()
}

// ObserveView records one view query.
func ObserveView(view string, start time.Time, rows int) {
	viewQueryDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
	viewRows.WithLabelValues(view).Observe(float64(rows))
}
