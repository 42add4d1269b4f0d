// Package telemetry exposes Prometheus instrumentation for the feed and
// decision pipeline.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	Decisions         = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobfinder_decisions_total", Help: "Swipe decisions by outcome"}, []string{"outcome"})
	PagesFetched      = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobfinder_feed_pages_fetched_total", Help: "Feed pages fetched from the source"})
	StaleLoadsDropped = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobfinder_stale_loads_dropped_total", Help: "Fetch results discarded because a newer criteria generation superseded them"})
	Submissions       = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobfinder_submissions_total", Help: "Accepted jobs submitted to the application queue"})
	SubmissionStatus  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobfinder_submission_status_total", Help: "Application queue status transitions"}, []string{"status"})
	QueueDepthGauge   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "jobfinder_appqueue_depth", Help: "Pending submissions in the application queue"})
	IngestInserted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobfinder_ingest_inserted_total", Help: "New postings inserted by ingest runs"})
	IngestDuplicates  = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobfinder_ingest_duplicates_total", Help: "Postings skipped by ingest because the source URL already exists"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			Decisions,
			PagesFetched,
			StaleLoadsDropped,
			Submissions,
			SubmissionStatus,
			QueueDepthGauge,
			IngestInserted,
			IngestDuplicates,
		)
	})
	return promhttp.Handler()
}
