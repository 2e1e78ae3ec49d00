// Package metrics provides Prometheus metrics for adreader runs.
//
// adreader is a batch job, so metrics live on a dedicated registry that is
// pushed to a Prometheus Pushgateway when a run ends instead of being
// scraped.
//
// # Basic Usage
//
//	metrics.RecordsTotal.WithLabelValues("facebook", "results_account_1").Add(500)
//
//	timer := metrics.NewTimer("sdf_task")
//	job, err := poller.Run(ctx, request)
//	metrics.ExportJobDuration.WithLabelValues("dv360", string(job.State)).
//	    Observe(timer.Stop().Seconds())
//
//	if err := metrics.Push(ctx, "http://pushgateway:9091", "adreader", nil); err != nil {
//	    logger.Warn("metrics push failed", zap.Error(err))
//	}
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds every adreader metric
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RecordsTotal counts records written per reader and stream.
	// Labels: reader, stream
	RecordsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreader_records_total",
			Help: "Total number of records written",
		},
		[]string{"reader", "stream"},
	)

	// ExportJobPolls counts status polls of asynchronous export jobs.
	// Labels: reader, outcome (running, done, failed, error)
	ExportJobPolls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreader_export_job_polls_total",
			Help: "Total number of export job status polls",
		},
		[]string{"reader", "outcome"},
	)

	// ExportJobDuration tracks time from submission to a terminal state.
	// Labels: reader, state
	ExportJobDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "adreader_export_job_duration_seconds",
			Help: "Export job duration from submission to terminal state",
			// 1s up to ~9h
			Buckets: prometheus.ExponentialBuckets(1, 3, 11),
		},
		[]string{"reader", "state"},
	)

	// DownloadBytes counts bytes fetched from export job results.
	// Labels: reader
	DownloadBytes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreader_download_bytes_total",
			Help: "Total bytes downloaded from export results",
		},
		[]string{"reader"},
	)

	// Writes counts streams handed to writers.
	// Labels: writer, status (success, failure)
	Writes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreader_writes_total",
			Help: "Total number of streams written",
		},
		[]string{"writer", "status"},
	)

	// HTTPRequests counts API requests by host and status class.
	// Labels: host, status
	HTTPRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adreader_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"host", "status"},
	)
)

// Timer measures elapsed time from its creation.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Push sends every metric in Registry to the Pushgateway at url under job.
// grouping adds grouping labels such as the reader name.
func Push(ctx context.Context, url, job string, grouping map[string]string) error {
	pusher := push.New(url, job).Gatherer(Registry)
	for name, value := range grouping {
		pusher = pusher.Grouping(name, value)
	}
	return pusher.PushContext(ctx)
}
