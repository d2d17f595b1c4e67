// Package metrics exports Prometheus instrumentation for the feed pipeline
// and the proximity matcher.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reason identifiers so the normalizer can classify discarded records
// without stringly-typed constants at call sites.
const (
	DropReasonMissingVehicleID = "missing_vehicle_id"
	DropReasonBadTimestamp     = "bad_timestamp"
	DropReasonStaleDate        = "stale_date"
	DropReasonBadCoordinates   = "bad_coordinates"
)

// Fetch and run outcome labels.
const (
	OutcomeSuccess         = "success"
	OutcomeError           = "error"
	RunOutcomeCompleted    = "completed"
	RunOutcomeNoAlerts     = "no_alerts"
	RunOutcomeSkipUpstream = "skipped_upstream"
)

var (
	fetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "busalerts_upstream_fetches_total",
		Help: "Total upstream feed fetches by outcome.",
	}, []string{"outcome"})
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "busalerts_snapshot_cache_hits_total",
		Help: "Snapshot cache hits within the freshness window.",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "busalerts_snapshot_cache_misses_total",
		Help: "Snapshot cache misses that triggered an upstream fetch.",
	})
	droppedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "busalerts_records_dropped_total",
		Help: "Raw feed records dropped during normalization by reason.",
	}, []string{"reason"})
	notificationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "busalerts_notifications_total",
		Help: "Proximity notifications emitted by the matcher.",
	})
	matcherRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "busalerts_matcher_runs_total",
		Help: "Matcher runs by outcome.",
	}, []string{"outcome"})
	matcherDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "busalerts_matcher_run_duration_seconds",
		Help:    "Histogram of matcher run durations.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		fetchesTotal,
		cacheHits,
		cacheMisses,
		droppedRecords,
		notificationsTotal,
		matcherRuns,
		matcherDuration,
	)
}

// IncDroppedRecord classifies one discarded raw record.
func IncDroppedRecord(reason string) {
	droppedRecords.WithLabelValues(reason).Inc()
}

// IncNotification counts one emitted proximity notification.
func IncNotification() {
	notificationsTotal.Inc()
}

// IncMatcherRun counts one matcher invocation by outcome.
func IncMatcherRun(outcome string) {
	matcherRuns.WithLabelValues(outcome).Inc()
}

// ObserveMatcherRun records the duration of a completed matcher run.
func ObserveMatcherRun(d time.Duration) {
	matcherDuration.Observe(d.Seconds())
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// FeedObserver adapts the feed cache's observer hooks onto the counters.
type FeedObserver struct{}

func (FeedObserver) CacheHit()       { cacheHits.Inc() }
func (FeedObserver) CacheMiss()      { cacheMisses.Inc() }
func (FeedObserver) FetchSucceeded() { fetchesTotal.WithLabelValues(OutcomeSuccess).Inc() }
func (FeedObserver) FetchFailed()    { fetchesTotal.WithLabelValues(OutcomeError).Inc() }
