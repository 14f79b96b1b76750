package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/svnwatch/pkg/config"
)

// PollerMetrics tracks poll cycles.
//
// Metrics:
//   - svnwatch_poller_cycles_total: cycles by result (completed, aborted)
//   - svnwatch_poller_cycle_aborts_total: aborted cycles by stage and error kind
//   - svnwatch_poller_cycle_duration_seconds: cycle duration histogram
//   - svnwatch_poller_log_entries_total: new log entries seen
//   - svnwatch_poller_changes_total: changes handed to the sink
//   - svnwatch_poller_watermark_revision: last revision processed
//   - svnwatch_poller_last_success_timestamp_seconds: time of the last completed cycle
//   - svnwatch_poller_dropped_triggers_total: triggers dropped because a cycle was running
//   - svnwatch_poller_sink_failures_total: changes the sink rejected
//   - svnwatch_poller_gaps_total: cycles whose log window did not reach the watermark
type PollerMetrics struct {
	cycles          *prometheus.CounterVec
	aborts          *prometheus.CounterVec
	cycleDuration   *prometheus.HistogramVec
	logEntries      *prometheus.CounterVec
	changes         *prometheus.CounterVec
	watermark       *prometheus.GaugeVec
	lastSuccess     *prometheus.GaugeVec
	droppedTriggers *prometheus.CounterVec
	sinkFailures    *prometheus.CounterVec
	gaps            *prometheus.CounterVec
}

// NewPollerMetrics creates and registers poller metrics with the provided registry.
func NewPollerMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PollerMetrics {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, append([]string{"repository"}, labels...))
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, []string{"repository"})
	}

	pm := &PollerMetrics{
		cycles:     counter("cycles_total", "Total number of poll cycles by result", "result"),
		aborts:     counter("cycle_aborts_total", "Aborted poll cycles by stage and error kind", "stage", "kind"),
		logEntries: counter("log_entries_total", "New log entries found by poll cycles"),
		changes:    counter("changes_total", "Changes handed to the sink"),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of poll cycles in seconds",
			Buckets:   cfg.CycleDurationBuckets,
		}, []string{"repository", "result"}),
		watermark:       gauge("watermark_revision", "Last revision processed by the poller"),
		lastSuccess:     gauge("last_success_timestamp_seconds", "Unix time of the last completed poll cycle"),
		droppedTriggers: counter("dropped_triggers_total", "Poll triggers dropped because a cycle was already running"),
		sinkFailures:    counter("sink_failures_total", "Changes rejected by the sink"),
		gaps:            counter("gaps_total", "Poll cycles whose log window did not reach the previous watermark"),
	}

	registry.MustRegister(
		pm.cycles,
		pm.aborts,
		pm.cycleDuration,
		pm.logEntries,
		pm.changes,
		pm.watermark,
		pm.lastSuccess,
		pm.droppedTriggers,
		pm.sinkFailures,
		pm.gaps,
	)

	return pm
}

// RecordCycle records a completed poll cycle.
func (pm *PollerMetrics) RecordCycle(repository string, d time.Duration, newEntries, changes int, watermark int64) {
	pm.cycles.WithLabelValues(repository, "completed").Inc()
	pm.cycleDuration.WithLabelValues(repository, "completed").Observe(d.Seconds())
	pm.logEntries.WithLabelValues(repository).Add(float64(newEntries))
	pm.changes.WithLabelValues(repository).Add(float64(changes))
	if watermark >= 0 {
		pm.watermark.WithLabelValues(repository).Set(float64(watermark))
	}
	pm.lastSuccess.WithLabelValues(repository).SetToCurrentTime()
}

// RecordAbort records a poll cycle that aborted at stage.
func (pm *PollerMetrics) RecordAbort(repository, stage, kind string, d time.Duration) {
	pm.cycles.WithLabelValues(repository, "aborted").Inc()
	pm.aborts.WithLabelValues(repository, stage, kind).Inc()
	pm.cycleDuration.WithLabelValues(repository, "aborted").Observe(d.Seconds())
}
