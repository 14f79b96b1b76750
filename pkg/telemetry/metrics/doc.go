// Package metrics provides Prometheus metrics for svnwatch.
//
// The Collector registers the poller metrics in its own registry and hands
// out svn.Observer implementations bound to a repository label:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	poller.SetObserver(collector.Observer(poller.Config().RepositoryURL))
//	mux.Handle("/metrics", collector.Handler())
//
// Exposed series (namespace and subsystem default to svnwatch_poller):
//
//	svnwatch_poller_cycles_total{repository,result}
//	svnwatch_poller_cycle_aborts_total{repository,stage,kind}
//	svnwatch_poller_cycle_duration_seconds{repository,result}
//	svnwatch_poller_log_entries_total{repository}
//	svnwatch_poller_changes_total{repository}
//	svnwatch_poller_watermark_revision{repository}
//	svnwatch_poller_last_success_timestamp_seconds{repository}
//	svnwatch_poller_dropped_triggers_total{repository}
//	svnwatch_poller_sink_failures_total{repository}
//	svnwatch_poller_gaps_total{repository}
//
// Repository label values are capped by a CardinalityLimiter; values past
// the cap are reported as "other".
package metrics
