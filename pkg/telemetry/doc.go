// Package telemetry groups the observability packages of svnwatch.
//
//   - logging: slog loggers with credential redaction and a runtime level
//   - metrics: Prometheus collector implementing svn.Observer
//   - tracing: OpenTelemetry spans per poll cycle and stage
//   - health: liveness and readiness probes
//
// Wiring, as done by "svnwatch run":
//
//	logger, _ := logging.New(logging.Config{Level: "info", Format: "json", RedactSecrets: true})
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing)
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	poller.SetLogger(logger.WithComponent("poller"))
//	poller.SetTracer(tracer)
//	poller.SetObserver(collector.Observer(cfg.Source.URL))
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout.Std())
//	checker.RegisterCheck("poller", health.PollerCheck(poller, 3))
package telemetry
