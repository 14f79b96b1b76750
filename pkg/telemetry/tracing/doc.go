// Package tracing provides OpenTelemetry tracing for poll cycles.
//
// A Tracer satisfies svn.Tracer, so the poller opens a "svn.poll" span per
// cycle with one child span per stage:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(version))
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//	poller.SetTracer(tracer)
//
// Spans are exported over OTLP/gRPC. When tracing is disabled a noop tracer
// is used and spans cost next to nothing.
//
// Callers that trigger cycles wrap Poll in their own span and annotate it
// with SetCycleAttributes. HTTPMiddleware lets a manual trigger over the
// admin server join the caller's trace.
package tracing
