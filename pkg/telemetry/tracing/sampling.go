package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampler names accepted in telemetry.tracing.sampler.
const (
	// SamplerAlways samples every poll cycle. Cycles are minutes apart, so
	// this is the default.
	SamplerAlways = "always"

	// SamplerNever keeps span creation in place but exports nothing.
	SamplerNever = "never"

	// SamplerRatio samples a fraction of cycles by trace ID.
	SamplerRatio = "ratio"
)

// createSampler builds the root sampler for strategy. The result is wrapped
// in ParentBased, so a manual POST /poll carrying a traceparent header
// follows the caller's sampling decision and scheduled cycles use strategy.
//
//	telemetry:
//	  tracing:
//	    sampler: ratio
//	    sample_ratio: 0.25
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var root sdktrace.Sampler

	switch strategy {
	case SamplerAlways, "":
		root = sdktrace.AlwaysSample()
	case SamplerNever:
		root = sdktrace.NeverSample()
	case SamplerRatio:
		if ratio < 0.0 || ratio > 1.0 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		root = sdktrace.TraceIDRatioBased(ratio)
	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio)", strategy)
	}

	return sdktrace.ParentBased(root), nil
}
