package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/svnwatch/pkg/svn"
)

// Attribute keys for poll cycle spans. Custom keys use the "svn.*" namespace.
const (
	AttrRepository        = "svn.repository"
	AttrCycleID           = "svn.cycle_id"
	AttrTrigger           = "svn.trigger"
	AttrPrefix            = "svn.prefix"
	AttrPreviousWatermark = "svn.watermark.previous"
	AttrWatermark         = "svn.watermark"
	AttrFetchedEntries    = "svn.entries.fetched"
	AttrNewEntries        = "svn.entries.new"
	AttrChanges           = "svn.changes"
	AttrSinkFailures      = "svn.sink_failures"
	AttrFirstPoll         = "svn.first_poll"
	AttrGap               = "svn.gap"

	AttrErrorMessage = "error.message"
)

// TriggerAttributes describes why a cycle started ("schedule", "startup",
// "manual").
func TriggerAttributes(repository, trigger string) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String(AttrRepository, repository),
		attribute.String(AttrTrigger, trigger),
	)
}

// SetCycleAttributes records the outcome of a completed poll cycle on span.
// A nil report (aborted or dropped cycle) is ignored.
func SetCycleAttributes(span trace.Span, report *svn.CycleReport) {
	if report == nil {
		return
	}
	span.SetAttributes(
		attribute.String(AttrCycleID, report.CycleID),
		attribute.String(AttrPrefix, report.Prefix),
		attribute.Int64(AttrPreviousWatermark, int64(report.PreviousWatermark)),
		attribute.Int64(AttrWatermark, int64(report.Watermark)),
		attribute.Int(AttrFetchedEntries, report.FetchedEntries),
		attribute.Int(AttrNewEntries, report.NewEntries),
		attribute.Int(AttrChanges, len(report.Changes)),
		attribute.Int(AttrSinkFailures, report.SinkFailures),
		attribute.Bool(AttrFirstPoll, report.FirstPoll),
		attribute.Bool(AttrGap, report.Gap),
	)
}
