package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// CycleIDKey is the context key for poll cycle IDs.
	CycleIDKey contextKey = "cycle_id"

	// RepositoryKey is the context key for the watched repository URL.
	RepositoryKey contextKey = "repository"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"

	// SpanIDKey is the context key for span IDs.
	SpanIDKey contextKey = "span_id"
)

// WithCycleID adds a poll cycle ID to the context.
func WithCycleID(ctx context.Context, cycleID string) context.Context {
	return context.WithValue(ctx, CycleIDKey, cycleID)
}

// GetCycleID retrieves the poll cycle ID from the context.
func GetCycleID(ctx context.Context) string {
	if id, ok := ctx.Value(CycleIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRepository adds a repository URL to the context.
func WithRepository(ctx context.Context, repository string) context.Context {
	return context.WithValue(ctx, RepositoryKey, repository)
}

// GetRepository retrieves the repository URL from the context.
func GetRepository(ctx context.Context) string {
	if repo, ok := ctx.Value(RepositoryKey).(string); ok {
		return repo
	}
	return ""
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context. An active OpenTelemetry
// span wins over an explicitly stored ID.
func GetTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithSpanID adds a span ID to the context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// GetSpanID retrieves the span ID from the context.
func GetSpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	if spanID, ok := ctx.Value(SpanIDKey).(string); ok {
		return spanID
	}
	return ""
}

// extractContextFields extracts all known log fields from context.
func extractContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var fields []any
	if v := GetCycleID(ctx); v != "" {
		fields = append(fields, string(CycleIDKey), v)
	}
	if v := GetRepository(ctx); v != "" {
		fields = append(fields, string(RepositoryKey), v)
	}
	if v := GetTraceID(ctx); v != "" {
		fields = append(fields, string(TraceIDKey), v)
	}
	if v := GetSpanID(ctx); v != "" {
		fields = append(fields, string(SpanIDKey), v)
	}
	return fields
}
