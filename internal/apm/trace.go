package apm

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceIDFromContext returns the hex trace id of the active span, or "" when
// the context carries no valid span.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
