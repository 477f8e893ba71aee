package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/teemow/slotbook"

// Span attribute keys.
const (
	spanTool      = "mcp.tool"
	spanService   = "google.service"
	spanOperation = "google.operation"
	attrCalendar  = "google.calendar_id"
	spanProvider  = "llm.provider"
	attrModel     = "llm.model"
	attrState     = "session.state"
	attrAttempt   = "session.attempt"
)

func start(ctx context.Context, name string, kind trace.SpanKind, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
	)
}

// StartStateSpan starts a span covering one orchestrator state.
func StartStateSpan(ctx context.Context, state string, attempt int) (context.Context, trace.Span) {
	return start(ctx, "session."+state, trace.SpanKindInternal, []attribute.KeyValue{
		attribute.String(attrState, state),
		attribute.Int(attrAttempt, attempt),
	})
}

// StartLLMSpan starts a client span for one extraction request.
func StartLLMSpan(ctx context.Context, provider, model string) (context.Context, trace.Span) {
	return start(ctx, "llm."+provider+"."+OperationExtract, trace.SpanKindClient, []attribute.KeyValue{
		attribute.String(spanProvider, provider),
		attribute.String(attrModel, model),
	})
}

// StartToolSpan starts a server span for an MCP tool call.
func StartToolSpan(ctx context.Context, tool string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, "tool."+tool, trace.SpanKindServer,
		append([]attribute.KeyValue{attribute.String(spanTool, tool)}, attrs...))
}

// StartGoogleAPISpan starts a client span for a Google API request.
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	base := []attribute.KeyValue{
		attribute.String(spanService, service),
		attribute.String(spanOperation, operation),
	}
	return start(ctx, "google."+service+"."+operation, trace.SpanKindClient, append(base, attrs...))
}

// CalendarAttr tags a span with the calendar it touches.
func CalendarAttr(calendarID string) attribute.KeyValue {
	return attribute.String(attrCalendar, calendarID)
}

// EndSpan records err, if any, as the span status and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the trace id of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the id of the span in ctx, or "".
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
