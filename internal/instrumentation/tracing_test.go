package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestSpans(t *testing.T) {
	rec := recordSpans(t)
	ctx := context.Background()

	ctx, state := StartStateSpan(ctx, "extract", 2)
	assert.NotEmpty(t, GetTraceID(ctx))

	_, llm := StartLLMSpan(ctx, "gemini", "gemini-2.5-flash")
	EndSpan(llm, errors.New("boom"))

	_, api := StartGoogleAPISpan(ctx, ServiceCalendar, OperationFreeBusy, CalendarAttr("primary"))
	EndSpan(api, nil)

	_, tool := StartToolSpan(ctx, "slot_extract")
	EndSpan(tool, nil)
	EndSpan(state, nil)

	spans := rec.Ended()
	require.Len(t, spans, 4)

	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range spans {
		byName[s.Name()] = s
	}

	llmSpan := byName["llm.gemini.extract"]
	require.NotNil(t, llmSpan)
	assert.Equal(t, trace.SpanKindClient, llmSpan.SpanKind())
	assert.Equal(t, codes.Error, llmSpan.Status().Code)

	apiSpan := byName["google.calendar.freebusy"]
	require.NotNil(t, apiSpan)
	assert.Equal(t, codes.Ok, apiSpan.Status().Code)
	assert.Contains(t, apiSpan.Attributes(), CalendarAttr("primary"))

	toolSpan := byName["tool.slot_extract"]
	require.NotNil(t, toolSpan)
	assert.Equal(t, trace.SpanKindServer, toolSpan.SpanKind())

	stateSpan := byName["session.extract"]
	require.NotNil(t, stateSpan)
	assert.Equal(t, llmSpan.Parent().SpanID(), stateSpan.SpanContext().SpanID())
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
}
