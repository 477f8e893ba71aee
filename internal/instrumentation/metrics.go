package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrFrom      = "from"
	attrTo        = "to"
	attrOutcome   = "outcome"
	attrProvider  = "provider"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
)

// Metrics records slotbook metrics. The zero value and a nil *Metrics are
// valid no-op recorders.
type Metrics struct {
	// Session metrics
	stateTransitionsTotal metric.Int64Counter
	sessionsTotal         metric.Int64Counter
	sessionAttempts       metric.Int64Histogram

	// Language model metrics
	extractionsTotal   metric.Int64Counter
	extractionDuration metric.Float64Histogram

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram
	bookingRetriesTotal        metric.Int64Counter

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.stateTransitionsTotal, err = meter.Int64Counter(
		"slotbook_state_transitions_total",
		metric.WithDescription("Total number of session state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slotbook_state_transitions_total counter: %w", err)
	}

	m.sessionsTotal, err = meter.Int64Counter(
		"slotbook_sessions_total",
		metric.WithDescription("Total number of finished booking sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slotbook_sessions_total counter: %w", err)
	}

	m.sessionAttempts, err = meter.Int64Histogram(
		"slotbook_session_attempts",
		metric.WithDescription("Number of user utterances consumed per session"),
		metric.WithUnit("{attempt}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 13),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slotbook_session_attempts histogram: %w", err)
	}

	m.extractionsTotal, err = meter.Int64Counter(
		"llm_extractions_total",
		metric.WithDescription("Total number of slot extraction calls to the language model"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_extractions_total counter: %w", err)
	}

	m.extractionDuration, err = meter.Float64Histogram(
		"llm_extraction_duration_seconds",
		metric.WithDescription("Slot extraction duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_extraction_duration_seconds histogram: %w", err)
	}

	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.bookingRetriesTotal, err = meter.Int64Counter(
		"slotbook_booking_retries_total",
		metric.WithDescription("Total number of retried event insert calls"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slotbook_booking_retries_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordStateTransition records one orchestrator transition.
func (m *Metrics) RecordStateTransition(ctx context.Context, from, to string) {
	if m == nil || m.stateTransitionsTotal == nil {
		return
	}

	m.stateTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrFrom, from),
		attribute.String(attrTo, to),
	))
}

// RecordSession records a finished session with its outcome and the number
// of utterances it consumed.
func (m *Metrics) RecordSession(ctx context.Context, outcome string, attempts int) {
	if m == nil || m.sessionsTotal == nil || m.sessionAttempts == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	m.sessionsTotal.Add(ctx, 1, attrs)
	m.sessionAttempts.Record(ctx, int64(attempts), attrs)
}

// RecordExtraction records a slot extraction call.
//
// Parameters:
//   - provider: model backend ("gemini", "openai")
//   - status: "success" or "error" (an unusable answer counts as error)
//   - duration: time taken for the call
func (m *Metrics) RecordExtraction(ctx context.Context, provider, status string, duration time.Duration) {
	if m == nil || m.extractionsTotal == nil || m.extractionDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrProvider, provider),
		attribute.String(attrStatus, status),
	)
	m.extractionsTotal.Add(ctx, 1, attrs)
	m.extractionDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records a Google API operation with service,
// operation, status, and duration.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordBookingRetry records a retried event insert.
func (m *Metrics) RecordBookingRetry(ctx context.Context) {
	if m == nil || m.bookingRetriesTotal == nil {
		return
	}
	m.bookingRetriesTotal.Add(ctx, 1)
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// StatusFor maps an error to a status label.
func StatusFor(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
