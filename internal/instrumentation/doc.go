// Package instrumentation provides OpenTelemetry instrumentation for slotbook.
//
// This package enables observability of booking sessions through:
//   - OpenTelemetry metrics for state transitions, model calls and Google API calls
//   - Distributed tracing for each session step and outbound call
//   - Prometheus metrics export via the /metrics endpoint of the metrics server
//   - OTLP export support for observability platforms
//   - Audit logging of bookings and MCP tool invocations
//
// # Metrics
//
// Session Metrics:
//   - slotbook_state_transitions_total: Counter of transitions by from/to state
//   - slotbook_sessions_total: Counter of finished sessions by outcome
//   - slotbook_session_attempts: Histogram of utterances consumed per session
//
// Language Model Metrics:
//   - llm_extractions_total: Counter of slot extractions by provider and status
//   - llm_extraction_duration_seconds: Histogram of extraction durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//   - slotbook_booking_retries_total: Counter of retried event inserts
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for:
//   - session states (session.<state>)
//   - language model calls (llm.<provider>.extract)
//   - Google API calls (google.<service>.<operation>)
//   - MCP tool invocations (tool.<name>)
//
// # Configuration
//
// Settings come from the telemetry section of the slotbook configuration
// (see internal/config), which also honours the conventional variables
// OTEL_SERVICE_NAME, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_TRACES_SAMPLER_ARG,
// METRICS_EXPORTER and TRACING_EXPORTER. DefaultConfig exports Prometheus
// metrics and no traces.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordStateTransition(ctx, "extract", "check_slot")
//	metrics.RecordGoogleAPIOperation(ctx, "calendar", "freebusy", "success", time.Since(start))
package instrumentation
