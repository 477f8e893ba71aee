package instrumentation

import (
	"errors"
	"fmt"
)

// Config holds the telemetry settings. internal/config fills it from the
// telemetry section of the slotbook configuration and the conventional
// OTEL_* environment variables.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// ServiceInstanceID defaults to the hostname.
	ServiceInstanceID string

	// Enabled switches metrics and tracing on. A disabled provider still hands
	// out a no-op Metrics recorder.
	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout.
	MetricsExporter string
	// TracingExporter is otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme, e.g. localhost:4318.
	OTLPEndpoint string
	// OTLPInsecure sends OTLP over plain HTTP. Spans carry session metadata,
	// so only use it against a local collector.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio of sampled traces.
	TraceSamplingRate float64

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the audit log of bookings and tool calls.
type AuditLoggingConfig struct {
	Enabled bool
	// IncludePII logs attendee addresses verbatim instead of hashes.
	IncludePII bool
}

// DefaultConfig returns the built-in defaults: Prometheus metrics, no
// tracing, audit logging without PII.
func DefaultConfig() Config {
	return Config{
		ServiceName:       "slotbook",
		ServiceVersion:    "unknown",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
		AuditLogging: AuditLoggingConfig{
			Enabled: true,
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate))
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTLP endpoint is required when using the OTLP metrics exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter))
	}

	switch c.TracingExporter {
	case "", ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTLP endpoint is required when using the OTLP tracing exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter))
	}

	return errors.Join(errs...)
}

// Label values shared by metrics, spans and audit records.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OutcomeBooked    = "booked"
	OutcomeAborted   = "aborted"
	OutcomeExhausted = "exhausted"

	ServiceCalendar = "calendar"

	OperationFreeBusy = "freebusy"
	OperationInsert   = "insert"
	OperationGet      = "get"
	OperationExtract  = "extract"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
