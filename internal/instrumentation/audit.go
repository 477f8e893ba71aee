package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ToolInvocation captures information about an MCP tool call for audit logging.
type ToolInvocation struct {
	Tool      string
	Account   string
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete when the tool finishes.
func NewToolInvocation(ctx context.Context, tool, account string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		Account:   account,
		StartTime: time.Now(),
		TraceID:   GetTraceID(ctx),
		SpanID:    GetSpanID(ctx),
	}
}

// Complete marks the invocation as finished and calculates the duration.
func (ti *ToolInvocation) Complete(err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = err == nil
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Account != "" && ti.Account != "default" {
		attrs = append(attrs, slog.String("account", ti.Account))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// BookingAudit is the audit record written for every booking attempt,
// successful or not.
type BookingAudit struct {
	IdempotencyKey string
	EventID        string
	CalendarID     string
	Start          time.Time
	End            time.Time
	Attendees      []string
	Tries          int
	Success        bool
	Error          string
	TraceID        string
}

// attendeeAttr renders attendees either verbatim or as their domains.
func (b *BookingAudit) attendeeAttr(includePII bool) slog.Attr {
	if includePII {
		return slog.Any("attendees", b.Attendees)
	}
	domains := make([]string, 0, len(b.Attendees))
	for _, a := range b.Attendees {
		domains = append(domains, attendeeDomain(a))
	}
	return slog.Any("attendee_domains", domains)
}

// LogAttrs returns slog attributes for the booking record.
func (b *BookingAudit) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("idempotency_key", b.IdempotencyKey),
		slog.String("calendar_id", b.CalendarID),
		slog.Time("start", b.Start),
		slog.Time("end", b.End),
		b.attendeeAttr(includePII),
		slog.Int("tries", b.Tries),
		slog.Bool("success", b.Success),
	}
	if b.EventID != "" {
		attrs = append(attrs, slog.String("event_id", b.EventID))
	}
	if b.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", b.TraceID))
	}
	if b.Error != "" {
		attrs = append(attrs, slog.String("error", b.Error))
	}
	return attrs
}

// AuditLogger provides structured audit logging for bookings and tool
// invocations. A nil *AuditLogger discards everything.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger with PII excluded.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs a finished tool invocation.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	if ti.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "tool_executed", ti.LogAttrs()...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "tool_failed", ti.LogAttrs()...)
	}
}

// LogBooking logs a booking attempt.
func (al *AuditLogger) LogBooking(ctx context.Context, b *BookingAudit) {
	if al == nil || !al.enabled {
		return
	}
	if b.TraceID == "" {
		b.TraceID = GetTraceID(ctx)
	}
	if b.Success {
		al.logger.LogAttrs(ctx, slog.LevelInfo, "booking_created", b.LogAttrs(al.includePII)...)
	} else {
		al.logger.LogAttrs(ctx, slog.LevelWarn, "booking_failed", b.LogAttrs(al.includePII)...)
	}
}

// attendeeDomain keeps only the domain of an address, "unknown" when there
// is none.
func attendeeDomain(addr string) string {
	i := strings.LastIndexByte(addr, '@')
	if i < 0 || i == len(addr)-1 {
		return "unknown"
	}
	return strings.TrimSuffix(addr[i+1:], ">")
}
