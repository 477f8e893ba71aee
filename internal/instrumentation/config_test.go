package instrumentation

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServiceName != "slotbook" {
		t.Errorf("ServiceName = %q, want slotbook", cfg.ServiceName)
	}
	if !cfg.Enabled {
		t.Error("expected instrumentation enabled by default")
	}
	if cfg.MetricsExporter != ExporterPrometheus {
		t.Errorf("MetricsExporter = %q", cfg.MetricsExporter)
	}
	if cfg.TracingExporter != ExporterNone {
		t.Errorf("TracingExporter = %q", cfg.TracingExporter)
	}
	if !cfg.AuditLogging.Enabled || cfg.AuditLogging.IncludePII {
		t.Error("audit logging must be on and exclude PII by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "zero value", config: Config{}},
		{name: "sampling too high", config: Config{TraceSamplingRate: 1.5}, wantErr: "sampling rate"},
		{name: "sampling negative", config: Config{TraceSamplingRate: -0.1}, wantErr: "sampling rate"},
		{name: "bad metrics exporter", config: Config{MetricsExporter: "statsd"}, wantErr: "invalid metrics exporter"},
		{name: "bad tracing exporter", config: Config{TracingExporter: "jaeger"}, wantErr: "invalid tracing exporter"},
		{name: "otlp tracing without endpoint", config: Config{TracingExporter: ExporterOTLP}, wantErr: "OTLP tracing"},
		{name: "otlp metrics without endpoint", config: Config{MetricsExporter: ExporterOTLP}, wantErr: "OTLP metrics"},
		{name: "otlp with endpoint", config: Config{TracingExporter: ExporterOTLP, MetricsExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsAll(t *testing.T) {
	cfg := Config{TraceSamplingRate: 2, MetricsExporter: "statsd", TracingExporter: "jaeger"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"sampling rate", "metrics exporter", "tracing exporter"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
