package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no slotbook variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	keys := []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"}
	for _, names := range telemetryEnv {
		keys = append(keys, names...)
	}
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Account)
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, "Asia/Kolkata", cfg.TimeZone)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.CallTimeout)
	assert.Equal(t, 3, cfg.BookingMaxTries)
	assert.Equal(t, 8080, cfg.OAuth.Port)
	assert.Equal(t, "Team Meeting", cfg.Meeting.Summary)
	assert.True(t, cfg.Meeting.Conference)
	assert.Empty(t, cfg.Source)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("SLOTBOOK_PROVIDER", "OpenAI")
	t.Setenv("SLOTBOOK_MAX_ATTEMPTS", "9")
	t.Setenv("SLOTBOOK_CALL_TIMEOUT", "5s")
	t.Setenv("SLOTBOOK_MEETING_LOCATION", "Room 4")
	t.Setenv("SLOTBOOK_MEETING_ATTENDEES", "a@example.com,b@example.com")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 9, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.CallTimeout)
	assert.Equal(t, "Room 4", cfg.Meeting.Location)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Meeting.Attendees)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.NoError(t, cfg.ValidateProvider())
}

func TestLoad_ConfigFileDiscovered(t *testing.T) {
	dir := isolate(t)
	yaml := `
timezone: Europe/Berlin
meeting:
  summary: Standup
  attendees:
    - alice@example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slotbook.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.TimeZone)
	assert.Equal(t, "Standup", cfg.Meeting.Summary)
	assert.Equal(t, "Conference Room", cfg.Meeting.Location)
	assert.Equal(t, []string{"alice@example.com"}, cfg.Meeting.Attendees)
	assert.Contains(t, cfg.Source, "slotbook.yaml")
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	dir := isolate(t)

	_, err := Load(LoadOptions{ConfigFile: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SLOTBOOK_CALENDAR_ID=team@example.com\nGOOGLE_API_KEY=from-dotenv\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("SLOTBOOK_CALENDAR_ID")
		_ = os.Unsetenv("GOOGLE_API_KEY")
	})

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "team@example.com", cfg.CalendarID)
	assert.Equal(t, "from-dotenv", cfg.GoogleAPIKey)
}

func TestLoad_ExplicitEnvFileMissing(t *testing.T) {
	dir := isolate(t)

	_, err := Load(LoadOptions{EnvFile: filepath.Join(dir, "nope.env")})
	assert.Error(t, err)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("SLOTBOOK_ACCOUNT", "from-env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("account", "default", "")
	fs.Int("max-attempts", 5, "")
	require.NoError(t, fs.Parse([]string{"--account", "work"}))

	cfg, err := Load(LoadOptions{
		FlagSet: fs,
		Flags:   map[string]string{"account": "account", "max_attempts": "max-attempts"},
	})
	require.NoError(t, err)

	assert.Equal(t, "work", cfg.Account)
	// An unchanged flag does not shadow the default.
	assert.Equal(t, 5, cfg.MaxAttempts)
}

func TestLoad_UnknownFlag(t *testing.T) {
	isolate(t)

	_, err := Load(LoadOptions{
		FlagSet: pflag.NewFlagSet("test", pflag.ContinueOnError),
		Flags:   map[string]string{"account": "account"},
	})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"timezone", func(c *Config) { c.TimeZone = "Mars/Olympus" }},
		{"provider", func(c *Config) { c.Provider = "llama" }},
		{"attempts", func(c *Config) { c.MaxAttempts = -1 }},
		{"timeout", func(c *Config) { c.CallTimeout = -time.Second }},
		{"booking tries", func(c *Config) { c.BookingMaxTries = 0 }},
		{"rate", func(c *Config) { c.RequestsPerMinute = -1 }},
		{"summary", func(c *Config) { c.Meeting.Summary = " " }},
		{"attendee", func(c *Config) { c.Meeting.Attendees = []string{"not an address"} }},
		{"sampling", func(c *Config) { c.Telemetry.TraceSamplingRate = 2 }},
		{"exporter", func(c *Config) { c.Telemetry.TracingExporter = "zipkin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(LoadOptions{})
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateProvider(t *testing.T) {
	cfg := &Config{Provider: ProviderGemini}
	assert.Error(t, cfg.ValidateProvider())
	cfg.GoogleAPIKey = "key"
	assert.NoError(t, cfg.ValidateProvider())

	cfg = &Config{Provider: ProviderOpenAI}
	assert.Error(t, cfg.ValidateProvider())
}

func TestDerivedSettings(t *testing.T) {
	cfg := &Config{
		TimeZone:    "UTC",
		Provider:    ProviderOpenAI,
		MaxAttempts: 2,
		CallTimeout: time.Second,
		SendHistory: true,
		Meeting: MeetingConfig{
			Summary:    "Sync",
			Attendees:  []string{"a@example.com"},
			Conference: true,
		},
	}

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	assert.Equal(t, "gpt-4o-mini", cfg.ModelName())
	cfg.Model = "custom"
	assert.Equal(t, "custom", cfg.ModelName())

	policy := cfg.Policy()
	assert.Equal(t, 2, policy.MaxAttempts)
	assert.True(t, policy.SendHistory)

	tmpl := cfg.DraftTemplate()
	assert.Equal(t, "Sync", tmpl.Summary)
	assert.Equal(t, "UTC", tmpl.TimeZone)
	assert.Equal(t, []string{"a@example.com"}, tmpl.Attendees)
	assert.True(t, tmpl.Conference)
}

func TestLoad_TelemetryDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	ic := cfg.Instrumentation("1.2.3")
	assert.True(t, ic.Enabled)
	assert.Equal(t, "slotbook", ic.ServiceName)
	assert.Equal(t, "1.2.3", ic.ServiceVersion)
	assert.Equal(t, "prometheus", ic.MetricsExporter)
	assert.Equal(t, "none", ic.TracingExporter)
	assert.InDelta(t, 0.1, ic.TraceSamplingRate, 1e-9)
	assert.True(t, ic.AuditLogging.Enabled)
	assert.False(t, ic.AuditLogging.IncludePII)
}

func TestLoad_TelemetryEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("OTEL_SERVICE_NAME", "booker")
	t.Setenv("TRACING_EXPORTER", "OTLP")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "true")
	t.Setenv("SLOTBOOK_TELEMETRY_METRICS_EXPORTER", "stdout")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	ic := cfg.Instrumentation("dev")
	assert.Equal(t, "booker", ic.ServiceName)
	assert.Equal(t, "otlp", ic.TracingExporter)
	assert.Equal(t, "stdout", ic.MetricsExporter)
	assert.Equal(t, "localhost:4318", ic.OTLPEndpoint)
	assert.InDelta(t, 0.5, ic.TraceSamplingRate, 1e-9)
	assert.True(t, ic.AuditLogging.IncludePII)
}

func TestLoad_TelemetryDisabled(t *testing.T) {
	isolate(t)
	t.Setenv("INSTRUMENTATION_ENABLED", "false")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.False(t, cfg.Instrumentation("dev").Enabled)
}
