// Package config loads slotbook settings from defaults, an optional YAML
// file, a .env file, SLOTBOOK_* environment variables and command flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/extractor"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/orchestrator"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SLOTBOOK"

// Supported extraction providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all slotbook settings.
type Config struct {
	Account    string `mapstructure:"account"`
	CalendarID string `mapstructure:"calendar_id"`
	TimeZone   string `mapstructure:"timezone"`

	Provider          string `mapstructure:"provider"`
	Model             string `mapstructure:"model"`
	GoogleAPIKey      string `mapstructure:"google_api_key"`
	OpenAIAPIKey      string `mapstructure:"openai_api_key"`
	OpenAIBaseURL     string `mapstructure:"openai_base_url"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`

	MaxAttempts int           `mapstructure:"max_attempts"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	SendHistory bool          `mapstructure:"send_history"`

	BookingMaxTries int `mapstructure:"booking_max_tries"`

	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Meeting   MeetingConfig   `mapstructure:"meeting"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Source is the config file that was read, if any.
	Source string `mapstructure:"-"`
}

// OAuthConfig holds the Google OAuth client settings.
type OAuthConfig struct {
	ClientID        string `mapstructure:"client_id"`
	ClientSecret    string `mapstructure:"client_secret"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenDir        string `mapstructure:"token_dir"`
	Port            int    `mapstructure:"port"`
}

// MeetingConfig is the fixed metadata of booked events.
type MeetingConfig struct {
	Summary     string   `mapstructure:"summary"`
	Location    string   `mapstructure:"location"`
	Description string   `mapstructure:"description"`
	Attendees   []string `mapstructure:"attendees"`
	Conference  bool     `mapstructure:"conference"`
	Reminders   bool     `mapstructure:"default_reminders"`
}

// TelemetryConfig selects the metrics and trace exporters.
type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	ServiceName       string  `mapstructure:"service_name"`
	MetricsExporter   string  `mapstructure:"metrics_exporter"`
	TracingExporter   string  `mapstructure:"tracing_exporter"`
	OTLPEndpoint      string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure      bool    `mapstructure:"otlp_insecure"`
	TraceSamplingRate float64 `mapstructure:"trace_sampling_rate"`

	Audit AuditConfig `mapstructure:"audit"`
}

// AuditConfig controls the audit log.
type AuditConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	IncludePII bool `mapstructure:"include_pii"`
}

// telemetryEnv lists the conventional variables accepted next to the
// SLOTBOOK_TELEMETRY_* names.
var telemetryEnv = map[string][]string{
	"telemetry.enabled":             {"INSTRUMENTATION_ENABLED"},
	"telemetry.service_name":        {"OTEL_SERVICE_NAME"},
	"telemetry.metrics_exporter":    {"METRICS_EXPORTER"},
	"telemetry.tracing_exporter":    {"TRACING_EXPORTER"},
	"telemetry.otlp_endpoint":       {"OTEL_EXPORTER_OTLP_ENDPOINT"},
	"telemetry.otlp_insecure":       {"OTEL_EXPORTER_OTLP_INSECURE"},
	"telemetry.trace_sampling_rate": {"OTEL_TRACES_SAMPLER_ARG"},
	"telemetry.audit.enabled":       {"AUDIT_LOGGING_ENABLED"},
	"telemetry.audit.include_pii":   {"AUDIT_LOGGING_INCLUDE_PII"},
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file; it must exist when set.
	ConfigFile string
	// EnvFile defaults to ".env" in the working directory. A missing file is
	// not an error.
	EnvFile string
	// Flags maps config keys to flags in FlagSet that override them.
	FlagSet *pflag.FlagSet
	Flags   map[string]string
}

func setDefaults(v *viper.Viper) {
	tmpl := orchestrator.DefaultDraftTemplate()
	policy := orchestrator.DefaultPolicy()

	v.SetDefault("account", "default")
	v.SetDefault("calendar_id", "primary")
	v.SetDefault("timezone", tmpl.TimeZone)

	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model", "")
	v.SetDefault("google_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("requests_per_minute", 0)

	v.SetDefault("max_attempts", policy.MaxAttempts)
	v.SetDefault("call_timeout", policy.CallTimeout)
	v.SetDefault("send_history", policy.SendHistory)
	v.SetDefault("booking_max_tries", booking.DefaultMaxTries)

	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
	v.SetDefault("oauth.credentials_file", "")
	v.SetDefault("oauth.token_dir", "")
	v.SetDefault("oauth.port", 8080)

	v.SetDefault("meeting.summary", tmpl.Summary)
	v.SetDefault("meeting.location", tmpl.Location)
	v.SetDefault("meeting.description", tmpl.Description)
	v.SetDefault("meeting.attendees", []string{})
	v.SetDefault("meeting.conference", tmpl.Conference)
	v.SetDefault("meeting.default_reminders", tmpl.UseDefaultReminders)

	telemetry := instrumentation.DefaultConfig()
	v.SetDefault("telemetry.enabled", telemetry.Enabled)
	v.SetDefault("telemetry.service_name", telemetry.ServiceName)
	v.SetDefault("telemetry.metrics_exporter", telemetry.MetricsExporter)
	v.SetDefault("telemetry.tracing_exporter", telemetry.TracingExporter)
	v.SetDefault("telemetry.otlp_endpoint", telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.otlp_insecure", telemetry.OTLPInsecure)
	v.SetDefault("telemetry.trace_sampling_rate", telemetry.TraceSamplingRate)
	v.SetDefault("telemetry.audit.enabled", telemetry.AuditLogging.Enabled)
	v.SetDefault("telemetry.audit.include_pii", telemetry.AuditLogging.IncludePII)
}

// Load resolves the configuration.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The provider SDKs' conventional variables are honoured as well.
	if err := v.BindEnv("google_api_key", EnvPrefix+"_GOOGLE_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("openai_api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}
	for key, names := range telemetryEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, err
		}
	}

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	if opts.FlagSet != nil {
		for key, name := range opts.Flags {
			flag := opts.FlagSet.Lookup(name)
			if flag == nil {
				return nil, fmt.Errorf("unknown flag %q for config key %q", name, key)
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %q: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return &cfg, nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("slotbook")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "slotbook"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err))
	}
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderGemini, ProviderOpenAI))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, errors.New("max_attempts must not be negative"))
	}
	if c.CallTimeout < 0 {
		errs = append(errs, errors.New("call_timeout must not be negative"))
	}
	if c.BookingMaxTries < 1 {
		errs = append(errs, errors.New("booking_max_tries must be at least 1"))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests_per_minute must not be negative"))
	}
	if strings.TrimSpace(c.Meeting.Summary) == "" {
		errs = append(errs, errors.New("meeting.summary must not be empty"))
	}
	for _, a := range c.Meeting.Attendees {
		if _, err := mail.ParseAddress(a); err != nil {
			errs = append(errs, fmt.Errorf("invalid attendee %q: %w", a, err))
		}
	}
	telemetry := c.Instrumentation("")
	if err := telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	return errors.Join(errs...)
}

// ValidateProvider checks that the selected provider has credentials.
func (c *Config) ValidateProvider() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GoogleAPIKey == "" {
			return errors.New("no Gemini API key: set GOOGLE_API_KEY or SLOTBOOK_GOOGLE_API_KEY")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("no OpenAI API key: set OPENAI_API_KEY or SLOTBOOK_OPENAI_API_KEY")
		}
	}
	return nil
}

// Location returns the session time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// ModelName returns the configured model or the provider default.
func (c *Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == ProviderOpenAI {
		return extractor.DefaultOpenAIModel
	}
	return extractor.DefaultGeminiModel
}

// Policy returns the session bounds.
func (c *Config) Policy() orchestrator.Policy {
	return orchestrator.Policy{
		MaxAttempts: c.MaxAttempts,
		CallTimeout: c.CallTimeout,
		SendHistory: c.SendHistory,
	}
}

// DraftTemplate returns the event template for bookings.
func (c *Config) DraftTemplate() orchestrator.DraftTemplate {
	return orchestrator.DraftTemplate{
		Summary:             c.Meeting.Summary,
		Location:            c.Meeting.Location,
		Description:         c.Meeting.Description,
		TimeZone:            c.TimeZone,
		Attendees:           append([]string(nil), c.Meeting.Attendees...),
		UseDefaultReminders: c.Meeting.Reminders,
		Conference:          c.Meeting.Conference,
	}
}

// Instrumentation returns the telemetry settings for the given build version.
func (c *Config) Instrumentation(version string) instrumentation.Config {
	t := c.Telemetry
	return instrumentation.Config{
		ServiceName:       t.ServiceName,
		ServiceVersion:    version,
		Enabled:           t.Enabled,
		MetricsExporter:   strings.ToLower(t.MetricsExporter),
		TracingExporter:   strings.ToLower(t.TracingExporter),
		OTLPEndpoint:      t.OTLPEndpoint,
		OTLPInsecure:      t.OTLPInsecure,
		TraceSamplingRate: t.TraceSamplingRate,
		AuditLogging: instrumentation.AuditLoggingConfig{
			Enabled:    t.Audit.Enabled,
			IncludePII: t.Audit.IncludePII,
		},
	}
}
