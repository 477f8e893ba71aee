package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/slotbook/internal/config"
	"github.com/teemow/slotbook/internal/extractor"
	"github.com/teemow/slotbook/internal/google"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/server"
)

// configFlags maps config keys to the command flags that override them. Keys
// whose flag is not defined on the running command are skipped.
var configFlags = map[string]string{
	"account":      "account",
	"provider":     "provider",
	"model":        "model",
	"timezone":     "timezone",
	"calendar_id":  "calendar",
	"max_attempts": "max-attempts",
	"call_timeout": "call-timeout",
	"send_history": "send-history",
	"oauth.port":   "port",
}

// app holds the collaborators shared by the commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	instrumentation *instrumentation.Provider
	metricsServer   *server.MetricsServer

	closers []func() error
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	bound := make(map[string]string, len(configFlags))
	for key, name := range configFlags {
		if cmd.Flags().Lookup(name) != nil {
			bound[key] = name
		}
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: configFile,
		EnvFile:    envFile,
		FlagSet:    cmd.Flags(),
		Flags:      bound,
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.New(logging.Options{
		Debug:  debug,
		Format: logging.Format(format),
		Output: cmd.ErrOrStderr(),
	})
}

// newApp loads configuration and sets up logging and instrumentation.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd)
	slog.SetDefault(logger)
	if cfg.Source != "" {
		logger.Debug("loaded config file", "path", cfg.Source)
	}

	a := &app{cfg: cfg, logger: logger}

	instrConfig := cfg.Instrumentation(version)
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	a.instrumentation = provider
	a.closers = append(a.closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		return provider.Shutdown(shutdownCtx)
	})

	if provider.Enabled() {
		logger.Debug("instrumentation initialized",
			"metrics_exporter", instrConfig.MetricsExporter,
			"tracing_exporter", instrConfig.TracingExporter)
	}
	return a, nil
}

// metrics returns the metrics recorder, nil when instrumentation is off.
func (a *app) metrics() *instrumentation.Metrics {
	if a.instrumentation == nil || !a.instrumentation.Enabled() {
		return nil
	}
	return a.instrumentation.Metrics()
}

// auditLogger returns the audit logger, nil when auditing is off.
func (a *app) auditLogger() *instrumentation.AuditLogger {
	audit := a.cfg.Instrumentation(version).AuditLogging
	if !audit.Enabled {
		return nil
	}
	return instrumentation.NewAuditLoggerWithConfig(a.logger, audit)
}

// startMetricsServer serves /metrics (and health when health is set) on addr
// in the background. It is a no-op when addr is empty.
func (a *app) startMetricsServer(addr string, health *server.HealthChecker) error {
	if addr == "" {
		return nil
	}
	if !a.instrumentation.ServesPrometheus() {
		a.logger.Warn("metrics address set but the Prometheus exporter is not active", "addr", addr)
		return nil
	}

	ms, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: a.instrumentation,
		Health:                  health,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		if err := ms.StartWithReadySignal(ready); err != nil {
			errCh <- err
		}
	}()
	select {
	case <-ready:
	case err := <-errCh:
		return fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return errors.New("metrics server did not start within 5s")
	}

	a.logger.Info("metrics server listening", "addr", ms.Addr())
	a.metricsServer = ms
	a.closers = append(a.closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		return ms.Shutdown(shutdownCtx)
	})
	return nil
}

// newExtractor builds the configured provider's extractor, rate limited and
// instrumented.
func (a *app) newExtractor(ctx context.Context) (extractor.Extractor, error) {
	if err := a.cfg.ValidateProvider(); err != nil {
		return nil, err
	}
	model := a.cfg.ModelName()

	var base extractor.Extractor
	switch a.cfg.Provider {
	case config.ProviderOpenAI:
		o, err := extractor.NewOpenAI(extractor.OpenAIConfig{
			APIKey:  a.cfg.OpenAIAPIKey,
			Model:   model,
			BaseURL: a.cfg.OpenAIBaseURL,
		})
		if err != nil {
			return nil, err
		}
		base = o
	default:
		client, err := extractor.NewGeminiClient(ctx, a.cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		g := extractor.NewGemini(client, model)
		a.closers = append(a.closers, g.Close)
		base = g
	}

	limited := extractor.NewRateLimited(base, a.cfg.RequestsPerMinute)
	return extractor.NewInstrumented(limited, a.cfg.Provider, model, a.metrics()).WithLogger(a.logger), nil
}

// oauth returns the OAuth client configuration and token store. The config is
// nil when no client credentials are configured.
func (a *app) oauth() (*oauth2.Config, *google.TokenStore, error) {
	dir := a.cfg.OAuth.TokenDir
	if dir == "" {
		d, err := google.DefaultTokenDir()
		if err != nil {
			return nil, nil, err
		}
		dir = d
	}
	store := google.NewTokenStore(dir)

	conf, err := google.OAuthConfig(google.Credentials{
		ClientID:        a.cfg.OAuth.ClientID,
		ClientSecret:    a.cfg.OAuth.ClientSecret,
		CredentialsFile: a.cfg.OAuth.CredentialsFile,
	})
	if errors.Is(err, google.ErrMissingCredentials) {
		return nil, store, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return conf, store, nil
}

// serverContext wires the extractor, token provider and instrumentation into
// a ServerContext.
func (a *app) serverContext(ctx context.Context) (*server.ServerContext, error) {
	ext, err := a.newExtractor(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	conf, store, err := a.oauth()
	if err != nil {
		return nil, err
	}

	opts := server.Options{
		DefaultAccount: a.cfg.Account,
		CalendarID:     a.cfg.CalendarID,
		Location:       loc,
		Draft:          a.cfg.DraftTemplate(),
		Policy:         a.cfg.Policy(),
		BookingTries:   uint(a.cfg.BookingMaxTries),
		Extractor:      ext,
		OAuth:          conf,
		Tokens:         store,
		Logger:         a.logger,
	}
	if conf != nil {
		opts.TokenProvider = google.NewFileTokenProvider(conf, store)
	}

	sc, err := server.NewServerContext(ctx, opts)
	if err != nil {
		return nil, err
	}
	sc.SetMetrics(a.metrics())
	sc.SetAuditLogger(a.auditLogger())
	return sc, nil
}

// Close releases everything in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
