package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/slotbook/internal/availability"
	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/console"
	"github.com/teemow/slotbook/internal/extractor"
	"github.com/teemow/slotbook/internal/google"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/orchestrator"
)

// ErrShutdown is returned once the server context has been shut down.
var ErrShutdown = errors.New("server context is shut down")

// Calendar is the calendar surface the scheduling tools need.
type Calendar interface {
	availability.FreeBusyQuerier
	booking.EventWriter
}

// Options configures a ServerContext.
type Options struct {
	DefaultAccount string
	CalendarID     string
	Location       *time.Location
	Draft          orchestrator.DraftTemplate
	Policy         orchestrator.Policy
	BookingTries   uint

	Extractor     extractor.Extractor
	TokenProvider google.TokenProvider

	// OAuth and Tokens back the authorization tools; both may be nil.
	OAuth  *oauth2.Config
	Tokens *google.TokenStore

	Logger *slog.Logger
}

// ServerContext holds the shared state of the MCP server: the extractor,
// calendar clients per account and instrumentation.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	calendarClients map[string]Calendar
	metrics         *instrumentation.Metrics
	auditLogger     *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if opts.DefaultAccount == "" {
		opts.DefaultAccount = google.DefaultAccount
	}
	if opts.CalendarID == "" {
		opts.CalendarID = calendar.PrimaryCalendarID
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		opts:            opts,
		calendarClients: make(map[string]Calendar),
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.opts.Logger
}

// DefaultAccount returns the account used when a tool call names none.
func (sc *ServerContext) DefaultAccount() string {
	return sc.opts.DefaultAccount
}

// Location returns the time zone slots are resolved in.
func (sc *ServerContext) Location() *time.Location {
	return sc.opts.Location
}

// Extractor returns the slot extractor.
func (sc *ServerContext) Extractor() extractor.Extractor {
	return sc.opts.Extractor
}

// DraftTemplate returns the event template used for bookings.
func (sc *ServerContext) DraftTemplate() orchestrator.DraftTemplate {
	return sc.opts.Draft
}

// HasCredentials reports whether a calendar can be opened for account.
func (sc *ServerContext) HasCredentials(account string) bool {
	sc.mu.RLock()
	_, cached := sc.calendarClients[account]
	sc.mu.RUnlock()
	if cached {
		return true
	}
	return sc.opts.TokenProvider != nil && sc.opts.TokenProvider.HasTokenForAccount(account)
}

// CalendarForAccount returns the calendar client for account, creating and
// caching it on first use.
func (sc *ServerContext) CalendarForAccount(account string) (Calendar, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if client, ok := sc.calendarClients[account]; ok {
		return client, nil
	}

	if sc.opts.TokenProvider == nil || !sc.opts.TokenProvider.HasTokenForAccount(account) {
		return nil, errors.New(google.GetAuthenticationErrorMessage(account))
	}
	ts, err := sc.opts.TokenProvider.TokenSource(sc.ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to load token for account %s: %w", account, err)
	}
	client, err := calendar.NewClientWithTokenSource(sc.ctx, account, ts,
		calendar.WithMetrics(sc.metrics),
		calendar.WithLogger(sc.opts.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client for account %s: %w", account, err)
	}

	sc.calendarClients[account] = client
	return client, nil
}

// OAuthConfig returns the OAuth client configuration, which may be nil.
func (sc *ServerContext) OAuthConfig() *oauth2.Config {
	return sc.opts.OAuth
}

// TokenStore returns the token store, which may be nil.
func (sc *ServerContext) TokenStore() *google.TokenStore {
	return sc.opts.Tokens
}

// ResetCalendarForAccount drops the cached client so the next call picks up
// a freshly saved token.
func (sc *ServerContext) ResetCalendarForAccount(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.calendarClients, account)
}

// SetCalendarForAccount sets the calendar client for a specific account
func (sc *ServerContext) SetCalendarForAccount(account string, client Calendar) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// CheckerForAccount returns an availability checker for account.
func (sc *ServerContext) CheckerForAccount(account string) (*availability.Checker, error) {
	cal, err := sc.CalendarForAccount(account)
	if err != nil {
		return nil, err
	}
	return availability.NewChecker(cal, sc.opts.CalendarID), nil
}

// BookerForAccount returns a booker writing to account's calendar.
func (sc *ServerContext) BookerForAccount(account string) (*booking.Booker, error) {
	cal, err := sc.CalendarForAccount(account)
	if err != nil {
		return nil, err
	}
	return booking.NewBooker(cal, booking.Options{
		CalendarID: sc.opts.CalendarID,
		MaxTries:   sc.opts.BookingTries,
		Metrics:    sc.Metrics(),
		Audit:      sc.AuditLogger(),
		Logger:     sc.opts.Logger,
	}), nil
}

// NewSession builds an orchestrator for one session against account. A nil
// booker books through the account's calendar.
func (sc *ServerContext) NewSession(account string, prompter console.Prompter, booker orchestrator.Booker, observer orchestrator.Observer) (*orchestrator.Orchestrator, error) {
	checker, err := sc.CheckerForAccount(account)
	if err != nil {
		return nil, err
	}
	if booker == nil {
		b, err := sc.BookerForAccount(account)
		if err != nil {
			return nil, err
		}
		booker = b
	}

	return orchestrator.New(orchestrator.Deps{
		Prompter:  prompter,
		Extractor: sc.opts.Extractor,
		Checker:   checker,
		Booker:    booker,
		Draft:     sc.opts.Draft,
		Location:  sc.opts.Location,
		Policy:    sc.opts.Policy,
		Observer:  observer,
		Metrics:   sc.Metrics(),
		Logger:    sc.opts.Logger,
	})
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder used by tools.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger used by tools.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns true if the server context has been shut down
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drops cached clients.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	sc.calendarClients = make(map[string]Calendar)
	return nil
}
