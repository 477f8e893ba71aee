package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
)

// PrimaryCalendarID addresses the authorized user's own calendar.
const PrimaryCalendarID = "primary"

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	account string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records google_api_operations_total for every call.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// NewClientWithTokenSource creates a Calendar client that authenticates with ts.
func NewClientWithTokenSource(ctx context.Context, account string, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	if ts == nil {
		return nil, fmt.Errorf("token source cannot be nil")
	}

	httpClient := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := httpClient.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	return NewClientWithOptions(ctx, account, []option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
}

// NewClientWithOptions creates a Calendar client from raw Google API client
// options, e.g. option.WithEndpoint for a local test server.
func NewClientWithOptions(ctx context.Context, account string, clientOpts []option.ClientOption, opts ...Option) (*Client, error) {
	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	c := &Client{
		svc:     svc,
		account: account,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) observe(ctx context.Context, operation string, start time.Time, err error) {
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation,
		instrumentation.StatusFor(err), time.Since(start))
	c.logger.Debug("calendar call",
		logging.Operation(operation),
		logging.Duration(time.Since(start)),
		logging.Err(err))
}

// QueryFreeBusy checks availability for calendars in a time range. Results
// are ordered by calendar id and busy ranges by start time.
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) (infos []FreeBusyInfo, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationFreeBusy)
	start := time.Now()
	defer func() {
		c.observe(ctx, instrumentation.OperationFreeBusy, start, err)
		instrumentation.EndSpan(span, err)
	}()

	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	for calID, cal := range result.Calendars {
		info := FreeBusyInfo{Calendar: calID}

		for _, busy := range cal.Busy {
			r, err := parseTimeRange(busy.Start, busy.End)
			if err != nil {
				return nil, fmt.Errorf("calendar %s returned an invalid busy period: %w", calID, err)
			}
			info.Busy = append(info.Busy, r)
		}
		sort.Slice(info.Busy, func(i, j int) bool { return info.Busy[i].Start.Before(info.Busy[j].Start) })

		for _, e := range cal.Errors {
			info.Errors = append(info.Errors, e.Reason)
		}

		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Calendar < infos[j].Calendar })

	return infos, nil
}

// InsertEvent creates an event. When input.ConferenceRequestID is set a
// Google Meet conference is requested in the same call.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, input EventInput) (summary *EventSummary, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationInsert,
		instrumentation.CalendarAttr(calendarID))
	start := time.Now()
	defer func() {
		c.observe(ctx, instrumentation.OperationInsert, start, err)
		instrumentation.EndSpan(span, err)
	}()

	call := c.svc.Events.Insert(calendarID, toEvent(input))
	if input.ConferenceRequestID != "" {
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s := toEventSummary(created)
	return &s, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (summary *EventSummary, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationGet,
		instrumentation.CalendarAttr(calendarID))
	start := time.Now()
	defer func() {
		c.observe(ctx, instrumentation.OperationGet, start, err)
		instrumentation.EndSpan(span, err)
	}()

	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	s := toEventSummary(event)
	return &s, nil
}

func parseTimeRange(start, end string) (TimeRange, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: s, End: e}, nil
}
