package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/session"
)

const opBook = "book_event"

const (
	DefaultMaxTries        = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxElapsedTime  = 30 * time.Second
)

var (
	// ErrNoJoinLink is returned when the event was created but carries no
	// conference link.
	ErrNoJoinLink = errors.New("event created without a join link")
	// ErrInvalidDraft is returned for drafts whose end is not after start.
	ErrInvalidDraft = errors.New("draft end must be after start")
	// ErrEventDeleted is returned when the event disappears while its
	// conference is still being set up.
	ErrEventDeleted = errors.New("event deleted before its conference was ready")

	// Google event ids are base32hex: a-v and 0-9, 5 to 1024 characters.
	eventIDPattern = regexp.MustCompile(`^[a-v0-9]{5,1024}$`)
)

// EventWriter is the calendar write boundary.
type EventWriter interface {
	InsertEvent(ctx context.Context, calendarID string, input calendar.EventInput) (*calendar.EventSummary, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.EventSummary, error)
}

// Confirmation describes a created event.
type Confirmation struct {
	EventID        string
	JoinLink       string
	HTMLLink       string
	IdempotencyKey string
}

// Options tunes a Booker. Zero values select the defaults.
type Options struct {
	CalendarID      string
	MaxTries        uint
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration

	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger

	// NewKey returns a fresh idempotency key. Defaults to uuid.NewString.
	NewKey func() string
}

// Booker submits event drafts to the calendar.
type Booker struct {
	cal  EventWriter
	opts Options
}

// NewBooker returns a Booker writing to cal.
func NewBooker(cal EventWriter, opts Options) *Booker {
	if opts.CalendarID == "" {
		opts.CalendarID = calendar.PrimaryCalendarID
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = DefaultMaxTries
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = DefaultInitialInterval
	}
	if opts.MaxElapsedTime <= 0 {
		opts.MaxElapsedTime = DefaultMaxElapsedTime
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewKey == nil {
		opts.NewKey = uuid.NewString
	}
	return &Booker{cal: cal, opts: opts}
}

// EventIDForKey derives the event id used for an idempotency key.
func EventIDForKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "-", ""))
}

// Book creates the event described by draft. Errors are *session.Failure of
// kind KindBooking.
func (b *Booker) Book(ctx context.Context, draft session.EventDraft) (Confirmation, error) {
	key := b.opts.NewKey()
	eventID := EventIDForKey(key)

	audit := &instrumentation.BookingAudit{
		IdempotencyKey: key,
		CalendarID:     b.opts.CalendarID,
		Start:          draft.Start,
		End:            draft.End,
		Attendees:      draft.Attendees,
	}

	conf, err := b.book(ctx, draft, key, eventID, audit)
	audit.Success = err == nil
	if err != nil {
		audit.Error = err.Error()
	}
	b.opts.Audit.LogBooking(ctx, audit)

	if err != nil {
		return Confirmation{}, session.NewFailure(session.KindBooking, opBook, err)
	}
	return conf, nil
}

func (b *Booker) book(ctx context.Context, draft session.EventDraft, key, eventID string, audit *instrumentation.BookingAudit) (Confirmation, error) {
	if !draft.End.After(draft.Start) {
		return Confirmation{}, ErrInvalidDraft
	}
	if !eventIDPattern.MatchString(eventID) {
		return Confirmation{}, fmt.Errorf("idempotency key %q does not yield a valid event id", key)
	}

	input := calendar.EventInput{
		ID:                  eventID,
		Summary:             draft.Summary,
		Description:         draft.Description,
		Location:            draft.Location,
		Start:               draft.Start,
		End:                 draft.End,
		TimeZone:            draft.TimeZone,
		Attendees:           draft.Attendees,
		UseDefaultReminders: draft.UseDefaultReminders,
	}
	if draft.Conference {
		input.ConferenceRequestID = key
	}

	insert := func() (*calendar.EventSummary, error) {
		audit.Tries++
		if audit.Tries > 1 {
			b.opts.Metrics.RecordBookingRetry(ctx)
		}

		event, err := b.cal.InsertEvent(ctx, b.opts.CalendarID, input)
		if err == nil {
			return event, nil
		}
		if calendar.IsConflict(err) {
			// An earlier try went through even though its response was lost.
			existing, getErr := b.cal.GetEvent(ctx, b.opts.CalendarID, eventID)
			if getErr == nil {
				return existing, nil
			}
			err = getErr
		}
		if calendar.IsTransient(err) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	event, err := b.retry(ctx, insert)
	if err != nil {
		return Confirmation{}, err
	}
	audit.EventID = event.ID

	if draft.Conference && event.MeetLink == "" && event.ConferenceStatus == "pending" {
		event, err = b.awaitConference(ctx, event.ID)
		if err != nil {
			return Confirmation{}, err
		}
	}

	link := event.MeetLink
	if !draft.Conference {
		link = event.HTMLLink
	}
	if link == "" {
		return Confirmation{}, fmt.Errorf("%w (event %s)", ErrNoJoinLink, event.ID)
	}

	b.opts.Logger.Info("event booked",
		logging.EventID(event.ID),
		logging.Window(draft.Start, draft.End),
		slog.Int("tries", audit.Tries))

	return Confirmation{
		EventID:        event.ID,
		JoinLink:       link,
		HTMLLink:       event.HTMLLink,
		IdempotencyKey: key,
	}, nil
}

// awaitConference polls the event until the conference request resolves.
func (b *Booker) awaitConference(ctx context.Context, eventID string) (*calendar.EventSummary, error) {
	errPending := errors.New("conference still pending")
	return b.retry(ctx, func() (*calendar.EventSummary, error) {
		event, err := b.cal.GetEvent(ctx, b.opts.CalendarID, eventID)
		switch {
		case err != nil && calendar.IsNotFound(err):
			return nil, backoff.Permanent(fmt.Errorf("%w (event %s)", ErrEventDeleted, eventID))
		case err != nil && calendar.IsTransient(err):
			return nil, err
		case err != nil:
			return nil, backoff.Permanent(err)
		case event.MeetLink == "" && event.ConferenceStatus == "pending":
			return nil, errPending
		}
		return event, nil
	})
}

func (b *Booker) retry(ctx context.Context, op backoff.Operation[*calendar.EventSummary]) (*calendar.EventSummary, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.opts.InitialInterval

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(b.opts.MaxTries),
		backoff.WithMaxElapsedTime(b.opts.MaxElapsedTime),
		backoff.WithNotify(func(err error, next time.Duration) {
			b.opts.Logger.Warn("calendar write failed, retrying",
				logging.Err(err),
				slog.Duration("backoff", next))
		}),
	)
}
