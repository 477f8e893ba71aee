package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/console"
	"github.com/teemow/slotbook/internal/extractor"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/orchestrator"
	"github.com/teemow/slotbook/internal/session"
)

// fakeCalendar answers free/busy from a fixed list and records inserts.
type fakeCalendar struct {
	busy    []calendar.TimeRange
	fbErr   error
	inserts []calendar.EventInput
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{}
}

func (f *fakeCalendar) QueryFreeBusy(_ context.Context, _, _ time.Time, ids []string) ([]calendar.FreeBusyInfo, error) {
	if f.fbErr != nil {
		return nil, f.fbErr
	}
	return []calendar.FreeBusyInfo{{Calendar: ids[0], Busy: f.busy}}, nil
}

func (f *fakeCalendar) InsertEvent(_ context.Context, _ string, input calendar.EventInput) (*calendar.EventSummary, error) {
	f.inserts = append(f.inserts, input)
	return &calendar.EventSummary{
		ID:               input.ID,
		Start:            input.Start,
		End:              input.End,
		MeetLink:         "https://meet.google.com/abc-defg-hij",
		ConferenceStatus: "success",
	}, nil
}

func (f *fakeCalendar) GetEvent(_ context.Context, _, id string) (*calendar.EventSummary, error) {
	return &calendar.EventSummary{ID: id, MeetLink: "https://meet.google.com/abc-defg-hij", ConferenceStatus: "success"}, nil
}

var tomorrowSlot = session.Slot{Date: "2025-06-10", StartTime: "15:00", EndTime: "16:00"}

func fixedExtractor() extractor.Extractor {
	return extractor.Func(func(_ context.Context, req extractor.Request) (session.Slot, error) {
		if req.Utterance == "tomorrow 3pm to 4pm" {
			return tomorrowSlot, nil
		}
		return session.Slot{}, session.NewFailure(session.KindExtraction, "extract", errors.New("ambiguous"))
	})
}

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), Options{
		Location:  time.UTC,
		Draft:     orchestrator.DefaultDraftTemplate(),
		Policy:    orchestrator.Policy{MaxAttempts: 1},
		Extractor: fixedExtractor(),
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

type staticTokenProvider struct {
	accounts map[string]bool
}

func (p staticTokenProvider) HasTokenForAccount(account string) bool {
	return p.accounts[account]
}

func (p staticTokenProvider) TokenSource(_ context.Context, _ string) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}), nil
}

func TestNewServerContext_Defaults(t *testing.T) {
	_, err := NewServerContext(context.Background(), Options{})
	assert.Error(t, err, "extractor is required")

	sc := newTestServerContext(t)
	assert.Equal(t, "default", sc.DefaultAccount())
	assert.Equal(t, time.UTC, sc.Location())
	assert.NotNil(t, sc.Extractor())
	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.AuditLogger())
}

func TestCalendarForAccount(t *testing.T) {
	sc := newTestServerContext(t)

	_, err := sc.CalendarForAccount("default")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slotbook auth")

	fake := newFakeCalendar()
	sc.SetCalendarForAccount("work", fake)
	got, err := sc.CalendarForAccount("work")
	require.NoError(t, err)
	assert.Same(t, fake, got)
	assert.True(t, sc.HasCredentials("work"))
}

func TestCalendarForAccount_CreatesFromToken(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Options{
		Extractor:     fixedExtractor(),
		TokenProvider: staticTokenProvider{accounts: map[string]bool{"default": true}},
		Logger:        logging.Discard(),
	})
	require.NoError(t, err)
	defer func() { _ = sc.Shutdown() }()

	assert.True(t, sc.HasCredentials("default"))
	assert.False(t, sc.HasCredentials("other"))

	first, err := sc.CalendarForAccount("default")
	require.NoError(t, err)
	second, err := sc.CalendarForAccount("default")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestShutdown(t *testing.T) {
	sc := newTestServerContext(t)
	sc.SetCalendarForAccount("default", newFakeCalendar())

	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	_, err := sc.CalendarForAccount("default")
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestNewSession_BooksThroughAccountCalendar(t *testing.T) {
	sc := newTestServerContext(t)
	fake := newFakeCalendar()
	sc.SetCalendarForAccount("default", fake)

	o, err := sc.NewSession("default", console.NewScripted("tomorrow 3pm to 4pm"), nil, nil)
	require.NoError(t, err)

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.State.EventCreated)
	require.Len(t, fake.inserts, 1)
	assert.Equal(t, "Team Meeting", fake.inserts[0].Summary)
}

func TestResetCalendarForAccount(t *testing.T) {
	sc := newTestServerContext(t)
	sc.SetCalendarForAccount("work", newFakeCalendar())
	require.True(t, sc.HasCredentials("work"))

	sc.ResetCalendarForAccount("work")
	assert.False(t, sc.HasCredentials("work"))
	assert.Nil(t, sc.OAuthConfig())
	assert.Nil(t, sc.TokenStore())
}
