package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventInput is a new event to insert.
type EventInput struct {
	// ID is an optional client-chosen event id (base32hex, 5-1024 chars).
	// Inserting the same id twice fails with 409 instead of duplicating.
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string

	UseDefaultReminders bool

	// ConferenceRequestID requests a Google Meet conference when set.
	ConferenceRequestID string
}

// EventSummary is the part of an event slotbook reads back.
type EventSummary struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Organizer   string
	Status      string
	Attendees   []string
	MeetLink    string
	HTMLLink    string
	// ConferenceStatus is the state of the conference create request
	// ("pending", "success", "failure") when one was made.
	ConferenceStatus string
}

// FreeBusyInfo is one calendar's busy periods in a freebusy query.
type FreeBusyInfo struct {
	Calendar string
	Busy     []TimeRange
	Errors   []string
}

// TimeRange is a half-open busy interval.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func toEvent(input EventInput) *calendar.Event {
	tz := input.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	event := &calendar.Event{
		Id:          input.ID,
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       eventTime(input.Start, tz),
		End:         eventTime(input.End, tz),
		Reminders: &calendar.EventReminders{
			UseDefault:      input.UseDefaultReminders,
			ForceSendFields: []string{"UseDefault"},
		},
	}

	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	if input.ConferenceRequestID != "" {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: input.ConferenceRequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
	}

	return event
}

// toEventSummary converts a Google Calendar event to an EventSummary
func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	s := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
		MeetLink:    event.HangoutLink,
	}
	if event.Start != nil {
		s.Start = parseEventTime(event.Start)
	}
	if event.End != nil {
		s.End = parseEventTime(event.End)
	}
	if event.Organizer != nil {
		s.Organizer = event.Organizer.Email
	}
	for _, a := range event.Attendees {
		s.Attendees = append(s.Attendees, a.Email)
	}

	if cd := event.ConferenceData; cd != nil {
		for _, ep := range cd.EntryPoints {
			if s.MeetLink != "" {
				break
			}
			if ep.EntryPointType == "video" {
				s.MeetLink = ep.Uri
			}
		}
		if cd.CreateRequest != nil && cd.CreateRequest.Status != nil {
			s.ConferenceStatus = cd.CreateRequest.Status.StatusCode
		}
	}
	return s
}

func eventTime(t time.Time, tz string) *calendar.EventDateTime {
	return &calendar.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: tz}
}

// parseEventTime reads a timed or all-day boundary; the zero time means
// neither parsed.
func parseEventTime(dt *calendar.EventDateTime) time.Time {
	var (
		t   time.Time
		err error
	)
	switch {
	case dt.DateTime != "":
		t, err = time.Parse(time.RFC3339, dt.DateTime)
	case dt.Date != "":
		t, err = time.Parse(time.DateOnly, dt.Date)
	}
	if err != nil {
		return time.Time{}
	}
	return t
}
