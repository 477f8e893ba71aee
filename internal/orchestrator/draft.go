package orchestrator

import (
	"time"

	"github.com/teemow/slotbook/internal/session"
)

// DraftTemplate holds the fixed event metadata applied to every booking.
type DraftTemplate struct {
	Summary             string
	Location            string
	Description         string
	TimeZone            string
	Attendees           []string
	UseDefaultReminders bool
	Conference          bool
}

// DefaultDraftTemplate returns the stock team meeting template.
func DefaultDraftTemplate() DraftTemplate {
	return DraftTemplate{
		Summary:             "Team Meeting",
		Location:            "Conference Room",
		Description:         "Discuss project updates.",
		TimeZone:            "Asia/Kolkata",
		UseDefaultReminders: true,
		Conference:          true,
	}
}

// Draft fills the template with the verified window.
func (t DraftTemplate) Draft(start, end time.Time) session.EventDraft {
	return session.EventDraft{
		Summary:             t.Summary,
		Location:            t.Location,
		Description:         t.Description,
		Start:               start,
		End:                 end,
		TimeZone:            t.TimeZone,
		Attendees:           append([]string(nil), t.Attendees...),
		UseDefaultReminders: t.UseDefaultReminders,
		Conference:          t.Conference,
	}
}
