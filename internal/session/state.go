package session

import (
	"errors"
	"time"
)

// Message roles used in the conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the conversation history.
type Message struct {
	Role    string
	Content string
}

// Availability is the tri-state verdict of the availability check.
type Availability int

const (
	AvailabilityUnknown Availability = iota
	AvailabilityFree
	AvailabilityBusy
)

func (a Availability) String() string {
	switch a {
	case AvailabilityFree:
		return "free"
	case AvailabilityBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Interval is a busy period on the calendar.
type Interval struct {
	Start time.Time
	End   time.Time
}

// EventDraft is the event payload built once a slot has been verified free.
type EventDraft struct {
	Summary             string
	Location            string
	Description         string
	Start               time.Time
	End                 time.Time
	TimeZone            string
	Attendees           []string
	UseDefaultReminders bool
	Conference          bool
}

// State is the mutable record of one booking session.
type State struct {
	History       []Message
	UserQuery     string
	Candidate     *Slot
	SlotAvailable Availability
	Occupied      []Interval
	Draft         *EventDraft
	EventCreated  bool
	MeetingLink   string

	// Attempts counts the utterances consumed so far.
	Attempts int
}

// NewState returns an empty session state.
func NewState() *State {
	return &State{}
}

// AppendMessage appends an entry to the conversation history.
func (s *State) AppendMessage(role, content string) {
	s.History = append(s.History, Message{Role: role, Content: content})
}

// SystemContext returns the first history entry, which holds the extraction
// instructions set during initialization.
func (s *State) SystemContext() string {
	if len(s.History) == 0 {
		return ""
	}
	return s.History[0].Content
}

// SetUtterance records a new user utterance.
func (s *State) SetUtterance(text string) {
	s.UserQuery = text
	s.Attempts++
	s.AppendMessage(RoleUser, text)
}

// SetCandidate stores slot as the candidate if it is complete and clears the
// candidate otherwise. It reports whether a candidate was stored.
func (s *State) SetCandidate(slot Slot) bool {
	if !slot.Complete() {
		s.ClearCandidate()
		return false
	}
	s.Candidate = &slot
	s.SlotAvailable = AvailabilityUnknown
	s.Occupied = nil
	s.Draft = nil
	return true
}

// ClearCandidate drops the candidate slot and everything derived from it.
func (s *State) ClearCandidate() {
	s.Candidate = nil
	s.SlotAvailable = AvailabilityUnknown
	s.Occupied = nil
	s.Draft = nil
}

// MarkFree records a free verdict together with the draft to book.
func (s *State) MarkFree(draft EventDraft) {
	s.SlotAvailable = AvailabilityFree
	s.Occupied = nil
	s.Draft = &draft
}

// MarkBusy records a busy verdict. intervals may be empty when the check
// itself failed.
func (s *State) MarkBusy(intervals []Interval) {
	s.SlotAvailable = AvailabilityBusy
	s.Occupied = append([]Interval(nil), intervals...)
	s.Draft = nil
}

// MarkBooked records a successful booking.
func (s *State) MarkBooked(link string) {
	s.EventCreated = true
	s.MeetingLink = link
}

// Validate checks the cross-field invariants of the record.
func (s *State) Validate() error {
	if s.Candidate != nil && !s.Candidate.Complete() {
		return errors.New("candidate slot is partially populated")
	}
	if s.EventCreated {
		if s.MeetingLink == "" {
			return errors.New("event created without a meeting link")
		}
		if s.SlotAvailable != AvailabilityFree {
			return errors.New("event created for a slot not verified free")
		}
	}
	if s.SlotAvailable != AvailabilityBusy && len(s.Occupied) > 0 {
		return errors.New("occupied intervals recorded for a slot not marked busy")
	}
	return nil
}
