// Package receipt writes a booked meeting as an iCalendar file.
package receipt

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-ical"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/session"
)

const productID = "-//teemow//slotbook//EN"

// Receipt is a booked event together with its confirmation.
type Receipt struct {
	Draft        session.EventDraft
	Confirmation booking.Confirmation
	// Stamp is written as DTSTAMP; the zero value means now.
	Stamp time.Time
}

// Calendar builds the VCALENDAR for r.
func (r Receipt) Calendar() (*ical.Calendar, error) {
	if r.Confirmation.IdempotencyKey == "" {
		return nil, errors.New("receipt has no idempotency key")
	}
	if !r.Draft.End.After(r.Draft.Start) {
		return nil, errors.New("receipt has an empty time window")
	}

	stamp := r.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, r.Confirmation.IdempotencyKey)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, r.Draft.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, r.Draft.End.UTC())
	event.Props.SetText(ical.PropStatus, "CONFIRMED")

	if r.Draft.Summary != "" {
		event.Props.SetText(ical.PropSummary, r.Draft.Summary)
	}
	if r.Draft.Location != "" {
		event.Props.SetText(ical.PropLocation, r.Draft.Location)
	}
	if r.Draft.Description != "" {
		event.Props.SetText(ical.PropDescription, r.Draft.Description)
	}
	if link := r.Confirmation.JoinLink; link != "" {
		u, err := url.Parse(link)
		if err != nil {
			return nil, fmt.Errorf("invalid join link: %w", err)
		}
		event.Props.SetURI(ical.PropURL, u)
	}
	for _, email := range r.Draft.Attendees {
		attendee := ical.NewProp(ical.PropAttendee)
		attendee.Value = "mailto:" + email
		attendee.Params.Set(ical.ParamRole, "REQ-PARTICIPANT")
		event.Props.Add(attendee)
	}

	cal.Children = append(cal.Children, event.Component)
	return cal, nil
}

// Write encodes r to w.
func Write(w io.Writer, r Receipt) error {
	cal, err := r.Calendar()
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	return nil
}

// WriteFile writes r to path, creating parent directories as needed.
func WriteFile(path string, r Receipt) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create receipt directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create receipt file: %w", err)
	}
	if err := Write(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
