package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidSlot is returned when a slot cannot be resolved to a time window.
var ErrInvalidSlot = errors.New("invalid slot")

const dateLayout = "2006-01-02"

// localTimestampLayouts are ISO timestamps without an offset; they resolve in
// the reference location.
var localTimestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// clockLayouts are the time-of-day forms accepted in StartTime/EndTime when
// they are not full RFC3339 timestamps. Inputs are lower-cased and stripped
// of spaces before matching.
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"15:04Z07:00",
	"15:04:05Z07:00",
	"3pm",
	"3:04pm",
}

// Slot is a candidate meeting time as produced by the extractor.
type Slot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Complete reports whether all three fields carry a value.
func (s Slot) Complete() bool {
	return strings.TrimSpace(s.Date) != "" &&
		strings.TrimSpace(s.StartTime) != "" &&
		strings.TrimSpace(s.EndTime) != ""
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Date, s.StartTime, s.EndTime)
}

// Window resolves the slot into concrete instants. Clock values without an
// offset are interpreted in loc.
func (s Slot) Window(loc *time.Location) (time.Time, time.Time, error) {
	if !s.Complete() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: missing fields", ErrInvalidSlot)
	}
	if loc == nil {
		loc = time.UTC
	}

	start, err := resolveInstant(s.Date, s.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_time: %v", ErrInvalidSlot, err)
	}
	// A timestamp start carries its own day, which must be the slot's date.
	day, err := parseDate(s.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date: %v", ErrInvalidSlot, err)
	}
	if got := start.Format(dateLayout); got != day {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_time is on %s, date says %s", ErrInvalidSlot, got, day)
	}
	end, err := resolveInstant(s.Date, s.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_time: %v", ErrInvalidSlot, err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidSlot, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return start, end, nil
}

func resolveInstant(date, clock string, loc *time.Location) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if t, err := time.Parse(time.RFC3339, clock); err == nil {
		return t, nil
	}
	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, clock, loc); err == nil {
			return t, nil
		}
	}

	day, err := parseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}

	normalized := strings.ToLower(strings.ReplaceAll(clock, " ", ""))
	if strings.HasSuffix(normalized, "z") {
		normalized = strings.TrimSuffix(normalized, "z") + "Z"
	}
	for _, layout := range clockLayouts {
		t, err := time.ParseInLocation(dateLayout+" "+layout, day+" "+normalized, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", clock)
}

// parseDate accepts a plain date or an RFC3339 timestamp and returns the
// calendar day in YYYY-MM-DD form.
func parseDate(date string, loc *time.Location) (string, error) {
	date = strings.TrimSpace(date)
	if t, err := time.ParseInLocation(dateLayout, date, loc); err == nil {
		return t.Format(dateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.Format(dateLayout), nil
	}
	return "", fmt.Errorf("unrecognized date %q", date)
}
