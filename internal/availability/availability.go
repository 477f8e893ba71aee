// Package availability decides whether a time window on the booking
// calendar is free.
package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/slotbook/internal/calendar"
	"github.com/teemow/slotbook/internal/session"
)

const opCheck = "check_availability"

// ErrInvalidWindow is returned when end is not after start.
var ErrInvalidWindow = errors.New("window end must be after start")

// FreeBusyQuerier is the calendar read boundary.
type FreeBusyQuerier interface {
	QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]calendar.FreeBusyInfo, error)
}

// Report is the verdict for one window.
type Report struct {
	Free bool
	Busy []session.Interval
}

// Checker queries a single fixed calendar.
type Checker struct {
	querier    FreeBusyQuerier
	calendarID string
}

// NewChecker returns a checker for calendarID ("primary" when empty).
func NewChecker(querier FreeBusyQuerier, calendarID string) *Checker {
	if calendarID == "" {
		calendarID = calendar.PrimaryCalendarID
	}
	return &Checker{querier: querier, calendarID: calendarID}
}

// CalendarID returns the calendar the checker queries.
func (c *Checker) CalendarID() string {
	return c.calendarID
}

// Check reports whether [start, end) is free. The window is free only when
// the calendar reports no busy period inside it; every reported period is
// returned. All errors are *session.Failure of kind KindChecker.
func (c *Checker) Check(ctx context.Context, start, end time.Time) (Report, error) {
	if !end.After(start) {
		return Report{}, session.NewFailure(session.KindChecker, opCheck, ErrInvalidWindow)
	}

	infos, err := c.querier.QueryFreeBusy(ctx, start, end, []string{c.calendarID})
	if err != nil {
		return Report{}, session.NewFailure(session.KindChecker, opCheck, err)
	}

	var info *calendar.FreeBusyInfo
	for i := range infos {
		if infos[i].Calendar == c.calendarID {
			info = &infos[i]
			break
		}
	}
	if info == nil {
		return Report{}, session.NewFailure(session.KindChecker, opCheck,
			fmt.Errorf("calendar %s missing from free/busy response", c.calendarID))
	}
	if len(info.Errors) > 0 {
		return Report{}, session.NewFailure(session.KindChecker, opCheck,
			fmt.Errorf("calendar %s: %s", c.calendarID, strings.Join(info.Errors, ", ")))
	}

	report := Report{Free: len(info.Busy) == 0}
	for _, b := range info.Busy {
		report.Busy = append(report.Busy, session.Interval{Start: b.Start, End: b.End})
	}
	return report, nil
}
