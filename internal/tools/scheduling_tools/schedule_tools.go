package scheduling_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/console"
	"github.com/teemow/slotbook/internal/orchestrator"
	"github.com/teemow/slotbook/internal/server"
	"github.com/teemow/slotbook/internal/session"
	"github.com/teemow/slotbook/internal/tools/common"
)

var errReadOnly = errors.New("write operations are disabled (start the server with --yolo to book)")

// readOnlyBooker stops a session at the booking step.
type readOnlyBooker struct{}

func (readOnlyBooker) Book(context.Context, session.EventDraft) (booking.Confirmation, error) {
	return booking.Confirmation{}, session.NewFailure(session.KindBooking, "book", errReadOnly)
}

type scheduleResult struct {
	State        string         `json:"state"`
	EventCreated bool           `json:"event_created"`
	MeetingLink  string         `json:"meeting_link,omitempty"`
	EventID      string         `json:"event_id,omitempty"`
	Available    string         `json:"availability"`
	Busy         []intervalJSON `json:"busy,omitempty"`
	Transcript   []string       `json:"transcript"`
	Error        string         `json:"error,omitempty"`
}

func handleScheduleMeeting(sc *server.ServerContext, readOnly bool) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(args, sc.DefaultAccount())

		utterance, err := common.RequiredString(args, "utterance")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		alternatives, err := common.OptionalStringList(args, "alternatives")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		// Alternatives answer the re-prompts in order; once they run out the
		// session ends with an input failure.
		prompter := console.NewScripted(append([]string{utterance}, alternatives...)...)
		var booker orchestrator.Booker
		if readOnly {
			booker = readOnlyBooker{}
		}

		o, err := sc.NewSession(account, prompter, booker, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, runErr := o.Run(ctx)
		if result == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Session failed: %v", runErr)), nil
		}

		st := result.State
		out := scheduleResult{
			State:        result.Final.String(),
			EventCreated: st.EventCreated,
			MeetingLink:  st.MeetingLink,
			Available:    st.SlotAvailable.String(),
			Busy:         intervals(st.Occupied, sc.Location()),
			Transcript:   prompter.Transcript(),
		}
		if result.Confirmation != nil {
			out.EventID = result.Confirmation.EventID
		}
		if runErr != nil {
			out.Error = describeFailure(runErr)
		}

		res, err := jsonResult(out)
		// A free slot left unbooked in read-only mode is the expected outcome.
		if res != nil && runErr != nil && !errors.Is(runErr, errReadOnly) {
			res.IsError = true
		}
		return res, err
	}
}

func describeFailure(err error) string {
	switch {
	case errors.Is(err, errReadOnly):
		return "slot is free but was not booked: " + errReadOnly.Error()
	case session.IsKind(err, session.KindInput):
		return "the request could not be scheduled from the given times; name a specific day and time range that is free or pass more alternatives"
	default:
		return err.Error()
	}
}
