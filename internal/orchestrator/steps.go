package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/slotbook/internal/extractor"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/session"
)

const (
	askMessage       = "When would you like to schedule the meeting?"
	clarifyMessage   = "I could not work out a date, start time and end time from that. Please give a specific day and time range, for example \"tomorrow from 3pm to 4pm\"."
	conflictRetry    = "Please suggest another time:"
	checkFailMessage = "I could not verify your calendar for that time, so I will not book it."
	windowLayout     = "Mon 2006-01-02 15:04"
)

func (o *Orchestrator) initialize(r *run) (State, error) {
	r.st.AppendMessage(session.RoleSystem, extractor.SystemPrompt(o.deps.Clock(), o.deps.Location))
	return StatePromptUser, nil
}

func (o *Orchestrator) promptUser(ctx context.Context, r *run) (State, error) {
	if err := o.solicit(ctx, r, askMessage); err != nil {
		return StateAborted, err
	}
	return StateExtract, nil
}

// solicit reads the next utterance into the record. An exhausted attempt
// budget is checked before the user is asked again.
func (o *Orchestrator) solicit(ctx context.Context, r *run, text string) error {
	if limit := o.deps.Policy.MaxAttempts; limit > 0 && r.st.Attempts >= limit {
		return fmt.Errorf("%w (%d)", ErrAttemptsExhausted, limit)
	}

	line, err := o.deps.Prompter.Prompt(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return session.NewFailure(session.KindInput, "prompt", err)
	}

	r.st.SetUtterance(strings.TrimSpace(line))
	return nil
}

func (o *Orchestrator) extract(ctx context.Context, r *run) (State, error) {
	req := extractor.Request{
		SystemContext: r.st.SystemContext(),
		Utterance:     r.st.UserQuery,
	}
	if o.deps.Policy.SendHistory && len(r.st.History) > 2 {
		// Everything between the system context and the current utterance.
		req.History = append([]session.Message(nil), r.st.History[1:len(r.st.History)-1]...)
	}

	slot, err := o.callExtractor(ctx, req)
	if err == nil {
		if r.st.SetCandidate(slot) {
			r.start, r.end, err = slot.Window(o.deps.Location)
			if err != nil {
				err = session.NewFailure(session.KindExtraction, "resolve", err)
			}
		} else {
			err = session.NewFailure(session.KindExtraction, "extract", extractor.ErrIncompleteSlot)
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return StateAborted, ctx.Err()
		}
		o.deps.Logger.Info("slot extraction failed",
			logging.Attempt(r.st.Attempts), logging.Err(err))
		r.st.ClearCandidate()
		r.st.AppendMessage(session.RoleAssistant, clarifyMessage)
		if nerr := o.deps.Prompter.Notify(ctx, clarifyMessage); nerr != nil {
			return StateAborted, session.NewFailure(session.KindInput, "notify", nerr)
		}
		return StatePromptUser, nil
	}

	o.deps.Logger.Debug("slot extracted",
		slog.String("slot", slot.String()),
		logging.Window(r.start, r.end))
	return StateCheckSlot, nil
}

func (o *Orchestrator) callExtractor(ctx context.Context, req extractor.Request) (session.Slot, error) {
	ctx, cancel := o.callContext(ctx)
	defer cancel()
	return o.deps.Extractor.Extract(ctx, req)
}

func (o *Orchestrator) checkSlot(ctx context.Context, r *run) (State, error) {
	callCtx, cancel := o.callContext(ctx)
	report, err := o.deps.Checker.Check(callCtx, r.start, r.end)
	cancel()

	r.checkErr = nil
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return StateAborted, ctx.Err()
		}
		o.deps.Logger.Warn("availability check failed, treating slot as busy",
			logging.Window(r.start, r.end), logging.Err(err))
		r.checkErr = err
		r.st.MarkBusy(nil)
		return StateInformConflict, nil
	case len(report.Busy) > 0:
		r.st.MarkBusy(report.Busy)
		return StateInformConflict, nil
	default:
		r.st.MarkFree(o.deps.Draft.Draft(r.start, r.end))
		return StateBook, nil
	}
}

func (o *Orchestrator) informConflict(ctx context.Context, r *run) (State, error) {
	msg := o.conflictMessage(r)
	r.st.AppendMessage(session.RoleAssistant, msg)
	if err := o.deps.Prompter.Notify(ctx, msg); err != nil {
		return StateAborted, session.NewFailure(session.KindInput, "notify", err)
	}
	if err := o.solicit(ctx, r, conflictRetry); err != nil {
		return StateAborted, err
	}
	return StateExtract, nil
}

func (o *Orchestrator) conflictMessage(r *run) string {
	if r.checkErr != nil || len(r.st.Occupied) == 0 {
		return checkFailMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You already have something scheduled between %s and %s:",
		r.start.In(o.deps.Location).Format(windowLayout),
		r.end.In(o.deps.Location).Format("15:04"))
	for _, iv := range r.st.Occupied {
		fmt.Fprintf(&b, "\n  - %s to %s",
			iv.Start.In(o.deps.Location).Format(windowLayout),
			iv.End.In(o.deps.Location).Format(windowLayout))
	}
	return b.String()
}

func (o *Orchestrator) book(ctx context.Context, r *run) (State, error) {
	if r.st.Draft == nil {
		return StateAborted, session.NewFailure(session.KindBooking, "book", errors.New("no event draft"))
	}

	// Booking carries its own retry deadline, so only the outer context applies.
	conf, err := o.deps.Booker.Book(ctx, *r.st.Draft)
	if err != nil {
		o.deps.Logger.Error("booking failed", logging.Window(r.start, r.end), logging.Err(err))
		_ = o.deps.Prompter.Notify(ctx, "Sorry, the meeting could not be booked.")
		if !session.IsKind(err, session.KindBooking) {
			err = session.NewFailure(session.KindBooking, "book", err)
		}
		return StateAborted, err
	}

	r.st.MarkBooked(conf.JoinLink)
	r.result.Confirmation = &conf
	o.deps.Logger.Info("meeting booked",
		logging.EventID(conf.EventID),
		logging.Window(r.start, r.end))

	msg := fmt.Sprintf("Meeting booked for %s to %s. Join link: %s",
		r.start.In(o.deps.Location).Format(windowLayout),
		r.end.In(o.deps.Location).Format("15:04"),
		conf.JoinLink)
	r.st.AppendMessage(session.RoleAssistant, msg)
	_ = o.deps.Prompter.Notify(ctx, msg)
	return StateDone, nil
}
