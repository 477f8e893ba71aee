package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/slotbook/internal/availability"
	"github.com/teemow/slotbook/internal/booking"
	"github.com/teemow/slotbook/internal/console"
	"github.com/teemow/slotbook/internal/extractor"
	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/session"
)

// ErrAttemptsExhausted ends a session that used up Policy.MaxAttempts.
var ErrAttemptsExhausted = errors.New("maximum number of attempts reached")

// Checker is the availability boundary.
type Checker interface {
	Check(ctx context.Context, start, end time.Time) (availability.Report, error)
}

// Booker is the calendar write boundary.
type Booker interface {
	Book(ctx context.Context, draft session.EventDraft) (booking.Confirmation, error)
}

// Observer is called after every transition.
type Observer func(ctx context.Context, t Transition, st *session.State)

// Policy bounds a session.
type Policy struct {
	// MaxAttempts caps the utterances consumed per session; 0 is unbounded.
	MaxAttempts int
	// CallTimeout bounds each model and calendar call; 0 disables it.
	CallTimeout time.Duration
	// SendHistory passes prior conversation to the extractor in addition to
	// the system context and latest utterance.
	SendHistory bool
}

// DefaultPolicy returns the default session bounds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		CallTimeout: 30 * time.Second,
	}
}

// Deps are the collaborators of a session.
type Deps struct {
	Prompter  console.Prompter
	Extractor extractor.Extractor
	Checker   Checker
	Booker    Booker

	Draft    DraftTemplate
	Location *time.Location
	Clock    func() time.Time
	Policy   Policy

	Observer Observer
	Metrics  *instrumentation.Metrics
	Logger   *slog.Logger
}

// Result describes a finished session.
type Result struct {
	State        *session.State
	Final        State
	Transitions  []Transition
	Confirmation *booking.Confirmation
}

// Orchestrator runs booking sessions.
type Orchestrator struct {
	deps Deps
}

// New validates deps and fills defaults.
func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Prompter == nil:
		return nil, fmt.Errorf("prompter is required")
	case deps.Extractor == nil:
		return nil, fmt.Errorf("extractor is required")
	case deps.Checker == nil:
		return nil, fmt.Errorf("checker is required")
	case deps.Booker == nil:
		return nil, fmt.Errorf("booker is required")
	case deps.Policy.MaxAttempts < 0:
		return nil, fmt.Errorf("max attempts must not be negative")
	}

	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps}, nil
}

// run is the per-session scratch space next to the state record.
type run struct {
	st       *session.State
	result   *Result
	start    time.Time
	end      time.Time
	checkErr error
}

// Run drives one session to DONE or ABORTED. The returned error is nil only
// when an event was booked.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	st := session.NewState()
	r := &run{st: st, result: &Result{State: st}}

	var runErr error
	cur := StateInit
	for !cur.Terminal() {
		next, err := o.step(ctx, cur, r)
		if err == nil {
			if verr := st.Validate(); verr != nil {
				next, err = StateAborted, fmt.Errorf("session invariant violated after %s: %w", cur, verr)
			}
		}
		if err != nil {
			runErr = err
		}
		o.transition(ctx, r, cur, next)
		cur = next
	}

	r.result.Final = cur
	o.deps.Metrics.RecordSession(ctx, outcome(cur, runErr), st.Attempts)
	return r.result, runErr
}

func (o *Orchestrator) step(ctx context.Context, cur State, r *run) (next State, err error) {
	ctx, span := instrumentation.StartStateSpan(ctx, cur.String(), r.st.Attempts)
	defer func() { instrumentation.EndSpan(span, err) }()

	switch cur {
	case StateInit:
		return o.initialize(r)
	case StatePromptUser:
		return o.promptUser(ctx, r)
	case StateExtract:
		return o.extract(ctx, r)
	case StateCheckSlot:
		return o.checkSlot(ctx, r)
	case StateInformConflict:
		return o.informConflict(ctx, r)
	case StateBook:
		return o.book(ctx, r)
	default:
		return StateAborted, fmt.Errorf("no transition from state %s", cur)
	}
}

func (o *Orchestrator) transition(ctx context.Context, r *run, from, to State) {
	t := Transition{From: from, To: to, Attempt: r.st.Attempts, At: o.deps.Clock()}
	r.result.Transitions = append(r.result.Transitions, t)

	o.deps.Metrics.RecordStateTransition(ctx, from.String(), to.String())
	o.deps.Logger.Debug("session transition",
		slog.String("from", from.String()),
		logging.State(to),
		logging.Attempt(r.st.Attempts))

	if o.deps.Observer != nil {
		o.deps.Observer(ctx, t, r.st)
	}
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.deps.Policy.CallTimeout > 0 {
		return context.WithTimeout(ctx, o.deps.Policy.CallTimeout)
	}
	return context.WithCancel(ctx)
}

func outcome(final State, err error) string {
	switch {
	case final == StateDone:
		return instrumentation.OutcomeBooked
	case errors.Is(err, ErrAttemptsExhausted):
		return instrumentation.OutcomeExhausted
	default:
		return instrumentation.OutcomeAborted
	}
}
