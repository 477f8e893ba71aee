// Package orchestrator drives one booking session as a finite state machine:
//
//	INIT -> PROMPT_USER -> EXTRACT -> {CHECK_SLOT | PROMPT_USER}
//	CHECK_SLOT -> {BOOK | INFORM_CONFLICT}
//	INFORM_CONFLICT -> EXTRACT
//	BOOK -> {DONE | ABORTED}
//
// The orchestrator owns the session.State record; collaborators are injected
// once through Deps and never see the record. A session ends in DONE after a
// successful booking or in ABORTED when input ends, the attempt budget is
// spent or the booking fails. Every failure is returned to the caller with
// its session.Kind.
package orchestrator
