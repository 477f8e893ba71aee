package session

import (
	"errors"
	"fmt"
)

// Kind classifies a failure reported by one of the session collaborators.
type Kind string

const (
	KindExtraction Kind = "extraction"
	KindChecker    Kind = "checker"
	KindBooking    Kind = "booking"
	KindInput      Kind = "input"
)

// Failure is the normalized error value every collaborator returns, so the
// orchestrator can route on the kind without inspecting transport errors.
type Failure struct {
	Kind Kind
	Op   string
	Err  error
}

// NewFailure wraps err as a failure of the given kind.
func NewFailure(kind Kind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s failure in %s", f.Kind, f.Op)
	}
	return fmt.Sprintf("%s failure in %s: %v", f.Kind, f.Op, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the failure kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a failure of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
