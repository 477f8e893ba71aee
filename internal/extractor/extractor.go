package extractor

import (
	"context"
	"errors"
	"strings"

	"github.com/teemow/slotbook/internal/session"
)

const opExtract = "extract"

var (
	// ErrEmptyUtterance is returned for blank input.
	ErrEmptyUtterance = errors.New("utterance is empty")
	// ErrIncompleteSlot is returned when the model leaves a field empty.
	ErrIncompleteSlot = errors.New("model returned an incomplete slot")
	// ErrMalformedResponse is returned when the model answer does not match
	// the slot schema.
	ErrMalformedResponse = errors.New("model response does not match the slot schema")
)

// Request is the input to one extraction. SystemContext carries the current
// time anchor and instructions; History is optional prior conversation.
type Request struct {
	SystemContext string
	History       []session.Message
	Utterance     string
}

// Extractor converts an utterance into a complete slot. Every error it
// returns is a *session.Failure of kind KindExtraction.
type Extractor interface {
	Extract(ctx context.Context, req Request) (session.Slot, error)
}

// Func adapts a function to the Extractor interface.
type Func func(ctx context.Context, req Request) (session.Slot, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, req Request) (session.Slot, error) {
	return f(ctx, req)
}

func checkRequest(req Request) error {
	if strings.TrimSpace(req.Utterance) == "" {
		return failure(ErrEmptyUtterance)
	}
	return nil
}

// failure wraps err as an extraction failure unless it already is one.
func failure(err error) error {
	if session.IsKind(err, session.KindExtraction) {
		return err
	}
	return session.NewFailure(session.KindExtraction, opExtract, err)
}
