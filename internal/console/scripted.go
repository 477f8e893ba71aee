package console

import (
	"context"
	"io"
	"sync"
)

// Scripted is a Prompter that answers prompts from a fixed list of
// utterances and records everything shown to the user.
type Scripted struct {
	mu         sync.Mutex
	utterances []string
	transcript []string
}

// NewScripted creates a Scripted prompter answering with utterances in order.
func NewScripted(utterances ...string) *Scripted {
	return &Scripted{utterances: append([]string(nil), utterances...)}
}

// Prompt returns the next scripted utterance, or io.EOF when none is left.
func (s *Scripted) Prompt(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, text)
	if len(s.utterances) == 0 {
		return "", io.EOF
	}
	next := s.utterances[0]
	s.utterances = s.utterances[1:]
	return next, nil
}

// Notify records text in the transcript.
func (s *Scripted) Notify(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, text)
	return nil
}

// Transcript returns the prompts and notifications shown so far.
func (s *Scripted) Transcript() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.transcript...)
}
