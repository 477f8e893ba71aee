package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teemow/slotbook/internal/session"
)

// DecodeSlot parses a model answer into a slot. The answer must be a single
// JSON object with exactly date, start_time and end_time, all non-empty.
// A surrounding markdown code fence is tolerated.
func DecodeSlot(raw string) (session.Slot, error) {
	body := stripFence(strings.TrimSpace(raw))
	if body == "" {
		return session.Slot{}, failure(fmt.Errorf("%w: empty answer", ErrMalformedResponse))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()

	var slot session.Slot
	if err := dec.Decode(&slot); err != nil {
		return session.Slot{}, failure(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	if dec.More() {
		return session.Slot{}, failure(fmt.Errorf("%w: trailing data after object", ErrMalformedResponse))
	}

	slot.Date = strings.TrimSpace(slot.Date)
	slot.StartTime = strings.TrimSpace(slot.StartTime)
	slot.EndTime = strings.TrimSpace(slot.EndTime)
	if !slot.Complete() {
		return session.Slot{}, failure(ErrIncompleteSlot)
	}
	return slot, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
