package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPrompt(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 4, 30, 0, 0, time.UTC)
	prompt := SystemPrompt(now, loc)

	assert.Contains(t, prompt, "2025-06-01T10:00:00+05:30")
	assert.Contains(t, prompt, "Sunday")
	assert.Contains(t, prompt, "Asia/Kolkata")
	assert.Contains(t, prompt, "start_time")
}

func TestSystemPrompt_NilLocation(t *testing.T) {
	prompt := SystemPrompt(time.Date(2025, 6, 1, 4, 30, 0, 0, time.UTC), nil)
	assert.Contains(t, prompt, "2025-06-01T04:30:00Z")
}
