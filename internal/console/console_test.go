package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_Prompt(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("tomorrow 3pm to 4pm\n  next friday  \n"), &out)
	ctx := context.Background()

	line, err := c.Prompt(ctx, "When?")
	require.NoError(t, err)
	assert.Equal(t, "tomorrow 3pm to 4pm", line)

	line, err = c.Prompt(ctx, "Again?")
	require.NoError(t, err)
	assert.Equal(t, "next friday", line)

	_, err = c.Prompt(ctx, "More?")
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "When? Again? More? ", out.String())
}

func TestConsole_Notify(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader(""), &out)

	require.NoError(t, c.Notify(context.Background(), "slot is busy"))
	assert.Equal(t, "slot is busy\n", out.String())
}

func TestConsole_PromptCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	c := New(pr, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Prompt(ctx, "When?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned read is picked up by the next prompt.
	go func() { _, _ = pw.Write([]byte("late answer\n")) }()
	line, err := c.Prompt(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "late answer", line)
}

func TestScripted(t *testing.T) {
	s := NewScripted("first", "second")
	ctx := context.Background()

	line, err := s.Prompt(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	require.NoError(t, s.Notify(ctx, "busy"))

	line, err = s.Prompt(ctx, "q2")
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	_, err = s.Prompt(ctx, "q3")
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, []string{"q1", "busy", "q2", "q3"}, s.Transcript())
}

func TestScripted_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScripted("x").Prompt(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrompterInterface(t *testing.T) {
	var _ Prompter = (*Console)(nil)
	var _ Prompter = (*Scripted)(nil)
}
