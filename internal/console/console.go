package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Prompter is the interface the orchestrator uses to talk to the user.
type Prompter interface {
	// Prompt shows text and blocks until the user answers with one line.
	// It returns io.EOF once no more input can be read.
	Prompt(ctx context.Context, text string) (string, error)

	// Notify shows text without waiting for an answer.
	Notify(ctx context.Context, text string) error
}

type readResult struct {
	line string
	err  error
}

// Console is a Prompter over a line-oriented reader and writer.
type Console struct {
	out     io.Writer
	scanner *bufio.Scanner

	mu      sync.Mutex
	pending chan readResult
}

// New creates a Console reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// Prompt writes text followed by a space and reads one line. A blocked read
// is abandoned when ctx is cancelled; the line it eventually returns is
// delivered to the next Prompt call.
func (c *Console) Prompt(ctx context.Context, text string) (string, error) {
	if text != "" {
		if _, err := fmt.Fprint(c.out, text+" "); err != nil {
			return "", err
		}
	}

	c.mu.Lock()
	if c.pending == nil {
		c.pending = make(chan readResult, 1)
		go c.readLine(c.pending)
	}
	pending := c.pending
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-pending:
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}

func (c *Console) readLine(ch chan<- readResult) {
	if c.scanner.Scan() {
		ch <- readResult{line: c.scanner.Text()}
		return
	}
	err := c.scanner.Err()
	if err == nil {
		err = io.EOF
	}
	ch <- readResult{err: err}
}

// Notify writes text on its own line.
func (c *Console) Notify(_ context.Context, text string) error {
	_, err := fmt.Fprintln(c.out, text)
	return err
}
