package logging

import (
	"fmt"
	"log/slog"
	"time"
)

// Attribute keys shared by every slotbook log line.
const (
	KeyOperation = "operation"
	KeyAccount   = "account"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyState     = "state"
	KeyAttempt   = "attempt"
	KeyProvider  = "provider"
	KeyEventID   = "event_id"
	KeyWindow    = "window"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Account returns a slog attribute for the account name.
func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// State returns a slog attribute for a session state name.
func State(state fmt.Stringer) slog.Attr {
	return slog.String(KeyState, state.String())
}

// Attempt returns a slog attribute for the attempt counter.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Provider returns a slog attribute for the language model backend.
func Provider(name string) slog.Attr {
	return slog.String(KeyProvider, name)
}

// EventID returns a slog attribute for a calendar event id.
func EventID(id string) slog.Attr {
	return slog.String(KeyEventID, id)
}

// Window returns a slog attribute describing a time window in RFC3339.
func Window(start, end time.Time) slog.Attr {
	return slog.String(KeyWindow, start.Format(time.RFC3339)+"/"+end.Format(time.RFC3339))
}

// Duration returns a slog attribute for an elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that slog omits from output.
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}
