// Package logging provides structured logging utilities for slotbook.
//
// It centralizes attribute naming so that session, calendar and model logs
// can be filtered consistently, and builds the process logger from the
// --debug and log format settings.
//
//	logger := logging.WithOperation(slog.Default(), "calendar.freebusy")
//	logger.Info("slot checked",
//	    logging.Window(start, end),
//	    logging.Status("success"))
//
// Attendee addresses only reach the log through the audit logger in
// internal/instrumentation, which reduces them to domains unless configured
// otherwise.
package logging
