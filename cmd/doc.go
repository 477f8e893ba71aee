// Package cmd implements the command-line interface for slotbook.
//
// This package provides the following commands:
//   - book: Ask for a meeting time, check the calendar and book it (default)
//   - auth: Authorize Google Calendar access through the browser
//   - serve: Start the MCP server to provide scheduling tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The book command is the default command when no subcommand is specified.
package cmd
