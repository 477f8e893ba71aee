// Package scheduling_tools exposes slot extraction, availability checks and
// booking as MCP tools.
//
// Read-only tools:
//   - slot_extract: turn a free-form utterance into a date and time range
//   - calendar_check_slot: report whether a time range is free
//   - schedule_meeting: run one scheduling session; books only when write
//     operations are enabled
//
// Write tools (registered with --yolo only):
//   - calendar_book_slot: book a time range after verifying it is free
package scheduling_tools
