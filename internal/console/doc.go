// Package console implements the line-oriented user interaction boundary of a
// booking session: one line of text out, one line of text in per turn.
//
// Console talks to a terminal (or any reader/writer pair). Scripted replays a
// fixed list of utterances and is used when a session runs without a human on
// the other side, such as from an MCP tool call.
package console
