// Package google provides OAuth2 authentication and token storage for the
// Google Calendar API.
//
// Tokens are stored per account as JSON files in the user cache directory
// (slotbook/google-<account>.token). A FileTokenProvider hands out token
// sources that write refreshed tokens back to disk, and LoopbackFlow runs the
// installed-app authorization flow on a local port.
package google
