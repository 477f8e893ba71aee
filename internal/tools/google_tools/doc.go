// Package google_tools provides MCP tools for authorizing Google Calendar
// access without leaving the assistant.
//
// The OAuth flow:
//  1. Call google_get_auth_url to get the authorization URL
//  2. The user visits the URL and grants calendar access
//  3. The browser is redirected to the configured redirect URL; the user
//     copies the "code" query parameter
//  4. Call google_save_auth_code with the code to save the token
//
// Once saved, the scheduling tools pick up the token on their next call and
// it is refreshed automatically.
package google_tools
