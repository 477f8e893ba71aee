// Package booking creates the calendar event for a slot that was verified
// free.
//
// Each Book call draws a fresh idempotency key. The key is the Google Meet
// conference request id and, with dashes removed, the client-supplied event
// id, so the event and its conference are created in one insert and a retried
// insert can never produce a second event: the calendar rejects the duplicate
// id with 409 and the booker fetches the event that already exists.
//
// Transient failures (429, 5xx, network) are retried with exponential
// backoff; anything else fails immediately. Every attempt is written to the
// audit log.
package booking
