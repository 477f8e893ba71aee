// Package session holds the state of a single booking conversation.
//
// A State is created when a session starts and is owned by the orchestrator
// for its whole lifetime. It records the conversation history used as model
// context, the latest user utterance, the candidate slot extracted from it,
// the availability verdict for that slot and, once booked, the meeting link.
// Nothing in this package is safe for concurrent mutation; the orchestrator
// performs one transition at a time.
//
// The package also defines the failure taxonomy shared by the components the
// orchestrator calls into:
//
//	KindExtraction  the model produced no complete slot
//	KindChecker     the free/busy query failed
//	KindBooking     the event insert failed
//	KindInput       the user input could not be read
package session
