package orchestrator

import "time"

// State is a node of the session state machine.
type State int

const (
	StateInit State = iota
	StatePromptUser
	StateExtract
	StateCheckSlot
	StateInformConflict
	StateBook
	StateDone
	StateAborted
)

var stateNames = map[State]string{
	StateInit:           "init",
	StatePromptUser:     "prompt_user",
	StateExtract:        "extract",
	StateCheckSlot:      "check_slot",
	StateInformConflict: "inform_conflict",
	StateBook:           "book",
	StateDone:           "done",
	StateAborted:        "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Transition is one edge taken during a session.
type Transition struct {
	From    State
	To      State
	Attempt int
	At      time.Time
}
