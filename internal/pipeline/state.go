package pipeline

import "encoding/json"

// State is a step of the run state machine.
type State int

const (
	StateIdle State = iota
	StateOpened
	StateLooping
	StateEncoded
	StateTranscoding
	StatePersisting
	StateDone
	StateErrored
)

var stateNames = [...]string{
	StateIdle:        "Idle",
	StateOpened:      "Opened",
	StateLooping:     "Looping",
	StateEncoded:     "Encoded",
	StateTranscoding: "Transcoding",
	StatePersisting:  "Persisting",
	StateDone:        "Done",
	StateErrored:     "Errored",
}

var stateLabels = [...]string{
	StateIdle:        "idle",
	StateOpened:      "opened",
	StateLooping:     "looping",
	StateEncoded:     "encoded",
	StateTranscoding: "transcoding",
	StatePersisting:  "persisting",
	StateDone:        "done",
	StateErrored:     "errored",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Label is the lowercase name used in metrics and logs.
func (s State) Label() string {
	if s < 0 || int(s) >= len(stateLabels) {
		return "unknown"
	}
	return stateLabels[s]
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored
}

// next lists the legal forward transitions. Errored is reachable from every
// non-terminal state and is not listed.
var next = map[State]State{
	StateIdle:        StateOpened,
	StateOpened:      StateLooping,
	StateLooping:     StateEncoded,
	StateEncoded:     StateTranscoding,
	StateTranscoding: StatePersisting,
	StatePersisting:  StateDone,
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateErrored {
		return true
	}
	return next[from] == to
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Label())
}
