package playback

// StateType represents the coordinator's current playback state.
type StateType int

const (
	// StateIdle indicates no item is loaded.
	StateIdle StateType = iota
	// StatePlaying indicates the engine is actively producing speech.
	StatePlaying
	// StatePaused indicates the engine holds its position.
	StatePaused
	// StateTransitioning indicates the coordinator is between utterances:
	// the engine has been told to stop and a new utterance will start once
	// the stop is acknowledged.
	StateTransitioning
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateTransitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

// Intent tags why the current utterance is ending, so that a finished or
// cancelled engine event can be interpreted correctly.
type Intent int

const (
	// IntentNone means no teardown is in progress.
	IntentNone Intent = iota
	// IntentUser means the user asked for the change (pause, stop, seek,
	// item switch). Natural completion never sets an intent; it is handled
	// directly from the finished event.
	IntentUser
)

// String returns the string representation of the intent.
func (i Intent) String() string {
	switch i {
	case IntentNone:
		return "none"
	case IntentUser:
		return "user"
	default:
		return "unknown"
	}
}

// RepeatMode controls what happens when an item completes naturally.
type RepeatMode int

const (
	// RepeatOff plays the current item once and stops.
	RepeatOff RepeatMode = iota
	// RepeatOne replays the current item from the beginning.
	RepeatOne
	// RepeatAll advances to the next playlist item, wrapping around.
	RepeatAll
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseRepeatMode converts a config string to a RepeatMode. Unrecognized
// values fall back to RepeatOff.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "one", "single":
		return RepeatOne
	case "all", "list":
		return RepeatAll
	default:
		return RepeatOff
	}
}

// StateMachine manages playback state transitions. Only the coordinator's
// command loop mutates it.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
}

// NewStateMachine creates a state machine in StateIdle with the valid
// transition table.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:    {StateTransitioning, StatePlaying},
			StatePlaying: {StatePaused, StateTransitioning, StateIdle},
			StatePaused:  {StatePlaying, StateTransitioning, StateIdle},
			// A transition may be superseded by another before it completes
			// (rapid double-seek), hence the self-edge.
			StateTransitioning: {StatePlaying, StateTransitioning, StateIdle},
		},
	}
}

// Transition attempts to move to the given state and reports whether the
// transition was valid.
func (sm *StateMachine) Transition(to StateType) bool {
	for _, s := range sm.transitions[sm.current] {
		if s == to {
			sm.current = to
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType { return sm.current }

// CanPause reports whether a pause command is meaningful now.
func (sm *StateMachine) CanPause() bool { return sm.current == StatePlaying }

// CanResume reports whether a resume command is meaningful now.
func (sm *StateMachine) CanResume() bool { return sm.current == StatePaused }

// IsActive reports whether an item is loaded and not torn down.
func (sm *StateMachine) IsActive() bool { return sm.current != StateIdle }
