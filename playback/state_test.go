package playback

import "testing"

// TestStateTypeString tests the String() method for StateType.
func TestStateTypeString(t *testing.T) {
	tests := []struct {
		state    StateType
		expected string
	}{
		{StateIdle, "idle"},
		{StatePlaying, "playing"},
		{StatePaused, "paused"},
		{StateTransitioning, "transitioning"},
		{StateType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("StateType.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestStateMachineTransitions tests the valid transition table.
func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name  string
		path  []StateType
		valid bool
	}{
		{"idle to transitioning to playing", []StateType{StateTransitioning, StatePlaying}, true},
		{"play pause resume", []StateType{StatePlaying, StatePaused, StatePlaying}, true},
		{"playing to transitioning to playing", []StateType{StatePlaying, StateTransitioning, StatePlaying}, true},
		{"transitioning superseded", []StateType{StateTransitioning, StateTransitioning, StatePlaying}, true},
		{"paused to transitioning", []StateType{StatePlaying, StatePaused, StateTransitioning}, true},
		{"anything to idle", []StateType{StatePlaying, StateIdle}, true},
		{"idle to paused is invalid", []StateType{StatePaused}, false},
		{"playing directly from paused only", []StateType{StatePlaying, StatePaused, StateIdle, StatePaused}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			ok := true
			for _, s := range tt.path {
				if !sm.Transition(s) {
					ok = false
					break
				}
			}
			if ok != tt.valid {
				t.Errorf("transition path validity = %v, want %v", ok, tt.valid)
			}
		})
	}
}

// TestStateMachineGuards tests the convenience guard methods.
func TestStateMachineGuards(t *testing.T) {
	sm := NewStateMachine()
	if sm.IsActive() {
		t.Error("idle machine should not be active")
	}
	if sm.CanPause() || sm.CanResume() {
		t.Error("idle machine should allow neither pause nor resume")
	}

	sm.Transition(StateTransitioning)
	sm.Transition(StatePlaying)
	if !sm.CanPause() {
		t.Error("playing machine should allow pause")
	}

	sm.Transition(StatePaused)
	if !sm.CanResume() {
		t.Error("paused machine should allow resume")
	}
}

// TestParseRepeatMode tests repeat mode parsing including aliases.
func TestParseRepeatMode(t *testing.T) {
	tests := []struct {
		input    string
		expected RepeatMode
	}{
		{"off", RepeatOff},
		{"one", RepeatOne},
		{"single", RepeatOne},
		{"all", RepeatAll},
		{"list", RepeatAll},
		{"bogus", RepeatOff},
		{"", RepeatOff},
	}

	for _, tt := range tests {
		if got := ParseRepeatMode(tt.input); got != tt.expected {
			t.Errorf("ParseRepeatMode(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
