// Package fsm defines the record/submit session states and their legal transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateDisplaying State = "displaying"
)

const (
	EventCapture       Event = "capture"
	EventCaptureFailed Event = "capture_failed"
	EventCancel        Event = "cancel"
	EventStop          Event = "stop"
	EventSubmit        Event = "submit"
	EventResponded     Event = "responded"
	EventSubmitFailed  Event = "submit_failed"
)

// Transition returns the state reached by applying event to current.
// Invalid pairs return current unchanged alongside an error.
func Transition(current State, event Event) (State, error) {
	if !known(current) {
		return current, fmt.Errorf("unknown state %q", current)
	}

	// A new capture restarts the session from anywhere.
	if event == EventCapture {
		return StateRecording, nil
	}
	// A failed capture drops an active recording but keeps any held clip.
	if event == EventCaptureFailed {
		if current == StateRecording {
			return StateIdle, nil
		}
		return current, nil
	}

	switch current {
	case StateRecording:
		switch event {
		case EventStop:
			return StateReady, nil
		case EventCancel:
			return StateIdle, nil
		}
	case StateReady, StateDisplaying:
		if event == EventSubmit {
			return StateSubmitting, nil
		}
	case StateSubmitting:
		switch event {
		case EventResponded:
			return StateDisplaying, nil
		case EventSubmitFailed:
			return StateReady, nil
		}
	}
	return current, invalidTransition(current, event)
}

// CanSubmit reports whether a finalized recording is available for upload in state.
func CanSubmit(state State) bool {
	return state == StateReady || state == StateDisplaying
}

func known(state State) bool {
	switch state {
	case StateIdle, StateRecording, StateReady, StateSubmitting, StateDisplaying:
		return true
	default:
		return false
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
