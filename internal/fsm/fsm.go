// Package fsm defines the device binding state machine shared by the toggle controller.
package fsm

import "fmt"

type State string

type Event string

const (
	StateUnbound State = "unbound"
	StateBound   State = "bound"
)

const (
	EventBind       Event = "bind"
	EventBindFailed Event = "bind_failed"
	EventUnbind     Event = "unbind"
)

// Transition returns the next binding state for event.
//
// A successful bind from any state lands in bound; a failed bind or an
// explicit unbind always lands in unbound so callers never observe a
// half-switched device.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateUnbound, StateBound:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}

	switch event {
	case EventBind:
		return StateBound, nil
	case EventBindFailed, EventUnbind:
		return StateUnbound, nil
	default:
		return current, invalidTransition(current, event)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
