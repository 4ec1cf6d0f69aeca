// Package fsm defines the request lifecycle shared by the scan and answer coordinators.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle     State = "idle"
	StateBusy     State = "busy"
	StateCooldown State = "cooldown"
)

const (
	EventTrigger Event = "trigger"
	EventFinish  Event = "finish"
	EventCancel  Event = "cancel"
	EventCooled  Event = "cooled"
)

func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventTrigger:
			return StateBusy, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateBusy:
		switch event {
		case EventFinish:
			return StateCooldown, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCooldown:
		switch event {
		case EventCooled:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
