package domain

import "fmt"

// EventKind identifies a transition event
type EventKind int

const (
	EventEnteredSprint EventKind = iota + 1
	EventEnteredRest
	EventEnteredCooldown
	EventSessionCompleted
	EventCountdownWarning
)

func (k EventKind) String() string {
	switch k {
	case EventEnteredSprint:
		return "entered_sprint"
	case EventEnteredRest:
		return "entered_rest"
	case EventEnteredCooldown:
		return "entered_cooldown"
	case EventSessionCompleted:
		return "session_completed"
	case EventCountdownWarning:
		return "countdown_warning"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is produced by a tick and consumed immediately; it is never stored.
// Set is meaningful for EnteredSprint/EnteredRest, SecondsLeft for
// CountdownWarning.
type Event struct {
	Kind        EventKind
	Set         int
	SecondsLeft int
}

func EnteredSprint(set int) Event { return Event{Kind: EventEnteredSprint, Set: set} }

func EnteredRest(set int) Event { return Event{Kind: EventEnteredRest, Set: set} }

func EnteredCooldown() Event { return Event{Kind: EventEnteredCooldown} }

func SessionCompleted() Event { return Event{Kind: EventSessionCompleted} }

func CountdownWarning(secondsLeft int) Event {
	return Event{Kind: EventCountdownWarning, SecondsLeft: secondsLeft}
}

// IsTransition is true for phase changes and session completion; countdown
// warnings only drive the short alert tone.
func (e Event) IsTransition() bool {
	return e.Kind != EventCountdownWarning
}

// Message returns the alert title and body for a transition event.
// ok is false for countdown warnings.
func (e Event) Message() (title, body string, ok bool) {
	switch e.Kind {
	case EventEnteredSprint:
		if e.Set <= 1 {
			return "SPRINT!", "Go Go Go!", true
		}
		return fmt.Sprintf("SPRINT %d", e.Set), "Full Power!", true
	case EventEnteredRest:
		return "REST", "Recover now.", true
	case EventEnteredCooldown:
		return "COOLDOWN", "Good job. Spin it out.", true
	case EventSessionCompleted:
		return "DONE", "Session Complete.", true
	default:
		return "", "", false
	}
}

func (e Event) String() string {
	switch e.Kind {
	case EventEnteredSprint, EventEnteredRest:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Set)
	case EventCountdownWarning:
		return fmt.Sprintf("%s(%d)", e.Kind, e.SecondsLeft)
	default:
		return e.Kind.String()
	}
}
