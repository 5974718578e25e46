package domain

import (
	"fmt"
	"strings"
)

// Phase is one stage of a workout session
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWarmup
	PhaseSprint
	PhaseRest
	PhaseCooldown
)

// AllPhases lists every phase in session order
var AllPhases = []Phase{PhaseIdle, PhaseWarmup, PhaseSprint, PhaseRest, PhaseCooldown}

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWarmup:
		return "warmup"
	case PhaseSprint:
		return "sprint"
	case PhaseRest:
		return "rest"
	case PhaseCooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Label returns the upper-case display label used in status lines
func (p Phase) Label() string {
	switch p {
	case PhaseSprint:
		return "FULL GAS"
	case PhaseRest:
		return "RECOVER"
	case PhaseCooldown:
		return "COOLDOWN"
	default:
		return "WARMUP"
	}
}

// Valid reports whether p is one of the defined phases
func (p Phase) Valid() bool {
	return p >= PhaseIdle && p <= PhaseCooldown
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase converts a phase name (case-insensitive) to a Phase
func ParsePhase(s string) (Phase, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, p := range AllPhases {
		if p.String() == name {
			return p, nil
		}
	}
	return PhaseIdle, fmt.Errorf("unknown phase %q", s)
}
