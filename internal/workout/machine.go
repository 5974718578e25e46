package workout

import (
	"fmt"

	"github.com/vburojevic/bmxt/internal/domain"
)

// State is the mutable session record
type State struct {
	Phase      domain.Phase
	TimeLeft   int
	CurrentSet int
	Running    bool
}

// Initial returns the idle state a session starts from and resets to
func Initial(cfg Config) State {
	return State{
		Phase:    domain.PhaseIdle,
		TimeLeft: cfg.Warmup,
	}
}

// Advance applies the zero-time transition of s. It is only meaningful when
// s.TimeLeft is 0; the running flag is carried over untouched.
//
// Warmup (or Idle) -> Sprint(1) -> Rest -> Sprint(n+1) ... Rest(last) ->
// Cooldown -> Idle.
func Advance(s State, cfg Config) (State, []domain.Event) {
	next := s
	switch s.Phase {
	case domain.PhaseIdle, domain.PhaseWarmup:
		next.Phase = domain.PhaseSprint
		next.TimeLeft = cfg.Sprint
		next.CurrentSet = 1
		return next, []domain.Event{domain.EnteredSprint(1)}

	case domain.PhaseSprint:
		next.Phase = domain.PhaseRest
		next.TimeLeft = cfg.Rest
		return next, []domain.Event{domain.EnteredRest(s.CurrentSet)}

	case domain.PhaseRest:
		if s.CurrentSet < cfg.Sets {
			next.Phase = domain.PhaseSprint
			next.TimeLeft = cfg.Sprint
			next.CurrentSet = s.CurrentSet + 1
			return next, []domain.Event{domain.EnteredSprint(next.CurrentSet)}
		}
		next.Phase = domain.PhaseCooldown
		next.TimeLeft = cfg.Cooldown
		return next, []domain.Event{domain.EnteredCooldown()}

	case domain.PhaseCooldown:
		next.Phase = domain.PhaseIdle
		next.TimeLeft = cfg.Warmup
		next.CurrentSet = 0
		return next, []domain.Event{domain.SessionCompleted()}

	default:
		panic(fmt.Sprintf("workout: advance from unknown phase %d", int(s.Phase)))
	}
}
