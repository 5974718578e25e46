package domain

import "fmt"

// Affordance tells a UI which start action to offer
type Affordance string

const (
	AffordanceStart   Affordance = "start"
	AffordanceResume  Affordance = "resume"
	AffordanceRestart Affordance = "restart"
)

// Snapshot is the read-only view of a session handed to projectors after
// every committed state change.
type Snapshot struct {
	SessionID  string `json:"session_id,omitempty"`
	Phase      Phase  `json:"phase"`
	TimeLeft   int    `json:"time_left"`
	Duration   int    `json:"duration"`
	CurrentSet int    `json:"current_set"`
	TotalSets  int    `json:"total_sets"`
	Running    bool   `json:"running"`
	Completed  bool   `json:"completed,omitempty"` // last reset ended a finished session
}

// Progress is the fraction of the current phase still remaining, in [0,1]
func (s Snapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.TimeLeft) / float64(s.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Affordance returns the start action a UI should present while not running
func (s Snapshot) Affordance() Affordance {
	switch {
	case s.Running:
		return ""
	case s.Phase != PhaseIdle:
		return AffordanceResume
	case s.Completed:
		return AffordanceRestart
	default:
		return AffordanceStart
	}
}

// SetCounter is the set display: "n/total", or FINISH during cooldown
func (s Snapshot) SetCounter() string {
	if s.Phase == PhaseCooldown {
		return "FINISH"
	}
	return fmt.Sprintf("%d/%d", s.CurrentSet, s.TotalSets)
}

// NextUp is a short hint about what the current phase leads into
func (s Snapshot) NextUp() string {
	switch s.Phase {
	case PhaseSprint:
		return "Push Hard!"
	case PhaseRest:
		if s.CurrentSet < s.TotalSets {
			return fmt.Sprintf("Next: Sprint %d", s.CurrentSet+1)
		}
		return "Next: Cooldown"
	case PhaseCooldown:
		return "Easy Spin"
	default:
		return fmt.Sprintf("Upcoming: %dx Sprints", s.TotalSets)
	}
}
