package workout

import "github.com/vburojevic/bmxt/internal/domain"

// Segment is one phase of the canonical session sequence
type Segment struct {
	Index    int          `json:"index"`
	Phase    domain.Phase `json:"phase"`
	Set      int          `json:"set,omitempty"`
	Duration int          `json:"duration"`
	// Offset is the tick on which the segment begins, counting the
	// one-tick stall that precedes every transition.
	Offset int `json:"offset"`
}

// Schedule expands cfg into Warmup, Sprint(1), Rest(1) ... Sprint(n), Rest(n), Cooldown
func Schedule(cfg Config) []Segment {
	segments := make([]Segment, 0, segmentCount(cfg))
	add := func(p domain.Phase, set int) {
		segments = append(segments, Segment{Index: len(segments), Phase: p, Set: set, Duration: cfg.Duration(p)})
	}

	add(domain.PhaseWarmup, 0)
	for set := 1; set <= cfg.Sets; set++ {
		add(domain.PhaseSprint, set)
		add(domain.PhaseRest, set)
	}
	add(domain.PhaseCooldown, cfg.Sets)

	offset := 0
	for i := range segments {
		segments[i].Offset = offset
		offset += segments[i].Duration + 1
	}
	return segments
}

// ActiveSeconds is the countdown time of a full session, excluding stalls
func ActiveSeconds(cfg Config) int {
	return cfg.Warmup + cfg.Sets*(cfg.Sprint+cfg.Rest) + cfg.Cooldown
}

// TotalTicks is the number of ticks from Start until the session returns to
// Idle: every phase second plus one stall tick per segment.
func TotalTicks(cfg Config) int {
	return ActiveSeconds(cfg) + segmentCount(cfg)
}

// segmentCount is len(Schedule(cfg)) without building it
func segmentCount(cfg Config) int {
	return 2*cfg.Sets + 2
}
