package workout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/bmxt/internal/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Config{Warmup: 300, Sprint: 10, Rest: 50, Cooldown: 300, Sets: 10}, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"zero warmup", Config{Warmup: 0, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 1}, "warmup"},
		{"negative sprint", Config{Warmup: 1, Sprint: -1, Rest: 1, Cooldown: 1, Sets: 1}, "sprint"},
		{"zero rest", Config{Warmup: 1, Sprint: 1, Rest: 0, Cooldown: 1, Sets: 1}, "rest"},
		{"zero cooldown", Config{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 0, Sets: 1}, "cooldown"},
		{"no sets", Config{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 0}, "sets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	_, err := New(1, 1, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg, err := New(1, 2, 3, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Duration(domain.PhaseRest))
}

func TestDurationOfIdleIsWarmup(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Warmup, cfg.Duration(domain.PhaseIdle))
	assert.Panics(t, func() { cfg.Duration(domain.Phase(99)) })
}

func TestAdvanceTable(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name  string
		from  State
		want  State
		event domain.Event
	}{
		{
			name:  "warmup to first sprint",
			from:  State{Phase: domain.PhaseWarmup, Running: true},
			want:  State{Phase: domain.PhaseSprint, TimeLeft: 10, CurrentSet: 1, Running: true},
			event: domain.EnteredSprint(1),
		},
		{
			name:  "idle is treated like warmup",
			from:  State{Phase: domain.PhaseIdle},
			want:  State{Phase: domain.PhaseSprint, TimeLeft: 10, CurrentSet: 1},
			event: domain.EnteredSprint(1),
		},
		{
			name:  "sprint to rest keeps set",
			from:  State{Phase: domain.PhaseSprint, CurrentSet: 4, Running: true},
			want:  State{Phase: domain.PhaseRest, TimeLeft: 50, CurrentSet: 4, Running: true},
			event: domain.EnteredRest(4),
		},
		{
			name:  "rest to next sprint",
			from:  State{Phase: domain.PhaseRest, CurrentSet: 9, Running: true},
			want:  State{Phase: domain.PhaseSprint, TimeLeft: 10, CurrentSet: 10, Running: true},
			event: domain.EnteredSprint(10),
		},
		{
			name:  "last rest to cooldown",
			from:  State{Phase: domain.PhaseRest, CurrentSet: 10, Running: true},
			want:  State{Phase: domain.PhaseCooldown, TimeLeft: 300, CurrentSet: 10, Running: true},
			event: domain.EnteredCooldown(),
		},
		{
			name:  "cooldown completes",
			from:  State{Phase: domain.PhaseCooldown, CurrentSet: 10, Running: true},
			want:  State{Phase: domain.PhaseIdle, TimeLeft: 300, CurrentSet: 0, Running: true},
			event: domain.SessionCompleted(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, events := Advance(tt.from, cfg)
			assert.Equal(t, tt.want, got)
			require.Len(t, events, 1)
			assert.Equal(t, tt.event, events[0])
		})
	}
}

func TestAdvanceWalksCanonicalSequence(t *testing.T) {
	cfg := Config{Warmup: 3, Sprint: 1, Rest: 2, Cooldown: 3, Sets: 3}
	schedule := Schedule(cfg)

	s := State{Phase: domain.PhaseWarmup, TimeLeft: cfg.Warmup}
	for i := 1; i < len(schedule); i++ {
		s, _ = Advance(s, cfg)
		assert.Equal(t, schedule[i].Phase, s.Phase, "segment %d", i)
		assert.Equal(t, schedule[i].Set, s.CurrentSet, "segment %d", i)
		assert.LessOrEqual(t, s.CurrentSet, cfg.Sets)
	}

	s, events := Advance(s, cfg)
	assert.Equal(t, domain.PhaseIdle, s.Phase)
	assert.Equal(t, []domain.Event{domain.SessionCompleted()}, events)
}

func TestAdvancePanicsOnUnknownPhase(t *testing.T) {
	assert.Panics(t, func() { Advance(State{Phase: domain.Phase(7)}, Default()) })
}

func TestSchedule(t *testing.T) {
	cfg := Config{Warmup: 5, Sprint: 2, Rest: 3, Cooldown: 4, Sets: 2}
	segments := Schedule(cfg)

	phases := make([]domain.Phase, 0, len(segments))
	for _, s := range segments {
		phases = append(phases, s.Phase)
	}
	assert.Equal(t, []domain.Phase{
		domain.PhaseWarmup,
		domain.PhaseSprint, domain.PhaseRest,
		domain.PhaseSprint, domain.PhaseRest,
		domain.PhaseCooldown,
	}, phases)

	assert.Equal(t, 0, segments[0].Offset)
	assert.Equal(t, 6, segments[1].Offset)
	assert.Equal(t, 9, segments[2].Offset)
	assert.Equal(t, 2, segments[4].Set)
}

func TestTotalTicks(t *testing.T) {
	cfg := Default()
	// warmup + sets*(sprint+rest) + cooldown + one stall per transition
	want := 300 + 10*(10+50) + 300 + (2*10 + 2)
	assert.Equal(t, want, TotalTicks(cfg))
	assert.Equal(t, 1200, ActiveSeconds(cfg))
}

func TestTotalsMatchSchedule(t *testing.T) {
	configs := []Config{
		{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 1},
		{Warmup: 5, Sprint: 2, Rest: 3, Cooldown: 4, Sets: 2},
		{Warmup: 4, Sprint: 3, Rest: 5, Cooldown: 2, Sets: 3},
		Default(),
	}
	for _, cfg := range configs {
		segments := Schedule(cfg)
		active := 0
		for _, s := range segments {
			active += s.Duration
		}
		last := segments[len(segments)-1]
		assert.Equal(t, active, ActiveSeconds(cfg), "%+v", cfg)
		assert.Equal(t, active+len(segments), TotalTicks(cfg), "%+v", cfg)
		assert.Equal(t, last.Offset+last.Duration+1, TotalTicks(cfg), "%+v", cfg)
	}
}

func TestTotalTicksWithManySets(t *testing.T) {
	cfg := Config{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 1 << 40}
	assert.Equal(t, 2+(1<<41)+(1<<41)+2, TotalTicks(cfg))
}
