package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/bmxt/internal/domain"
	"github.com/vburojevic/bmxt/internal/ticker"
	"github.com/vburojevic/bmxt/internal/workout"
)

type fakeEffects struct {
	prepared int
	events   []domain.Event
}

func (f *fakeEffects) Prepare()                { f.prepared++ }
func (f *fakeEffects) Dispatch(e domain.Event) { f.events = append(f.events, e) }

type recorder struct {
	snapshots []domain.Snapshot
	events    []domain.Event
	starts    []*domain.SessionStart
	ends      []*domain.SessionEnd
}

func (r *recorder) Project(s domain.Snapshot)                    { r.snapshots = append(r.snapshots, s) }
func (r *recorder) ObserveEvent(e domain.Event, _ domain.Snapshot) { r.events = append(r.events, e) }
func (r *recorder) SessionStarted(s *domain.SessionStart)          { r.starts = append(r.starts, s) }
func (r *recorder) SessionEnded(e *domain.SessionEnd)              { r.ends = append(r.ends, e) }

func (r *recorder) last() domain.Snapshot {
	return r.snapshots[len(r.snapshots)-1]
}

type harness struct {
	c       *Controller
	clk     *ticker.Manual
	wall    *clock.Mock
	effects *fakeEffects
	rec     *recorder
}

func newHarness(t *testing.T, cfg workout.Config) *harness {
	t.Helper()
	h := &harness{
		clk:     ticker.NewManual(),
		wall:    clock.NewMock(),
		effects: &fakeEffects{},
		rec:     &recorder{},
	}
	ids := 0
	c, err := NewController(cfg, Options{
		Clock:      h.clk,
		Time:       h.wall,
		Effects:    h.effects,
		Projectors: []Projector{h.rec},
		NewID: func() string {
			ids++
			return fmt.Sprintf("session-%d", ids)
		},
	})
	require.NoError(t, err)
	h.c = c
	return h
}

// tick fires the clock once and advances wall time by a second
func (h *harness) tick() {
	h.wall.Add(time.Second)
	h.clk.Fire()
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.tick()
	}
}

// tickUntil fires until the session state matches want
func (h *harness) tickUntil(t *testing.T, want workout.State) {
	t.Helper()
	for i := 0; i < 100000; i++ {
		if h.c.State() == want {
			return
		}
		h.tick()
	}
	t.Fatalf("never reached %+v, stuck at %+v", want, h.c.State())
}

func (h *harness) resetEvents() {
	h.effects.events = nil
}

func TestNewControllerValidates(t *testing.T) {
	_, err := NewController(workout.Config{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1}, Options{Clock: ticker.NewManual()})
	assert.ErrorIs(t, err, workout.ErrInvalidConfig)

	_, err = NewController(workout.Default(), Options{})
	assert.ErrorIs(t, err, ErrNoClock)
}

func TestInitialSnapshot(t *testing.T) {
	h := newHarness(t, workout.Default())

	s := h.c.Snapshot()
	assert.Equal(t, domain.PhaseIdle, s.Phase)
	assert.Equal(t, 300, s.TimeLeft)
	assert.Equal(t, 300, s.Duration)
	assert.Equal(t, 0, s.CurrentSet)
	assert.Equal(t, 10, s.TotalSets)
	assert.False(t, s.Running)
	assert.Equal(t, domain.AffordanceStart, s.Affordance())
	assert.Equal(t, 0, h.clk.Active())
}

func TestWarmupIntoFirstSprint(t *testing.T) {
	h := newHarness(t, workout.Default())

	h.c.Start()
	assert.Equal(t, workout.State{Phase: domain.PhaseWarmup, TimeLeft: 300, Running: true}, h.c.State())
	require.Len(t, h.rec.starts, 1)
	assert.Equal(t, "session-1", h.rec.starts[0].SessionID)

	h.ticks(300)
	assert.Equal(t, workout.State{Phase: domain.PhaseWarmup, TimeLeft: 0, Running: true}, h.c.State())

	h.resetEvents()
	h.tick()
	assert.Equal(t, workout.State{Phase: domain.PhaseSprint, TimeLeft: 10, CurrentSet: 1, Running: true}, h.c.State())
	assert.Equal(t, []domain.Event{domain.EnteredSprint(1)}, h.effects.events)
}

func TestCountdownWarningsBeforeRest(t *testing.T) {
	h := newHarness(t, workout.Default())
	h.c.Start()
	h.tickUntil(t, workout.State{Phase: domain.PhaseSprint, TimeLeft: 3, CurrentSet: 1, Running: true})

	h.resetEvents()
	for _, left := range []int{2, 1, 0} {
		h.tick()
		assert.Equal(t, left, h.c.State().TimeLeft)
	}
	assert.Equal(t, []domain.Event{
		domain.CountdownWarning(3),
		domain.CountdownWarning(2),
		domain.CountdownWarning(1),
	}, h.effects.events)

	h.resetEvents()
	h.tick()
	assert.Equal(t, workout.State{Phase: domain.PhaseRest, TimeLeft: 50, CurrentSet: 1, Running: true}, h.c.State())
	assert.Equal(t, []domain.Event{domain.EnteredRest(1)}, h.effects.events)
}

func TestLastSprintThenCooldown(t *testing.T) {
	cfg := workout.Config{Warmup: 2, Sprint: 1, Rest: 1, Cooldown: 2, Sets: 10}
	h := newHarness(t, cfg)
	h.c.Start()

	h.tickUntil(t, workout.State{Phase: domain.PhaseRest, TimeLeft: 0, CurrentSet: 9, Running: true})
	h.resetEvents()
	h.tick()
	assert.Equal(t, workout.State{Phase: domain.PhaseSprint, TimeLeft: 1, CurrentSet: 10, Running: true}, h.c.State())
	assert.Equal(t, []domain.Event{domain.EnteredSprint(10)}, h.effects.events)

	h.tickUntil(t, workout.State{Phase: domain.PhaseRest, TimeLeft: 0, CurrentSet: 10, Running: true})
	h.resetEvents()
	h.tick()
	assert.Equal(t, workout.State{Phase: domain.PhaseCooldown, TimeLeft: 2, CurrentSet: 10, Running: true}, h.c.State())
	assert.Equal(t, []domain.Event{domain.EnteredCooldown()}, h.effects.events)
}

func TestCooldownCompletesSession(t *testing.T) {
	cfg := workout.Config{Warmup: 3, Sprint: 1, Rest: 1, Cooldown: 2, Sets: 1}
	h := newHarness(t, cfg)
	h.c.Start()

	h.tickUntil(t, workout.State{Phase: domain.PhaseCooldown, TimeLeft: 0, CurrentSet: 1, Running: true})
	h.resetEvents()
	h.tick()

	assert.Equal(t, workout.State{Phase: domain.PhaseIdle, TimeLeft: 3, CurrentSet: 0, Running: false}, h.c.State())
	assert.Equal(t, []domain.Event{domain.SessionCompleted()}, h.effects.events)
	assert.Equal(t, 0, h.clk.Active(), "clock released on completion")

	s := h.rec.last()
	assert.True(t, s.Completed)
	assert.Equal(t, domain.AffordanceRestart, s.Affordance())

	require.Len(t, h.rec.ends, 1)
	assert.Equal(t, domain.EndReasonCompleted, h.rec.ends[0].Reason)
	assert.Equal(t, 1, h.rec.ends[0].Summary.SetsCompleted)

	// further ticks are ignored
	h.ticks(5)
	assert.Equal(t, domain.PhaseIdle, h.c.State().Phase)
}

func TestFullSessionTakesTotalTicks(t *testing.T) {
	configs := []workout.Config{
		{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 1},
		{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 2},
		{Warmup: 5, Sprint: 3, Rest: 4, Cooldown: 2, Sets: 3},
		workout.Default(),
	}
	for _, cfg := range configs {
		t.Run(fmt.Sprintf("%+v", cfg), func(t *testing.T) {
			h := newHarness(t, cfg)
			h.c.Start()

			total := workout.TotalTicks(cfg)
			h.ticks(total - 1)
			require.True(t, h.c.State().Running, "still running one tick before the end")
			assert.Equal(t, domain.PhaseCooldown, h.c.State().Phase)

			h.tick()
			assert.Equal(t, domain.PhaseIdle, h.c.State().Phase)
			assert.False(t, h.c.State().Running)
			require.Len(t, h.rec.ends, 1)
			assert.Equal(t, total, h.rec.ends[0].Summary.Ticks)
			assert.Equal(t, cfg.Sets, h.rec.ends[0].Summary.SetsCompleted)
		})
	}
}

func TestTransitionsFollowCanonicalOrder(t *testing.T) {
	cfg := workout.Config{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 3}
	h := newHarness(t, cfg)
	h.c.Start()
	h.ticks(workout.TotalTicks(cfg))

	var transitions []domain.Event
	for _, e := range h.effects.events {
		if e.IsTransition() {
			transitions = append(transitions, e)
		}
	}
	assert.Equal(t, []domain.Event{
		domain.EnteredSprint(1),
		domain.EnteredRest(1),
		domain.EnteredSprint(2),
		domain.EnteredRest(2),
		domain.EnteredSprint(3),
		domain.EnteredRest(3),
		domain.EnteredCooldown(),
		domain.SessionCompleted(),
	}, transitions)
	assert.Equal(t, h.effects.events, h.rec.events, "observers see the same events as effects")
}

func TestPauseFreezesState(t *testing.T) {
	h := newHarness(t, workout.Default())
	h.c.Start()
	h.ticks(10)

	h.c.Pause()
	paused := h.c.State()
	assert.Equal(t, workout.State{Phase: domain.PhaseWarmup, TimeLeft: 290, Running: false}, paused)
	assert.Equal(t, 0, h.clk.Active())
	assert.Equal(t, domain.AffordanceResume, h.rec.last().Affordance())

	h.ticks(20)
	assert.Equal(t, paused, h.c.State(), "no ticks while paused")

	h.c.Start()
	assert.Equal(t, 290, h.c.State().TimeLeft)
	assert.True(t, h.c.State().Running)
	assert.Len(t, h.rec.starts, 1, "resume is not a new session")
}

func TestPauseMidSprintKeepsSet(t *testing.T) {
	cfg := workout.Config{Warmup: 1, Sprint: 5, Rest: 5, Cooldown: 1, Sets: 4}
	h := newHarness(t, cfg)
	h.c.Start()
	h.tickUntil(t, workout.State{Phase: domain.PhaseSprint, TimeLeft: 4, CurrentSet: 2, Running: true})

	h.c.Pause()
	h.c.Start()
	h.tick()
	assert.Equal(t, workout.State{Phase: domain.PhaseSprint, TimeLeft: 3, CurrentSet: 2, Running: true}, h.c.State())
}

func TestStartIsIdempotentWhileRunning(t *testing.T) {
	h := newHarness(t, workout.Default())
	h.c.Start()
	h.c.Start()
	h.c.Start()

	assert.Equal(t, 1, h.clk.Active(), "one subscription")
	assert.Equal(t, 1, h.effects.prepared)
	assert.Len(t, h.rec.starts, 1)

	h.tick()
	assert.Equal(t, 299, h.c.State().TimeLeft, "one decrement per tick")
}

func TestPauseIsIdempotent(t *testing.T) {
	h := newHarness(t, workout.Default())
	h.c.Pause()
	assert.Empty(t, h.rec.snapshots)

	h.c.Start()
	h.c.Pause()
	h.c.Pause()
	assert.Equal(t, 1, h.c.Summary().Pauses)
}

func TestPrepareOnEveryStartAndResume(t *testing.T) {
	h := newHarness(t, workout.Default())
	h.c.Start()
	h.c.Pause()
	h.c.Start()
	h.c.Pause()
	h.c.Start()

	assert.Equal(t, 3, h.effects.prepared)
}

func TestResetCancelsSession(t *testing.T) {
	h := newHarness(t, workout.Default())
	h.c.Start()
	h.tickUntil(t, workout.State{Phase: domain.PhaseSprint, TimeLeft: 7, CurrentSet: 1, Running: true})

	h.c.Reset(false)
	assert.Equal(t, workout.Initial(workout.Default()), h.c.State())
	assert.Equal(t, 0, h.clk.Active())
	assert.Equal(t, domain.AffordanceStart, h.rec.last().Affordance())

	require.Len(t, h.rec.ends, 1)
	assert.Equal(t, domain.EndReasonCancelled, h.rec.ends[0].Reason)
	assert.Equal(t, "session-1", h.rec.ends[0].SessionID)

	h.ticks(3)
	assert.Equal(t, domain.PhaseIdle, h.c.State().Phase)
}

func TestResetWhileIdleEndsNothing(t *testing.T) {
	h := newHarness(t, workout.Default())
	h.c.Reset(false)
	h.c.Reset(true)

	assert.Empty(t, h.rec.ends)
	assert.True(t, h.rec.last().Completed)
	assert.Equal(t, domain.AffordanceRestart, h.rec.last().Affordance())
}

func TestRestartAfterCompletion(t *testing.T) {
	cfg := workout.Config{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 1}
	h := newHarness(t, cfg)
	h.c.Start()
	h.ticks(workout.TotalTicks(cfg))
	require.True(t, h.c.Snapshot().Completed)

	h.c.Start()
	s := h.c.Snapshot()
	assert.Equal(t, domain.PhaseWarmup, s.Phase)
	assert.False(t, s.Completed)
	assert.Equal(t, "session-2", s.SessionID)
	require.Len(t, h.rec.starts, 2)
}

func TestSessionSummaryCounts(t *testing.T) {
	cfg := workout.Config{Warmup: 4, Sprint: 2, Rest: 2, Cooldown: 2, Sets: 2}
	h := newHarness(t, cfg)
	h.c.Start()
	h.ticks(2)
	h.c.Pause()
	h.wall.Add(30 * time.Second)
	h.c.Start()
	h.ticks(workout.TotalTicks(cfg) - 2)

	require.Len(t, h.rec.ends, 1)
	sum := h.rec.ends[0].Summary
	assert.Equal(t, workout.TotalTicks(cfg), sum.Ticks)
	assert.Equal(t, 1, sum.Pauses)
	assert.Equal(t, 6, sum.Transitions)
	assert.Equal(t, 2, sum.SetsCompleted)
	assert.Equal(t, workout.TotalTicks(cfg)+30, sum.DurationSeconds)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	h := newHarness(t, workout.Default())
	ch, cancel := h.c.Subscribe(4)

	h.c.Start()
	h.tick()

	s := <-ch
	assert.Equal(t, 300, s.TimeLeft)
	assert.True(t, s.Running)
	s = <-ch
	assert.Equal(t, 299, s.TimeLeft)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.NotPanics(t, cancel)
}

func TestSubscribeDropsForSlowReaders(t *testing.T) {
	h := newHarness(t, workout.Default())
	_, cancel := h.c.Subscribe(1)
	defer cancel()

	h.c.Start()
	assert.NotPanics(t, func() { h.ticks(10) })
	assert.Equal(t, 290, h.c.State().TimeLeft)
}

func TestCloseStopsEverything(t *testing.T) {
	h := newHarness(t, workout.Default())
	ch, _ := h.c.Subscribe(1)
	h.c.Start()
	<-ch

	h.c.Close()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.clk.Active())

	h.c.Start()
	assert.False(t, h.c.State().Running)
	h.c.Close()
}

func TestStaleTickIsIgnored(t *testing.T) {
	h := newHarness(t, workout.Default())
	h.c.Start()
	stale := h.c.gen

	h.c.Pause()
	h.c.Start()
	h.c.tick(stale)
	assert.Equal(t, 300, h.c.State().TimeLeft)

	h.tick()
	assert.Equal(t, 299, h.c.State().TimeLeft)
}

func TestControllerWithRealTicker(t *testing.T) {
	mock := clock.NewMock()
	tk := ticker.New(mock, time.Second)
	c, err := NewController(workout.Config{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 1}, Options{Clock: tk})
	require.NoError(t, err)
	defer c.Close()

	ch, cancel := c.Subscribe(64)
	defer cancel()
	c.Start()

	done := false
	for i := 0; i < 50 && !done; i++ {
		mock.Add(time.Second)
		select {
		case s := <-ch:
			done = s.Completed
		case <-time.After(50 * time.Millisecond):
		}
	}
	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.Completed && !s.Running
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, tk.Active())
}

func TestInvariantsHoldOnEveryTick(t *testing.T) {
	configs := []workout.Config{
		{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 1},
		{Warmup: 4, Sprint: 3, Rest: 5, Cooldown: 2, Sets: 3},
		{Warmup: 2, Sprint: 6, Rest: 1, Cooldown: 4, Sets: 5},
		workout.Default(),
	}
	for _, cfg := range configs {
		t.Run(fmt.Sprintf("%+v", cfg), func(t *testing.T) {
			h := newHarness(t, cfg)
			h.c.Start()

			prev := h.c.State()
			for i := 1; i <= workout.TotalTicks(cfg); i++ {
				h.tick()
				s := h.c.State()

				assert.GreaterOrEqual(t, s.TimeLeft, 0, "tick %d", i)
				assert.LessOrEqual(t, s.TimeLeft, cfg.Duration(s.Phase), "tick %d", i)
				assert.GreaterOrEqual(t, s.CurrentSet, 0, "tick %d", i)
				assert.LessOrEqual(t, s.CurrentSet, cfg.Sets, "tick %d", i)

				if s.CurrentSet != prev.CurrentSet {
					switch {
					case prev.Phase == domain.PhaseWarmup && s.Phase == domain.PhaseSprint:
						assert.Equal(t, 1, s.CurrentSet, "tick %d: first sprint", i)
					case prev.Phase == domain.PhaseRest && s.Phase == domain.PhaseSprint:
						assert.Equal(t, prev.CurrentSet+1, s.CurrentSet, "tick %d: next sprint", i)
					case s.Phase == domain.PhaseIdle:
						assert.Equal(t, 0, s.CurrentSet, "tick %d: completion resets", i)
					default:
						t.Errorf("tick %d: set changed %d -> %d on %s -> %s", i, prev.CurrentSet, s.CurrentSet, prev.Phase, s.Phase)
					}
				}
				if s.Phase != prev.Phase {
					assert.Equal(t, 0, prev.TimeLeft, "tick %d: phases change only from zero", i)
				}
				prev = s
			}
			assert.Equal(t, domain.PhaseIdle, prev.Phase)
			assert.False(t, prev.Running)
		})
	}
}

type fakeWakeLock struct {
	held     bool
	acquired int
	released int
}

func (w *fakeWakeLock) Acquire() {
	w.held = true
	w.acquired++
}

func (w *fakeWakeLock) Release() {
	w.held = false
	w.released++
}

func TestWakeLockFollowsRunning(t *testing.T) {
	cfg := workout.Config{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 1}
	wake := &fakeWakeLock{}
	c, err := NewController(cfg, Options{Clock: ticker.NewManual(), WakeLock: wake})
	require.NoError(t, err)

	c.Start()
	c.Start()
	assert.True(t, wake.held)
	assert.Equal(t, 1, wake.acquired, "duplicate start does not reacquire")

	c.Pause()
	assert.False(t, wake.held)
	c.Reset(false)
	assert.Equal(t, 1, wake.released, "paused session already released")

	c.Start()
	c.Reset(false)
	assert.False(t, wake.held)
	assert.Equal(t, 2, wake.released)

	c.Start()
	c.Close()
	assert.False(t, wake.held)
	assert.Equal(t, 3, wake.acquired)
	assert.Equal(t, 3, wake.released)
}

func TestWakeLockReleasedOnCompletion(t *testing.T) {
	cfg := workout.Config{Warmup: 1, Sprint: 1, Rest: 1, Cooldown: 1, Sets: 1}
	clk := ticker.NewManual()
	wake := &fakeWakeLock{}
	c, err := NewController(cfg, Options{Clock: clk, WakeLock: wake})
	require.NoError(t, err)

	c.Start()
	for i := 0; i < workout.TotalTicks(cfg); i++ {
		clk.Fire()
	}
	assert.Equal(t, domain.PhaseIdle, c.State().Phase)
	assert.False(t, wake.held)
	assert.Equal(t, 1, wake.released)
}
