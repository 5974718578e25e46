package session

import (
	"errors"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vburojevic/bmxt/internal/domain"
	"github.com/vburojevic/bmxt/internal/ticker"
	"github.com/vburojevic/bmxt/internal/workout"
)

// ErrNoClock is returned when a Controller is built without a tick source
var ErrNoClock = errors.New("session: a tick clock is required")

// Effects receives every event a tick produces
type Effects interface {
	Prepare()
	Dispatch(e domain.Event)
}

// WakeLock keeps the host awake while a session is running
type WakeLock interface {
	Acquire()
	Release()
}

// Projector receives a snapshot after every committed state change
type Projector interface {
	Project(s domain.Snapshot)
}

// EventObserver is implemented by projectors that also want raw events.
// s is the snapshot after the tick that produced e.
type EventObserver interface {
	ObserveEvent(e domain.Event, s domain.Snapshot)
}

// SessionObserver is implemented by projectors that want session boundaries
type SessionObserver interface {
	SessionStarted(start *domain.SessionStart)
	SessionEnded(end *domain.SessionEnd)
}

// Options wires a Controller to its collaborators
type Options struct {
	Clock      ticker.Clock // required
	Time       clock.Clock  // timestamps; defaults to the wall clock
	Effects    Effects
	WakeLock   WakeLock // held from Start until Pause, Reset or Close
	Projectors []Projector
	Logger     *zap.SugaredLogger
	NewID      func() string // session IDs; defaults to random UUIDs
}

// Controller owns the session state and serializes start, pause, reset and
// tick. Each operation holds the lock for its whole duration.
type Controller struct {
	mu         sync.Mutex
	cfg        workout.Config
	clock      ticker.Clock
	now        clock.Clock
	effects    Effects
	wake       WakeLock
	projectors []Projector
	log        *zap.SugaredLogger
	newID      func() string
	tracker    *Tracker

	state     workout.State
	completed bool

	// gen identifies the live clock subscription; ticks from older
	// subscriptions are dropped.
	gen        uint64
	handle     ticker.Handle
	subscribed bool

	subs    map[int]chan domain.Snapshot
	nextSub int
	closed  bool
}

// NewController creates an idle Controller
func NewController(cfg workout.Config, opts Options) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		return nil, ErrNoClock
	}
	if opts.Time == nil {
		opts.Time = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Controller{
		cfg:        cfg,
		clock:      opts.Clock,
		now:        opts.Time,
		effects:    opts.Effects,
		wake:       opts.WakeLock,
		projectors: opts.Projectors,
		log:        opts.Logger,
		newID:      opts.NewID,
		tracker:    NewTracker(),
		state:      workout.Initial(cfg),
		subs:       make(map[int]chan domain.Snapshot),
	}, nil
}

// Config returns the workout configuration
func (c *Controller) Config() workout.Config {
	return c.cfg
}

// Start begins a fresh session from Idle or resumes a paused one. It does
// nothing while already running.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Running {
		return
	}

	if c.state.Phase == domain.PhaseIdle {
		c.state = workout.State{Phase: domain.PhaseWarmup, TimeLeft: c.cfg.Warmup}
		c.completed = false

		id := c.newID()
		now := c.now.Now()
		c.tracker.Begin(id, now)
		start := domain.NewSessionStart(id, c.cfg.Warmup, c.cfg.Sprint, c.cfg.Rest, c.cfg.Cooldown, c.cfg.Sets, now)
		for _, p := range c.projectors {
			if o, ok := p.(SessionObserver); ok {
				o.SessionStarted(start)
			}
		}
		c.log.Debugw("session started", "session_id", id)
	} else {
		c.log.Debugw("session resumed", "phase", c.state.Phase.String(), "time_left", c.state.TimeLeft, "set", c.state.CurrentSet)
	}

	c.state.Running = true
	c.subscribeLocked()
	if c.effects != nil {
		c.effects.Prepare()
	}
	if c.wake != nil {
		c.wake.Acquire()
	}
	c.publishLocked(c.snapshotLocked())
}

// Pause stops the countdown, keeping phase, time left and set untouched
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Running {
		return
	}
	c.unsubscribeLocked()
	c.releaseLocked()
	c.state.Running = false
	c.tracker.RecordPause()
	c.log.Debugw("session paused", "phase", c.state.Phase.String(), "time_left", c.state.TimeLeft)
	c.publishLocked(c.snapshotLocked())
}

// Reset returns to Idle. completed only changes what the next start is
// labelled as.
func (c *Controller) Reset(completed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	end := c.resetLocked(completed)
	c.endLocked(end)
	c.publishLocked(c.snapshotLocked())
}

// Snapshot returns the current read-only view
func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns a copy of the session state
func (c *Controller) State() workout.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Summary returns statistics for the current session
func (c *Controller) Summary() domain.SessionSummary {
	return c.tracker.Summary(c.now.Now())
}

// Subscribe returns a channel of snapshots and a cancel func. Slow readers
// miss snapshots rather than block the session.
func (c *Controller) Subscribe(buffer int) (<-chan domain.Snapshot, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan domain.Snapshot, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Close stops the clock and closes all subscriber channels. The session
// state is left as is.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.unsubscribeLocked()
	c.releaseLocked()
	c.state.Running = false
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Running || gen != c.gen {
		return
	}

	var events []domain.Event
	if c.state.TimeLeft > 0 {
		if c.state.TimeLeft <= 3 {
			events = append(events, domain.CountdownWarning(c.state.TimeLeft))
		}
		c.state.TimeLeft--
	} else {
		c.state, events = workout.Advance(c.state, c.cfg)
	}
	c.tracker.RecordTick(events)

	var end *domain.SessionEnd
	for _, e := range events {
		if e.IsTransition() {
			c.log.Debugw("transition", "event", e.String(), "phase", c.state.Phase.String(), "set", c.state.CurrentSet)
		}
		if e.Kind == domain.EventSessionCompleted {
			end = c.resetLocked(true)
		}
	}

	snap := c.snapshotLocked()
	for _, e := range events {
		if c.effects != nil {
			c.effects.Dispatch(e)
		}
		for _, p := range c.projectors {
			if o, ok := p.(EventObserver); ok {
				o.ObserveEvent(e, snap)
			}
		}
	}
	c.endLocked(end)
	c.publishLocked(snap)
}

func (c *Controller) resetLocked(completed bool) *domain.SessionEnd {
	c.unsubscribeLocked()
	c.releaseLocked()
	c.state = workout.Initial(c.cfg)
	c.completed = completed

	reason := domain.EndReasonCancelled
	if completed {
		reason = domain.EndReasonCompleted
	}
	end := c.tracker.Finish(reason, c.now.Now())
	c.log.Debugw("session reset", "completed", completed)
	return end
}

func (c *Controller) releaseLocked() {
	if c.wake != nil && c.state.Running {
		c.wake.Release()
	}
}

func (c *Controller) endLocked(end *domain.SessionEnd) {
	if end == nil {
		return
	}
	for _, p := range c.projectors {
		if o, ok := p.(SessionObserver); ok {
			o.SessionEnded(end)
		}
	}
}

func (c *Controller) subscribeLocked() {
	if c.subscribed {
		return
	}
	c.gen++
	gen := c.gen
	c.handle = c.clock.Subscribe(func() { c.tick(gen) })
	c.subscribed = true
}

func (c *Controller) unsubscribeLocked() {
	if !c.subscribed {
		return
	}
	c.clock.Unsubscribe(c.handle)
	c.subscribed = false
	c.gen++
}

func (c *Controller) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		SessionID:  c.tracker.SessionID(),
		Phase:      c.state.Phase,
		TimeLeft:   c.state.TimeLeft,
		Duration:   c.cfg.Duration(c.state.Phase),
		CurrentSet: c.state.CurrentSet,
		TotalSets:  c.cfg.Sets,
		Running:    c.state.Running,
		Completed:  c.completed,
	}
}

func (c *Controller) publishLocked(s domain.Snapshot) {
	for _, p := range c.projectors {
		p.Project(s)
	}
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
