package session

import (
	"sync"
	"time"

	"github.com/vburojevic/bmxt/internal/domain"
)

// Tracker accumulates statistics for the session in progress
type Tracker struct {
	mu          sync.Mutex
	sessionID   string
	started     time.Time
	ticks       int
	transitions int
	warnings    int
	pauses      int
	sets        int
	active      bool
}

// NewTracker creates an idle tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin starts tracking a fresh session
func (t *Tracker) Begin(sessionID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = sessionID
	t.started = now
	t.ticks, t.transitions, t.warnings, t.pauses, t.sets = 0, 0, 0, 0, 0
	t.active = true
}

// RecordTick counts one tick and the events it produced
func (t *Tracker) RecordTick(events []domain.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.ticks++
	for _, e := range events {
		switch e.Kind {
		case domain.EventCountdownWarning:
			t.warnings++
		case domain.EventEnteredRest:
			// a set counts once its sprint is done
			t.sets = e.Set
			t.transitions++
		default:
			t.transitions++
		}
	}
}

// RecordPause counts a pause of the current session
func (t *Tracker) RecordPause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		t.pauses++
	}
}

// Finish closes the session and returns its end record, or nil when no
// session was being tracked.
func (t *Tracker) Finish(reason string, now time.Time) *domain.SessionEnd {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return nil
	}
	t.active = false
	return domain.NewSessionEnd(t.sessionID, reason, t.summaryLocked(now), now)
}

// Summary returns statistics for the session so far
func (t *Tracker) Summary(now time.Time) domain.SessionSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summaryLocked(now)
}

// SessionID returns the current (or last) session ID
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

func (t *Tracker) summaryLocked(now time.Time) domain.SessionSummary {
	duration := 0
	if !t.started.IsZero() {
		duration = int(now.Sub(t.started).Seconds())
	}
	return domain.SessionSummary{
		Ticks:           t.ticks,
		Transitions:     t.transitions,
		Warnings:        t.warnings,
		Pauses:          t.pauses,
		SetsCompleted:   t.sets,
		DurationSeconds: duration,
	}
}
