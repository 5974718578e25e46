package domain

import "time"

// SchemaVersion is stamped on every NDJSON record
const SchemaVersion = 1

// SessionStart is emitted when a fresh session leaves Idle
type SessionStart struct {
	Type          string `json:"type"`          // "session_start"
	SchemaVersion int    `json:"schemaVersion"` // 1
	SessionID     string `json:"session_id"`
	Warmup        int    `json:"warmup"`
	Sprint        int    `json:"sprint"`
	Rest          int    `json:"rest"`
	Cooldown      int    `json:"cooldown"`
	Sets          int    `json:"sets"`
	Timestamp     string `json:"timestamp"` // ISO8601 timestamp
}

// SessionEnd is emitted when a session completes or is cancelled
type SessionEnd struct {
	Type          string         `json:"type"` // "session_end"
	SchemaVersion int            `json:"schemaVersion"`
	SessionID     string         `json:"session_id"`
	Reason        string         `json:"reason"` // completed, cancelled
	Summary       SessionSummary `json:"summary"`
	Timestamp     string         `json:"timestamp"`
}

// SessionSummary contains statistics about a finished session
type SessionSummary struct {
	Ticks           int `json:"ticks"`
	Transitions     int `json:"transitions"`
	Warnings        int `json:"warnings"`
	Pauses          int `json:"pauses"`
	SetsCompleted   int `json:"sets_completed"`
	DurationSeconds int `json:"duration_seconds"` // wall clock, including pauses
}

const (
	EndReasonCompleted = "completed"
	EndReasonCancelled = "cancelled"
)

// Completed reports whether the session ran through its cooldown
func (e *SessionEnd) Completed() bool {
	return e != nil && e.Reason == EndReasonCompleted
}

// NewSessionStart creates a new SessionStart event
func NewSessionStart(sessionID string, warmup, sprint, rest, cooldown, sets int, at time.Time) *SessionStart {
	return &SessionStart{
		Type:          "session_start",
		SchemaVersion: SchemaVersion,
		SessionID:     sessionID,
		Warmup:        warmup,
		Sprint:        sprint,
		Rest:          rest,
		Cooldown:      cooldown,
		Sets:          sets,
		Timestamp:     at.UTC().Format(time.RFC3339),
	}
}

// NewSessionEnd creates a new SessionEnd event
func NewSessionEnd(sessionID, reason string, summary SessionSummary, at time.Time) *SessionEnd {
	return &SessionEnd{
		Type:          "session_end",
		SchemaVersion: SchemaVersion,
		SessionID:     sessionID,
		Reason:        reason,
		Summary:       summary,
		Timestamp:     at.UTC().Format(time.RFC3339),
	}
}
