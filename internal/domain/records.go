package domain

// StateRecord carries a Snapshot as an NDJSON line
type StateRecord struct {
	Type          string `json:"type"` // "state"
	SchemaVersion int    `json:"schemaVersion"`
	Snapshot
	Progress   float64    `json:"progress"`
	SetCounter string     `json:"set_counter"`
	NextUp     string     `json:"next_up"`
	Affordance Affordance `json:"affordance,omitempty"`
}

// EventRecord describes a transition or countdown warning
type EventRecord struct {
	Type          string    `json:"type"` // "event"
	SchemaVersion int       `json:"schemaVersion"`
	SessionID     string    `json:"session_id,omitempty"`
	Event         EventKind `json:"event"`
	Set           int       `json:"set,omitempty"`
	SecondsLeft   int       `json:"seconds_left,omitempty"`
	Title         string    `json:"title,omitempty"`
	Body          string    `json:"body,omitempty"`
	Phase         Phase     `json:"phase"` // phase after the event
}

// NewStateRecord wraps a snapshot for output
func NewStateRecord(s Snapshot) *StateRecord {
	return &StateRecord{
		Type:          "state",
		SchemaVersion: SchemaVersion,
		Snapshot:      s,
		Progress:      s.Progress(),
		SetCounter:    s.SetCounter(),
		NextUp:        s.NextUp(),
		Affordance:    s.Affordance(),
	}
}

// NewEventRecord describes e as observed with the post-event snapshot s
func NewEventRecord(e Event, s Snapshot) *EventRecord {
	title, body, _ := e.Message()
	return &EventRecord{
		Type:          "event",
		SchemaVersion: SchemaVersion,
		SessionID:     s.SessionID,
		Event:         e.Kind,
		Set:           e.Set,
		SecondsLeft:   e.SecondsLeft,
		Title:         title,
		Body:          body,
		Phase:         s.Phase,
	}
}
