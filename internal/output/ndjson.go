package output

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/vburojevic/bmxt/internal/domain"
)

// SchemaVersion is re-exported for callers that only import output
const SchemaVersion = domain.SchemaVersion

// ErrorOutput represents an error record
type ErrorOutput struct {
	Type          string `json:"type"` // "error"
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// Warning represents a non-fatal problem
type Warning struct {
	Type          string `json:"type"` // "warning"
	SchemaVersion int    `json:"schemaVersion"`
	SessionID     string `json:"session_id,omitempty"`
	Message       string `json:"message"`
}

// Ready is emitted once the run command is accepting ticks
type Ready struct {
	Type          string `json:"type"` // "ready"
	SchemaVersion int    `json:"schemaVersion"`
	Timestamp     string `json:"timestamp"`
	Version       string `json:"version,omitempty"`
	Warmup        int    `json:"warmup"`
	Sprint        int    `json:"sprint"`
	Rest          int    `json:"rest"`
	Cooldown      int    `json:"cooldown"`
	Sets          int    `json:"sets"`
	TotalTicks    int    `json:"total_ticks"`
	TickInterval  string `json:"tick_interval"`
	Listen        string `json:"listen,omitempty"`
}

// TmuxOutput tells the caller where status lines are mirrored
type TmuxOutput struct {
	Type          string `json:"type"` // "tmux"
	SchemaVersion int    `json:"schemaVersion"`
	Session       string `json:"session"`
	Attach        string `json:"attach"`
}

// Segment is one row of a planned workout
type Segment struct {
	Type          string       `json:"type"` // "segment"
	SchemaVersion int          `json:"schemaVersion"`
	Index         int          `json:"index"`
	Phase         domain.Phase `json:"phase"`
	Set           int          `json:"set,omitempty"`
	Duration      int          `json:"duration"`
	Offset        int          `json:"offset"`
}

// NDJSONWriter writes newline-delimited JSON records. It is a session
// projector: snapshots become state records, events become event records.
type NDJSONWriter struct {
	mu    sync.Mutex
	w     io.Writer
	enc   *json.Encoder
	quiet bool
}

// NewNDJSONWriter creates a new NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{w: w, enc: json.NewEncoder(w)}
}

// WithQuiet drops per-tick state records, keeping events and boundaries
func (w *NDJSONWriter) WithQuiet(quiet bool) *NDJSONWriter {
	w.quiet = quiet
	return w
}

// Write encodes any value as one line
func (w *NDJSONWriter) Write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

// WriteError writes an error record
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	out := &ErrorOutput{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		out.Hint = hint[0]
	}
	return w.Write(out)
}

// WriteWarning writes a warning record
func (w *NDJSONWriter) WriteWarning(sessionID, message string) error {
	return w.Write(&Warning{
		Type:          "warning",
		SchemaVersion: SchemaVersion,
		SessionID:     sessionID,
		Message:       message,
	})
}

// WriteReady writes the ready record; Type and SchemaVersion are filled in
func (w *NDJSONWriter) WriteReady(r Ready) error {
	r.Type = "ready"
	r.SchemaVersion = SchemaVersion
	if r.Timestamp == "" {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return w.Write(&r)
}

// WriteTmux writes the tmux record
func (w *NDJSONWriter) WriteTmux(session, attach string) error {
	return w.Write(&TmuxOutput{
		Type:          "tmux",
		SchemaVersion: SchemaVersion,
		Session:       session,
		Attach:        attach,
	})
}

// WriteSegment writes one planned segment
func (w *NDJSONWriter) WriteSegment(index int, phase domain.Phase, set, duration, offset int) error {
	return w.Write(&Segment{
		Type:          "segment",
		SchemaVersion: SchemaVersion,
		Index:         index,
		Phase:         phase,
		Set:           set,
		Duration:      duration,
		Offset:        offset,
	})
}

func (w *NDJSONWriter) Project(s domain.Snapshot) {
	if w.quiet {
		return
	}
	_ = w.Write(domain.NewStateRecord(s))
}

func (w *NDJSONWriter) ObserveEvent(e domain.Event, s domain.Snapshot) {
	_ = w.Write(domain.NewEventRecord(e, s))
}

func (w *NDJSONWriter) SessionStarted(start *domain.SessionStart) {
	_ = w.Write(start)
}

func (w *NDJSONWriter) SessionEnded(end *domain.SessionEnd) {
	_ = w.Write(end)
}
