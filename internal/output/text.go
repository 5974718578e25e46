package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/vburojevic/bmxt/internal/domain"
)

// TextWriter renders sessions as plain status lines. On a terminal the
// status line is redrawn in place; otherwise each snapshot gets its own line.
type TextWriter struct {
	mu      sync.Mutex
	w       io.Writer
	inPlace bool
	quiet   bool
	pending bool // a status line without a trailing newline is on screen
}

// NewTextWriter creates a text writer, redrawing in place when w is a terminal
func NewTextWriter(w io.Writer) *TextWriter {
	inPlace := false
	if f, ok := w.(*os.File); ok {
		inPlace = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &TextWriter{w: w, inPlace: inPlace}
}

// WithQuiet suppresses status lines; events and summaries are still written
func (t *TextWriter) WithQuiet(quiet bool) *TextWriter {
	t.quiet = quiet
	return t
}

// FormatClock renders seconds as MM:SS
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// StatusLine renders a snapshot as a single line
func StatusLine(s domain.Snapshot) string {
	label := s.Phase.Label()
	if s.Phase == domain.PhaseIdle {
		label = "READY"
	}
	line := fmt.Sprintf("%-9s %s  %s  %s", label, FormatClock(s.TimeLeft), s.SetCounter(), s.NextUp())
	if a := s.Affordance(); a != "" {
		line += fmt.Sprintf("  [%s]", a)
	}
	return line
}

func (t *TextWriter) Project(s domain.Snapshot) {
	if t.quiet {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inPlace {
		fmt.Fprintf(t.w, "\r\033[K%s", StatusLine(s))
		t.pending = true
		return
	}
	fmt.Fprintln(t.w, StatusLine(s))
}

func (t *TextWriter) ObserveEvent(e domain.Event, _ domain.Snapshot) {
	title, body, ok := e.Message()
	if !ok {
		return
	}
	t.line(fmt.Sprintf(">> %s  %s", title, body))
}

func (t *TextWriter) SessionStarted(start *domain.SessionStart) {
	t.line(fmt.Sprintf("Session %s: warmup %ds, %d x (%ds sprint / %ds rest), cooldown %ds",
		start.SessionID, start.Warmup, start.Sets, start.Sprint, start.Rest, start.Cooldown))
}

func (t *TextWriter) SessionEnded(end *domain.SessionEnd) {
	s := end.Summary
	t.line(fmt.Sprintf("Session %s %s: %d sets, %d pauses, %s elapsed",
		end.SessionID, end.Reason, s.SetsCompleted, s.Pauses, FormatClock(s.DurationSeconds)))
}

// Line writes a free-form message, moving past any in-place status line
func (t *TextWriter) Line(msg string) {
	t.line(msg)
}

func (t *TextWriter) line(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending {
		fmt.Fprintln(t.w)
		t.pending = false
	}
	fmt.Fprintln(t.w, msg)
}
