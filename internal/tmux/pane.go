package tmux

import (
	"fmt"
	"io"
	"strings"

	"github.com/vburojevic/bmxt/internal/domain"
)

// ClearPane clears the pane content and scrollback history
func (m *Manager) ClearPane() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return ErrNoPaneAvailable
	}

	if _, err := m.tmux.Command("send-keys", "-t", m.paneTarget(), "-R"); err != nil {
		return fmt.Errorf("failed to reset terminal: %w", err)
	}
	if _, err := m.tmux.Command("clear-history", "-t", m.paneTarget()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	if _, err := m.tmux.Command("send-keys", "-t", m.paneTarget(), "clear", "Enter"); err != nil {
		return fmt.Errorf("failed to clear screen: %w", err)
	}
	return nil
}

// ClearPaneWithBanner clears the pane and shows the planned workout
func (m *Manager) ClearPaneWithBanner(start *domain.SessionStart) error {
	if err := m.ClearPane(); err != nil {
		return err
	}
	banner := fmt.Sprintf(
		"=============================================\n"+
			"  bmxt %s\n"+
			"  warmup %ds | %d x %ds/%ds | cooldown %ds\n"+
			"=============================================",
		start.SessionID,
		start.Warmup, start.Sets, start.Sprint, start.Rest, start.Cooldown,
	)
	return m.WriteLines(strings.Split(banner, "\n"))
}

// WriteLine echoes a single line into the pane
func (m *Manager) WriteLine(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return ErrNoPaneAvailable
	}
	_, err := m.tmux.Command("send-keys", "-t", m.paneTarget(), fmt.Sprintf("echo '%s'", escapeTmuxString(line)), "Enter")
	return err
}

// WriteLines writes multiple lines, stopping at the first failure
func (m *Manager) WriteLines(lines []string) error {
	for _, line := range lines {
		if err := m.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

// escapeTmuxString quotes s for the single-quoted echo in WriteLine
func escapeTmuxString(s string) string {
	return strings.ReplaceAll(s, "'", `'"'"'`)
}

// Writer is an io.Writer that mirrors complete lines into the pane
type Writer struct {
	manager *Manager
	buffer  strings.Builder
}

func NewWriter(manager *Manager) *Writer {
	return &Writer{manager: manager}
}

func (w *Writer) Write(p []byte) (n int, err error) {
	w.buffer.Write(p)

	content := w.buffer.String()
	lines := strings.Split(content, "\n")
	w.buffer.Reset()
	if !strings.HasSuffix(content, "\n") {
		w.buffer.WriteString(lines[len(lines)-1])
	}
	lines = lines[:len(lines)-1]

	for _, line := range lines {
		// in-place redraws are flattened to their last frame
		if i := strings.LastIndex(line, "\r"); i >= 0 {
			line = line[i+1:]
		}
		if line == "" {
			continue
		}
		if err := w.manager.WriteLine(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush writes any remaining buffered content
func (w *Writer) Flush() error {
	if w.buffer.Len() == 0 {
		return nil
	}
	err := w.manager.WriteLine(w.buffer.String())
	w.buffer.Reset()
	return err
}

var _ io.Writer = (*Writer)(nil)
