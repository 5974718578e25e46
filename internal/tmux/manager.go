package tmux

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/GianlucaP106/gotmux/gotmux"
)

var (
	ErrTmuxUnavailable = errors.New("tmux is not installed")
	ErrNoPaneAvailable = errors.New("tmux session has not been created")
)

// Config configures the mirrored session
type Config struct {
	SessionName string
	// Detached sessions outlive the process so they can be attached later
	Detached bool
}

// commander is the part of *gotmux.Tmux the manager uses. Pane output has
// no typed equivalent and goes through Command.
type commander interface {
	HasSession(name string) bool
	NewSession(op *gotmux.SessionOptions) (*gotmux.Session, error)
	Command(args ...string) (string, error)
}

// Manager owns one tmux session whose first pane mirrors status lines
type Manager struct {
	mu      sync.Mutex
	config  *Config
	tmux    commander
	created bool // session was created by us
	ready   bool
}

// IsTmuxAvailable reports whether a tmux binary is on PATH
func IsTmuxAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

var unsafeSessionChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// GenerateSessionName builds a session name from an optional label
func GenerateSessionName(label string) string {
	label = strings.Trim(unsafeSessionChars.ReplaceAllString(strings.ToLower(label), "-"), "-")
	if label == "" {
		return "bmxt"
	}
	return "bmxt-" + label
}

// NewManager connects to the default tmux server
func NewManager(cfg *Config) (*Manager, error) {
	if !IsTmuxAvailable() {
		return nil, ErrTmuxUnavailable
	}
	t, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tmux: %w", err)
	}
	return newManager(cfg, t), nil
}

func newManager(cfg *Config, t commander) *Manager {
	if cfg.SessionName == "" {
		cfg.SessionName = GenerateSessionName("")
	}
	return &Manager{config: cfg, tmux: t}
}

// GetOrCreateSession reuses the named session or creates it detached
func (m *Manager) GetOrCreateSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := m.config.SessionName
	if m.tmux.HasSession(name) {
		m.ready = true
		return nil
	}
	if _, err := m.tmux.NewSession(&gotmux.SessionOptions{Name: name}); err != nil {
		return fmt.Errorf("failed to create tmux session %q: %w", name, err)
	}
	m.created = true
	m.ready = true
	return nil
}

// SessionName returns the tmux session name
func (m *Manager) SessionName() string {
	return m.config.SessionName
}

// AttachCommand returns the shell command that attaches to the session
func (m *Manager) AttachCommand() string {
	return fmt.Sprintf("tmux attach -t %s", m.config.SessionName)
}

// Cleanup kills the session if we created it and it is not detached
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.created && !m.config.Detached {
		_, _ = m.tmux.Command("kill-session", "-t", m.config.SessionName)
	}
	m.ready = false
}

func (m *Manager) paneTarget() string {
	return fmt.Sprintf("%s:0.0", m.config.SessionName)
}
