package effects

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// ErrNoTerminal is returned by Bell.Prepare when its writer is not a terminal
var ErrNoTerminal = errors.New("bell output is not a terminal")

// Bell is an AudioAlert that rings the terminal bell. The frequency is
// ignored; tones of half a second or longer ring twice.
type Bell struct {
	mu       sync.Mutex
	w        io.Writer
	terminal bool
	ready    bool
}

// NewBell rings on f when it is a terminal
func NewBell(f *os.File) *Bell {
	fd := f.Fd()
	return &Bell{
		w:        f,
		terminal: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// NewBellWriter rings on w unconditionally; used for tests and pipes
func NewBellWriter(w io.Writer) *Bell {
	return &Bell{w: w, terminal: true}
}

// Prepare acquires the bell. Until then Play is silent. It is called on every
// start and resume and is not undone by a pause.
func (b *Bell) Prepare() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.terminal {
		return ErrNoTerminal
	}
	b.ready = true
	return nil
}

func (b *Bell) Play(_ float64, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		return
	}
	rings := 1
	if duration >= 500*time.Millisecond {
		rings = 2
	}
	_, _ = io.WriteString(b.w, strings.Repeat("\a", rings))
}
