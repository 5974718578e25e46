package effects

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Inhibitor is a wake lock backed by a long-running shell command such as
// `caffeinate -d` or `systemd-inhibit --what=idle sleep infinity`. The
// command is started on Acquire and killed on Release.
type Inhibitor struct {
	command string
	log     *zap.SugaredLogger
	run     func(ctx context.Context, command string, env []string) error

	// OnError, if set, is told when the command exits on its own with an error
	OnError func(command string, err error)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewInhibitor creates an Inhibitor. An empty command makes it a no-op.
func NewInhibitor(command string, log *zap.SugaredLogger) *Inhibitor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Inhibitor{command: strings.TrimSpace(command), log: log, run: runShell}
}

// Acquire starts the command unless it is already held
func (i *Inhibitor) Acquire() {
	if i.command == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	i.cancel = cancel
	env := append(os.Environ(), "BMXT_HOOK=inhibit")

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		err := i.run(ctx, i.command, env)
		if err != nil && ctx.Err() == nil {
			i.log.Debugw("inhibit command exited", "command", i.command, "error", err)
			if i.OnError != nil {
				i.OnError(i.command, err)
			}
		}
	}()
	i.log.Debugw("wake lock acquired", "command", i.command)
}

// Release kills the command. It does not wait for it to exit.
func (i *Inhibitor) Release() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cancel == nil {
		return
	}
	i.cancel()
	i.cancel = nil
	i.log.Debugw("wake lock released")
}

// Held reports whether the command has been started and not released
func (i *Inhibitor) Held() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cancel != nil
}

// Wait blocks until every started command has exited
func (i *Inhibitor) Wait() {
	i.wg.Wait()
}
