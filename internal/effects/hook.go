package effects

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Background modes for HookBridge.IsBackgrounded
const (
	BackgroundAuto   = "auto"
	BackgroundAlways = "always"
	BackgroundNever  = "never"
)

// DefaultHookTimeout bounds a notify or vibrate command when no timeout is set
const DefaultHookTimeout = 5 * time.Second

// HookConfig configures the shell commands a HookBridge runs
type HookConfig struct {
	NotifyCommand  string
	VibrateCommand string
	Background     string
	Timeout        time.Duration
}

// HookBridge is a NotificationBridge that runs shell commands, e.g.
// notify-send or osascript. Commands run in the background so callers never
// wait on them.
type HookBridge struct {
	cfg        HookConfig
	foreground func() bool
	log        *zap.SugaredLogger
	run        func(ctx context.Context, command string, env []string) error

	// OnError, if set, is told about commands that fail
	OnError func(command string, err error)

	wg sync.WaitGroup
}

// NewHookBridge creates a HookBridge. In auto mode the process counts as
// backgrounded when stdout is not a terminal.
func NewHookBridge(cfg HookConfig, log *zap.SugaredLogger) *HookBridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHookTimeout
	}
	if cfg.Background == "" {
		cfg.Background = BackgroundAuto
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &HookBridge{
		cfg: cfg,
		foreground: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd())
		},
		log: log,
		run: runShell,
	}
}

func (h *HookBridge) PermissionGranted() bool {
	return strings.TrimSpace(h.cfg.NotifyCommand) != ""
}

func (h *HookBridge) IsBackgrounded() bool {
	switch h.cfg.Background {
	case BackgroundAlways:
		return true
	case BackgroundNever:
		return false
	default:
		return !h.foreground()
	}
}

func (h *HookBridge) Notify(title, body string) {
	h.spawn(h.cfg.NotifyCommand, "notify",
		"BMXT_TITLE="+title,
		"BMXT_BODY="+body,
	)
}

func (h *HookBridge) Vibrate(pattern []time.Duration) {
	ms := lo.Map(pattern, func(d time.Duration, _ int) string {
		return strconv.FormatInt(d.Milliseconds(), 10)
	})
	h.spawn(h.cfg.VibrateCommand, "vibrate",
		"BMXT_PATTERN="+strings.Join(ms, ","),
	)
}

// Wait blocks until every running command has finished
func (h *HookBridge) Wait() {
	h.wg.Wait()
}

func (h *HookBridge) spawn(command, kind string, vars ...string) {
	if strings.TrimSpace(command) == "" {
		return
	}
	env := append(os.Environ(), "BMXT_HOOK="+kind)
	env = append(env, vars...)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.Timeout)
		defer cancel()
		if err := h.run(ctx, command, env); err != nil {
			h.log.Debugw("hook failed", "hook", kind, "command", command, "error", err)
			if h.OnError != nil {
				h.OnError(command, err)
			}
		}
	}()
}

func runShell(ctx context.Context, command string, env []string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = env
	return cmd.Run()
}
