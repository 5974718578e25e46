package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/vburojevic/bmxt/internal/domain"
	"github.com/vburojevic/bmxt/internal/effects"
	"github.com/vburojevic/bmxt/internal/httpapi"
	"github.com/vburojevic/bmxt/internal/output"
	"github.com/vburojevic/bmxt/internal/session"
	"github.com/vburojevic/bmxt/internal/ticker"
	"github.com/vburojevic/bmxt/internal/tmux"
	"github.com/vburojevic/bmxt/internal/workout"
)

// RunCmd runs an interval session
type RunCmd struct {
	WorkoutFlags `embed:""`

	Tick           time.Duration `default:"${config_tick}" help:"Tick interval (one countdown second)"`
	Bell           bool          `default:"${config_bell}" negatable:"" help:"Ring the terminal bell on stderr for alerts"`
	NotifyCommand  string        `default:"${config_notify}" help:"Shell command run for notifications (BMXT_TITLE, BMXT_BODY)"`
	VibrateCommand string        `default:"${config_vibrate}" help:"Shell command run for vibration (BMXT_PATTERN)"`
	Background     string        `default:"${config_background}" enum:"auto,always,never" help:"Whether notifications count as backgrounded (auto: stdout is not a terminal)"`
	HookTimeout    time.Duration `default:"${config_hook_timeout}" help:"Timeout for notify/vibrate commands"`
	InhibitCommand string        `default:"${config_inhibit}" help:"Shell command held while the session runs to keep the host awake (should exec, e.g. 'exec caffeinate -d')"`
	Tmux           bool          `default:"${config_tmux}" help:"Mirror status lines into a tmux session"`
	Session        string        `default:"${config_tmux_session}" help:"Custom tmux session name (default: bmxt)"`
	Listen         string        `default:"${config_listen}" help:"Serve the HTTP remote on this address"`
	Controls       string        `default:"auto" enum:"auto,on,off" help:"Read s/p/r/q commands from stdin (auto: stdin is a terminal)"`
	NoStart        bool          `help:"Wait for a start command instead of starting immediately"`
	Loop           bool          `help:"Keep running after a session completes"`
}

// Run executes the run command
func (c *RunCmd) Run(globals *Globals) error {
	if err := validateFlags(globals, c.Tmux, c.Listen); err != nil {
		return err
	}
	cfg, err := c.Workout()
	if err != nil {
		return reportError(globals, codeInvalidConfig, err.Error(), "all durations must be positive and sets at least 1")
	}
	if c.Tick <= 0 {
		return reportError(globals, codeInvalidFlags, fmt.Sprintf("invalid tick interval: %s", c.Tick), "use a positive duration such as 1s")
	}

	log := newLogger(globals)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Primary projector
	var projectors []session.Projector
	var text *output.TextWriter
	var warn func(msg string)
	if globals.Format == "ndjson" {
		nd := output.NewNDJSONWriter(globals.Stdout).WithQuiet(globals.Quiet)
		projectors = append(projectors, nd)
		warn = func(msg string) { nd.WriteWarning("", msg) }
	} else {
		text = output.NewTextWriter(globals.Stdout).WithQuiet(globals.Quiet)
		projectors = append(projectors, text)
		warn = func(msg string) { text.Line("Warning: " + msg) }
	}

	var tmuxMgr *tmux.Manager
	if c.Tmux {
		tmuxMgr, err = c.setupTmux(globals)
		if err != nil {
			warn(fmt.Sprintf("tmux mirror disabled: %s", err))
		} else {
			defer tmuxMgr.Cleanup()
			projectors = append(projectors, &tmuxMirror{manager: tmuxMgr, text: output.NewTextWriter(tmux.NewWriter(tmuxMgr))})
		}
	}

	ended := &sessionWatcher{ended: make(chan *domain.SessionEnd, 4)}
	projectors = append(projectors, ended)

	dispatcher, bridge := c.newDispatcher(globals, warn, log)
	inhibitor := effects.NewInhibitor(c.InhibitCommand, log)
	inhibitor.OnError = func(command string, err error) {
		warn(fmt.Sprintf("inhibit command %q exited: %s", command, err))
	}
	// Deferred before Close so hooks fired by the final transition finish
	// before Run returns.
	defer bridge.Wait()
	defer inhibitor.Wait()

	tk := ticker.New(globals.Clock, c.Tick)
	controller, err := session.NewController(cfg, session.Options{
		Clock:      tk,
		Time:       globals.Clock,
		Effects:    dispatcher,
		Projectors: projectors,
		WakeLock:   inhibitor,
		Logger:     log,
	})
	if err != nil {
		return reportError(globals, codeInvalidConfig, err.Error())
	}
	defer controller.Close()

	if c.Listen != "" {
		ln, err := net.Listen("tcp", c.Listen)
		if err != nil {
			return reportError(globals, codeListenFailed, err.Error(), "pick a free address such as 127.0.0.1:8088")
		}
		srv := httpapi.New(controller, log)
		go func() {
			if err := srv.Serve(ctx, ln); err != nil {
				log.Debugw("http server stopped", "error", err)
			}
		}()
		c.Listen = ln.Addr().String()
	}

	c.announce(globals, cfg, tk.Interval(), text)

	if c.controlsEnabled(globals) {
		go readControls(globals.Stdin, controller, cancel)
	}

	if !c.NoStart {
		controller.Start()
	}

	for {
		select {
		case <-ctx.Done():
			// cancelling an unfinished session still reports its summary
			controller.Reset(false)
			return nil
		case end := <-ended.ended:
			if end.Completed() && !c.Loop {
				return nil
			}
		}
	}
}

func (c *RunCmd) setupTmux(globals *Globals) (*tmux.Manager, error) {
	name := c.Session
	if name == "" {
		name = tmux.GenerateSessionName("")
	}
	mgr, err := tmux.NewManager(&tmux.Config{SessionName: name, Detached: true})
	if err != nil {
		return nil, err
	}
	if err := mgr.GetOrCreateSession(); err != nil {
		return nil, err
	}

	if globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteTmux(mgr.SessionName(), mgr.AttachCommand())
	} else {
		fmt.Fprintf(globals.Stderr, "Tmux session: %s\n", mgr.SessionName())
		fmt.Fprintf(globals.Stderr, "Attach with: %s\n", mgr.AttachCommand())
	}
	return mgr, nil
}

func (c *RunCmd) newDispatcher(globals *Globals, warn func(string), log *zap.SugaredLogger) (*effects.Dispatcher, *effects.HookBridge) {
	var audio effects.AudioAlert
	if c.Bell {
		if f, ok := globals.Stderr.(*os.File); ok {
			audio = effects.NewBell(f)
		}
	}

	bridge := effects.NewHookBridge(effects.HookConfig{
		NotifyCommand:  c.NotifyCommand,
		VibrateCommand: c.VibrateCommand,
		Background:     c.Background,
		Timeout:        c.HookTimeout,
	}, log)
	bridge.OnError = func(command string, err error) {
		warn(fmt.Sprintf("hook %q failed: %s", command, err))
	}

	return effects.NewDispatcher(audio, bridge, log), bridge
}

func (c *RunCmd) announce(globals *Globals, cfg workout.Config, interval time.Duration, text *output.TextWriter) {
	if globals.Format == "ndjson" {
		output.NewNDJSONWriter(globals.Stdout).WriteReady(output.Ready{
			Version:      Version,
			Warmup:       cfg.Warmup,
			Sprint:       cfg.Sprint,
			Rest:         cfg.Rest,
			Cooldown:     cfg.Cooldown,
			Sets:         cfg.Sets,
			TotalTicks:   workout.TotalTicks(cfg),
			TickInterval: interval.String(),
			Listen:       c.Listen,
		})
		return
	}
	if c.Listen != "" {
		text.Line(fmt.Sprintf("Remote: http://%s/api/v1/state", c.Listen))
	}
	if c.controlsEnabled(globals) {
		text.Line("Controls: s start/resume, p pause, r reset, q quit (then Enter)")
	}
}

func (c *RunCmd) controlsEnabled(globals *Globals) bool {
	switch c.Controls {
	case "on":
		return globals.Stdin != nil
	case "off":
		return false
	}
	f, ok := globals.Stdin.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// readControls maps stdin lines to session operations until EOF or quit
func readControls(r io.Reader, controller *session.Controller, quit func()) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "s", "start", "resume":
			controller.Start()
		case "p", "pause":
			controller.Pause()
		case "r", "reset":
			controller.Reset(false)
		case "q", "quit":
			quit()
			return
		}
	}
}

// sessionWatcher forwards session ends to the run loop
type sessionWatcher struct {
	ended chan *domain.SessionEnd
}

func (w *sessionWatcher) Project(domain.Snapshot)               {}
func (w *sessionWatcher) SessionStarted(*domain.SessionStart) {}

func (w *sessionWatcher) SessionEnded(end *domain.SessionEnd) {
	select {
	case w.ended <- end:
	default:
	}
}

// tmuxMirror renders text status lines into a tmux pane, clearing it with a
// banner whenever a session starts.
type tmuxMirror struct {
	manager *tmux.Manager
	text    *output.TextWriter
}

func (m *tmuxMirror) Project(s domain.Snapshot) {
	m.text.Project(s)
}

func (m *tmuxMirror) ObserveEvent(e domain.Event, s domain.Snapshot) {
	m.text.ObserveEvent(e, s)
}

func (m *tmuxMirror) SessionStarted(start *domain.SessionStart) {
	_ = m.manager.ClearPaneWithBanner(start)
}

func (m *tmuxMirror) SessionEnded(end *domain.SessionEnd) {
	m.text.SessionEnded(end)
}
