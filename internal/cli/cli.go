package cli

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/benbjohnson/clock"
	"github.com/mattn/go-isatty"

	"github.com/vburojevic/bmxt/internal/config"
	"github.com/vburojevic/bmxt/internal/effects"
)

// Set at build time via -ldflags
var (
	Version = "dev"
	Commit  = "none"
)

// CLI is the root command
type CLI struct {
	Format     string `short:"f" default:"${config_format}" enum:"auto,ndjson,text" help:"Output format (auto: text on a terminal, ndjson otherwise)"`
	Quiet      bool   `short:"q" help:"Drop per-tick state records; events and session boundaries are still written"`
	Verbose    bool   `short:"v" help:"Write debug logs to stderr"`
	ConfigFile string `name:"config" type:"existingfile" help:"Config file (yaml, json, toml or plist)"`

	Run        RunCmd        `cmd:"" help:"Run an interval session"`
	Plan       PlanCmd       `cmd:"" help:"Print the segment schedule of a workout"`
	Schema     SchemaCmd     `cmd:"" help:"Print JSON Schema for NDJSON records"`
	Config     ConfigCmd     `cmd:"" help:"Inspect or create configuration"`
	Version    VersionCmd    `cmd:"" help:"Print version"`
	Completion CompletionCmd `cmd:"" help:"Print a shell completion script"`
}

// Globals carries resolved global flags and IO to every command
type Globals struct {
	Format  string // ndjson or text, never auto
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Stdin   io.Reader
	Config  *config.Config
	Clock   clock.Clock
}

// NewGlobalsWithConfig resolves global flags, falling back to cfg
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Globals{
		Format:  resolveFormat(c.Format, os.Stdout),
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
		Config:  cfg,
		Clock:   clock.New(),
	}
}

// Vars exposes config values as kong defaults. cfg is expected to be
// validated; unparsable durations fall back to the built-in defaults.
func Vars(cfg *config.Config) kong.Vars {
	tick, err := cfg.Tick()
	if err != nil {
		tick = time.Second
	}
	hookTimeout, err := cfg.HookTimeout()
	if err != nil || hookTimeout <= 0 {
		hookTimeout = effects.DefaultHookTimeout
	}
	return kong.Vars{
		"config_format":       orDefault(cfg.Format, "auto"),
		"config_warmup":       strconv.Itoa(cfg.Workout.Warmup),
		"config_sprint":       strconv.Itoa(cfg.Workout.Sprint),
		"config_rest":         strconv.Itoa(cfg.Workout.Rest),
		"config_cooldown":     strconv.Itoa(cfg.Workout.Cooldown),
		"config_sets":         strconv.Itoa(cfg.Workout.Sets),
		"config_tick":         tick.String(),
		"config_bell":         strconv.FormatBool(cfg.Effects.Bell),
		"config_notify":       cfg.Effects.NotifyCommand,
		"config_vibrate":      cfg.Effects.VibrateCommand,
		"config_background":   orDefault(cfg.Effects.Background, "auto"),
		"config_inhibit":      cfg.Effects.InhibitCommand,
		"config_hook_timeout": hookTimeout.String(),
		"config_tmux":         strconv.FormatBool(cfg.Tmux.Enabled),
		"config_tmux_session": cfg.Tmux.Session,
		"config_listen":       cfg.Listen,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func resolveFormat(format string, out *os.File) string {
	switch format {
	case "ndjson", "text":
		return format
	}
	if out != nil && (isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())) {
		return "text"
	}
	return "ndjson"
}
