package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vburojevic/bmxt/internal/config"
	"github.com/vburojevic/bmxt/internal/output"
	"github.com/vburojevic/bmxt/internal/workout"
)

// ConfigCmd groups configuration subcommands
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the effective configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show which config file is used"`
	Generate ConfigGenerateCmd `cmd:"" help:"Write a sample config file"`
}

// ConfigShowCmd prints the effective configuration
type ConfigShowCmd struct{}

// ConfigOutput is the NDJSON form of the effective configuration
type ConfigOutput struct {
	Type          string               `json:"type"` // "config"
	SchemaVersion int                  `json:"schemaVersion"`
	File          string               `json:"file,omitempty"`
	Format        string               `json:"format"`
	Quiet         bool                 `json:"quiet"`
	Verbose       bool                 `json:"verbose"`
	Workout       workout.Config       `json:"workout"`
	TickInterval  string               `json:"tick_interval"`
	Effects       config.EffectsConfig `json:"effects"`
	Tmux          config.TmuxConfig    `json:"tmux"`
	Listen        string               `json:"listen,omitempty"`
}

func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(ConfigOutput{
			Type:          "config",
			SchemaVersion: output.SchemaVersion,
			File:          config.ConfigFile(),
			Format:        cfg.Format,
			Quiet:         cfg.Quiet,
			Verbose:       cfg.Verbose,
			Workout:       cfg.Workout,
			TickInterval:  cfg.TickInterval,
			Effects:       cfg.Effects,
			Tmux:          cfg.Tmux,
			Listen:        cfg.Listen,
		})
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintln(globals.Stdout)
	fmt.Fprint(globals.Stdout, string(data))
	return nil
}

// ConfigPathCmd prints the config file in use
type ConfigPathCmd struct{}

func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(map[string]interface{}{
			"type":          "config_path",
			"schemaVersion": output.SchemaVersion,
			"path":          path,
			"found":         path != "",
		})
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found")
		fmt.Fprintln(globals.Stdout, "Searched: /etc/bmxt/bmxt.yaml, <user config dir>/bmxt/bmxt.yaml, ./bmxt.yaml, ~/.bmxt.yaml")
		return nil
	}
	fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	return nil
}

// ConfigGenerateCmd writes a sample configuration with the defaults
type ConfigGenerateCmd struct {
	Output string `short:"o" help:"Write to this file instead of stdout"`
	Force  bool   `help:"Overwrite an existing file"`
}

func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return err
	}
	sample := "# bmxt configuration\n" + string(data)

	if c.Output == "" {
		fmt.Fprint(globals.Stdout, sample)
		return nil
	}

	if _, err := os.Stat(c.Output); err == nil && !c.Force {
		return reportError(globals, codeInvalidFlags, fmt.Sprintf("%s already exists", c.Output), "pass --force to overwrite")
	}
	if err := os.WriteFile(c.Output, []byte(sample), 0644); err != nil {
		return reportError(globals, codeInvalidFlags, err.Error())
	}

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(map[string]interface{}{
			"type":          "config_generated",
			"schemaVersion": output.SchemaVersion,
			"path":          c.Output,
		})
	}
	fmt.Fprintf(globals.Stdout, "Wrote %s\n", c.Output)
	return nil
}
