package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/vburojevic/bmxt/internal/cli"
	"github.com/vburojevic/bmxt/internal/config"
)

const quickStart = `bmxt - interval sprint timer

Quick start:
  bmxt run                              Default 10 x 10s sprint session
  bmxt run --sprint 20 --rest 40 --sets 8
  bmxt plan                             Show the schedule

For help:
  bmxt --help                           All commands and flags
  bmxt schema                           NDJSON record schemas
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	cfg, err := loadConfig(os.Args[1:])
	switch {
	case errors.Is(err, config.ErrInvalid):
		// values that parsed but cannot run are fatal before any command
		fmt.Fprintf(os.Stderr, "Error [INVALID_CONFIG]: %v (hint: fix the value or run 'bmxt config generate' for a sample)\n", err)
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Config values become flag defaults; flags still win
	ctx := kong.Parse(&c,
		kong.Name("bmxt"),
		kong.Description("bmxt: interval sprint timer with NDJSON output"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		cli.Vars(cfg),
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config when given, the search path otherwise. It runs
// before flag parsing because config values feed flag defaults.
func loadConfig(args []string) (*config.Config, error) {
	if path := configFlag(args); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func configFlag(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if path, ok := strings.CutPrefix(arg, "--config="); ok {
			return path
		}
	}
	return ""
}
