package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"howett.net/plist"

	"github.com/vburojevic/bmxt/internal/workout"
)

// ErrInvalid wraps every validation failure of a loaded configuration
var ErrInvalid = errors.New("invalid configuration")

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format" yaml:"format"`
	Quiet   bool   `mapstructure:"quiet" yaml:"quiet"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`

	Workout      workout.Config `mapstructure:"workout" yaml:"workout"`
	TickInterval string         `mapstructure:"tick_interval" yaml:"tick_interval"`
	Effects      EffectsConfig  `mapstructure:"effects" yaml:"effects"`
	Tmux         TmuxConfig     `mapstructure:"tmux" yaml:"tmux"`
	Listen       string         `mapstructure:"listen" yaml:"listen"`
}

// EffectsConfig configures the alert capabilities
type EffectsConfig struct {
	Bell           bool   `mapstructure:"bell" yaml:"bell" json:"bell"`
	NotifyCommand  string `mapstructure:"notify_command" yaml:"notify_command" json:"notify_command"`
	VibrateCommand string `mapstructure:"vibrate_command" yaml:"vibrate_command" json:"vibrate_command"`
	InhibitCommand string `mapstructure:"inhibit_command" yaml:"inhibit_command" json:"inhibit_command"` // held while running; should exec its final command
	Background     string `mapstructure:"background" yaml:"background" json:"background"` // auto, always, never
	HookTimeout    string `mapstructure:"hook_timeout" yaml:"hook_timeout" json:"hook_timeout"`
}

// TmuxConfig configures the tmux status mirror
type TmuxConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Session string `mapstructure:"session" yaml:"session" json:"session"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:       "auto",
		Workout:      workout.Default(),
		TickInterval: "1s",
		Effects: EffectsConfig{
			Bell:        true,
			Background:  "auto",
			HookTimeout: "5s",
		},
	}
}

// Validate checks values that cannot be caught by flag parsing
func (c *Config) Validate() error {
	switch c.Format {
	case "", "auto", "ndjson", "text":
	default:
		return fmt.Errorf("format must be auto, ndjson or text, got %q", c.Format)
	}
	if err := c.Workout.Validate(); err != nil {
		return err
	}
	if _, err := c.Tick(); err != nil {
		return err
	}
	if _, err := c.HookTimeout(); err != nil {
		return err
	}
	switch c.Effects.Background {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("effects.background must be auto, always or never, got %q", c.Effects.Background)
	}
	return nil
}

// Tick parses the tick interval
func (c *Config) Tick() (time.Duration, error) {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid tick_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	return d, nil
}

// HookTimeout parses the hook timeout
func (c *Config) HookTimeout() (time.Duration, error) {
	if c.Effects.HookTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Effects.HookTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid effects.hook_timeout: %w", err)
	}
	return d, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("BMXT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("workout.warmup", cfg.Workout.Warmup)
	v.SetDefault("workout.sprint", cfg.Workout.Sprint)
	v.SetDefault("workout.rest", cfg.Workout.Rest)
	v.SetDefault("workout.cooldown", cfg.Workout.Cooldown)
	v.SetDefault("workout.sets", cfg.Workout.Sets)
	v.SetDefault("tick_interval", cfg.TickInterval)
	v.SetDefault("effects.bell", cfg.Effects.Bell)
	v.SetDefault("effects.notify_command", cfg.Effects.NotifyCommand)
	v.SetDefault("effects.vibrate_command", cfg.Effects.VibrateCommand)
	v.SetDefault("effects.inhibit_command", cfg.Effects.InhibitCommand)
	v.SetDefault("effects.background", cfg.Effects.Background)
	v.SetDefault("effects.hook_timeout", cfg.Effects.HookTimeout)
	v.SetDefault("tmux.enabled", cfg.Tmux.Enabled)
	v.SetDefault("tmux.session", cfg.Tmux.Session)
	v.SetDefault("listen", cfg.Listen)
	return v
}

func addSearchPaths(v *viper.Viper) {
	// searched in order; the first match wins
	v.AddConfigPath("/etc/bmxt/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "bmxt"))
	}
	v.AddConfigPath(".")
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("bmxt")
	v.SetConfigType("yaml")
	addSearchPaths(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// fall back to ~/.bmxt.yaml
		if home, herr := os.UserHomeDir(); herr == nil {
			dot := filepath.Join(home, ".bmxt.yaml")
			if _, serr := os.Stat(dot); serr == nil {
				return LoadFromFile(dot)
			}
		}
	}

	source := v.ConfigFileUsed()
	if source == "" {
		source = "environment"
	}
	return decode(v, source)
}

// LoadFromFile loads configuration from a specific file. Property lists
// (.plist, XML or binary) are accepted alongside the formats viper reads.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()

	if strings.EqualFold(filepath.Ext(path), ".plist") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var values map[string]interface{}
		if _, err := plist.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return decode(v, path)
}

// decode unmarshals v over the defaults and validates the result. source
// names where the values came from in validation errors.
func decode(v *viper.Viper, source string) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (%s): %w", ErrInvalid, source, err)
	}
	return cfg, nil
}

// ConfigFile returns the path of the config file Load would read, or ""
func ConfigFile() string {
	v := viper.New()
	v.SetConfigName("bmxt")
	v.SetConfigType("yaml")
	addSearchPaths(v)
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}
	if home, err := os.UserHomeDir(); err == nil {
		dot := filepath.Join(home, ".bmxt.yaml")
		if _, err := os.Stat(dot); err == nil {
			return dot
		}
	}
	return ""
}
