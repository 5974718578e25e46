package workout

import (
	"errors"
	"fmt"

	"github.com/vburojevic/bmxt/internal/domain"
)

// ErrInvalidConfig is returned when a workout configuration violates its invariants
var ErrInvalidConfig = errors.New("invalid workout config")

// Config holds the fixed session structure. Durations are whole seconds.
type Config struct {
	Warmup   int `json:"warmup" yaml:"warmup"`
	Sprint   int `json:"sprint" yaml:"sprint"`
	Rest     int `json:"rest" yaml:"rest"`
	Cooldown int `json:"cooldown" yaml:"cooldown"`
	Sets     int `json:"sets" yaml:"sets"`
}

// Default returns the standard 10x sprint session
func Default() Config {
	return Config{
		Warmup:   300,
		Sprint:   10,
		Rest:     50,
		Cooldown: 300,
		Sets:     10,
	}
}

// New validates and returns a Config
func New(warmup, sprint, rest, cooldown, sets int) (Config, error) {
	cfg := Config{Warmup: warmup, Sprint: sprint, Rest: rest, Cooldown: cooldown, Sets: sets}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every duration is positive and at least one set is configured
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"warmup", c.Warmup},
		{"sprint", c.Sprint},
		{"rest", c.Rest},
		{"cooldown", c.Cooldown},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, f.name, f.value)
		}
	}
	if c.Sets < 1 {
		return fmt.Errorf("%w: sets must be at least 1, got %d", ErrInvalidConfig, c.Sets)
	}
	return nil
}

// Duration returns the full length of phase p. Idle shares the warmup length
// since an idle session displays the upcoming warmup.
func (c Config) Duration(p domain.Phase) int {
	switch p {
	case domain.PhaseIdle, domain.PhaseWarmup:
		return c.Warmup
	case domain.PhaseSprint:
		return c.Sprint
	case domain.PhaseRest:
		return c.Rest
	case domain.PhaseCooldown:
		return c.Cooldown
	default:
		panic(fmt.Sprintf("workout: duration of unknown phase %d", int(p)))
	}
}
