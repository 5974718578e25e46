package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/vburojevic/bmxt/internal/output"
	"github.com/vburojevic/bmxt/internal/workout"
)

// WorkoutFlags are the interval durations shared by run and plan
type WorkoutFlags struct {
	Warmup   int `default:"${config_warmup}" help:"Warmup seconds"`
	Sprint   int `default:"${config_sprint}" help:"Sprint seconds"`
	Rest     int `default:"${config_rest}" help:"Rest seconds"`
	Cooldown int `default:"${config_cooldown}" help:"Cooldown seconds"`
	Sets     int `default:"${config_sets}" help:"Number of sprint/rest sets"`
}

// Workout validates the flags into a workout config
func (f WorkoutFlags) Workout() (workout.Config, error) {
	return workout.New(f.Warmup, f.Sprint, f.Rest, f.Cooldown, f.Sets)
}

// PlanCmd prints the segment schedule without running it
type PlanCmd struct {
	WorkoutFlags `embed:""`
}

// PlanOutput summarizes a planned workout
type PlanOutput struct {
	Type          string `json:"type"` // "plan"
	SchemaVersion int    `json:"schemaVersion"`
	Segments      int    `json:"segments"`
	ActiveSeconds int    `json:"active_seconds"`
	TotalTicks    int    `json:"total_ticks"`
}

// Run executes the plan command
func (c *PlanCmd) Run(globals *Globals) error {
	cfg, err := c.Workout()
	if err != nil {
		return reportError(globals, codeInvalidConfig, err.Error(), "all durations must be positive and sets at least 1")
	}
	segments := workout.Schedule(cfg)

	if globals.Format == "ndjson" {
		w := output.NewNDJSONWriter(globals.Stdout)
		for _, s := range segments {
			if err := w.WriteSegment(s.Index, s.Phase, s.Set, s.Duration, s.Offset); err != nil {
				return err
			}
		}
		return json.NewEncoder(globals.Stdout).Encode(PlanOutput{
			Type:          "plan",
			SchemaVersion: output.SchemaVersion,
			Segments:      len(segments),
			ActiveSeconds: workout.ActiveSeconds(cfg),
			TotalTicks:    workout.TotalTicks(cfg),
		})
	}

	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("#", "Phase", "Set", "Duration", "Starts")
	for _, s := range segments {
		set := ""
		if s.Set > 0 {
			set = strconv.Itoa(s.Set)
		}
		if err := table.Append([]string{
			strconv.Itoa(s.Index + 1),
			s.Phase.Label(),
			set,
			output.FormatClock(s.Duration),
			output.FormatClock(s.Offset),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(globals.Stdout, "Active: %s  Total with transitions: %s (%d ticks)\n",
		output.FormatClock(workout.ActiveSeconds(cfg)),
		output.FormatClock(workout.TotalTicks(cfg)),
		workout.TotalTicks(cfg),
	)
	return nil
}
