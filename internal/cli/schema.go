package cli

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"

	"github.com/vburojevic/bmxt/internal/domain"
)

// SchemaCmd outputs JSON Schema for bmxt NDJSON record types
type SchemaCmd struct {
	Type []string `short:"t" help:"Record types to include (ready,state,event,session_start,session_end,warning,error,tmux,segment,plan). Default: all"`
}

var schemaTypes = []string{"ready", "state", "event", "session_start", "session_end", "warning", "error", "tmux", "segment", "plan"}

// Run executes the schema command
func (c *SchemaCmd) Run(globals *Globals) error {
	schemas := map[string]map[string]interface{}{
		"ready":         readySchema(),
		"state":         stateSchema(),
		"event":         eventSchema(),
		"session_start": sessionStartSchema(),
		"session_end":   sessionEndSchema(),
		"warning":       warningSchema(),
		"error":         errorSchema(),
		"tmux":          tmuxSchema(),
		"segment":       segmentSchema(),
		"plan":          planSchema(),
	}

	typesToOutput := c.Type
	if len(typesToOutput) == 0 {
		typesToOutput = schemaTypes
	}

	defs := map[string]interface{}{}
	for _, t := range typesToOutput {
		t = strings.ToLower(strings.TrimSpace(t))
		if schema, ok := schemas[t]; ok {
			defs[t] = schema
		}
	}

	out := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "bmxt Output Schemas",
		"description": "JSON Schema definitions for all bmxt NDJSON record types",
		"definitions": defs,
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func enumProp(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "enum": values, "description": description}
}

// record builds an object schema with the common type/schemaVersion header
func record(typ, title, description string, props map[string]interface{}, required ...string) map[string]interface{} {
	properties := map[string]interface{}{
		"type":          map[string]interface{}{"const": typ},
		"schemaVersion": map[string]interface{}{"const": domain.SchemaVersion},
	}
	for k, v := range props {
		properties[k] = v
	}
	return map[string]interface{}{
		"type":        "object",
		"title":       title,
		"description": description,
		"properties":  properties,
		"required":    append([]string{"type", "schemaVersion"}, required...),
	}
}

func phaseNames() []string {
	return lo.Map(domain.AllPhases, func(p domain.Phase, _ int) string { return p.String() })
}

func readySchema() map[string]interface{} {
	return record("ready", "Ready", "Emitted once the run command is set up", map[string]interface{}{
		"timestamp":     map[string]interface{}{"type": "string", "format": "date-time"},
		"version":       prop("string", "bmxt version"),
		"warmup":        prop("integer", "Warmup seconds"),
		"sprint":        prop("integer", "Sprint seconds"),
		"rest":          prop("integer", "Rest seconds"),
		"cooldown":      prop("integer", "Cooldown seconds"),
		"sets":          prop("integer", "Number of sets"),
		"total_ticks":   prop("integer", "Ticks from start to completion, including transition ticks"),
		"tick_interval": prop("string", "Duration of one tick"),
		"listen":        prop("string", "HTTP remote address, if enabled"),
	}, "timestamp", "warmup", "sprint", "rest", "cooldown", "sets", "total_ticks")
}

func stateSchema() map[string]interface{} {
	return record("state", "State", "Session snapshot after every committed change", map[string]interface{}{
		"session_id":  prop("string", "Current or last session ID"),
		"phase":       enumProp("Current phase", phaseNames()...),
		"time_left":   prop("integer", "Seconds left in the phase"),
		"duration":    prop("integer", "Full length of the phase in seconds"),
		"current_set": prop("integer", "Current set, 0 before the first sprint"),
		"total_sets":  prop("integer", "Configured sets"),
		"running":     prop("boolean", "Whether the countdown is running"),
		"completed":   prop("boolean", "The last reset ended a finished session"),
		"progress":    prop("number", "time_left / duration, in [0,1]"),
		"set_counter": prop("string", "Set display, n/total or FINISH during cooldown"),
		"next_up":     prop("string", "Hint about what follows the current phase"),
		"affordance":  enumProp("Start action to offer while stopped", "start", "resume", "restart"),
	}, "phase", "time_left", "duration", "current_set", "total_sets", "running", "progress", "set_counter", "next_up")
}

func eventSchema() map[string]interface{} {
	return record("event", "Event", "Phase transition or countdown warning", map[string]interface{}{
		"session_id":   prop("string", "Session ID"),
		"event":        enumProp("Event kind", "entered_sprint", "entered_rest", "entered_cooldown", "session_completed", "countdown_warning"),
		"set":          prop("integer", "Set number for sprint and rest events"),
		"seconds_left": prop("integer", "Seconds left for countdown warnings"),
		"title":        prop("string", "Alert title"),
		"body":         prop("string", "Alert body"),
		"phase":        enumProp("Phase after the event", phaseNames()...),
	}, "event", "phase")
}

func sessionStartSchema() map[string]interface{} {
	return record("session_start", "Session Start", "A fresh session left Idle", map[string]interface{}{
		"session_id": prop("string", "Session ID (UUID)"),
		"warmup":     prop("integer", "Warmup seconds"),
		"sprint":     prop("integer", "Sprint seconds"),
		"rest":       prop("integer", "Rest seconds"),
		"cooldown":   prop("integer", "Cooldown seconds"),
		"sets":       prop("integer", "Number of sets"),
		"timestamp":  map[string]interface{}{"type": "string", "format": "date-time"},
	}, "session_id", "timestamp")
}

func sessionEndSchema() map[string]interface{} {
	return record("session_end", "Session End", "A session completed or was cancelled", map[string]interface{}{
		"session_id": prop("string", "Session ID"),
		"reason":     enumProp("Why the session ended", domain.EndReasonCompleted, domain.EndReasonCancelled),
		"summary": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"ticks":            prop("integer", "Ticks processed"),
				"transitions":      prop("integer", "Phase transitions, including completion"),
				"warnings":         prop("integer", "Countdown warnings"),
				"pauses":           prop("integer", "Times the session was paused"),
				"sets_completed":   prop("integer", "Sprints finished"),
				"duration_seconds": prop("integer", "Wall clock time including pauses"),
			},
		},
		"timestamp": map[string]interface{}{"type": "string", "format": "date-time"},
	}, "session_id", "reason", "summary", "timestamp")
}

func warningSchema() map[string]interface{} {
	return record("warning", "Warning", "A non-fatal problem, e.g. a failed hook", map[string]interface{}{
		"session_id": prop("string", "Session ID, if any"),
		"message":    prop("string", "Description"),
	}, "message")
}

func errorSchema() map[string]interface{} {
	return record("error", "Error", "A fatal problem; the command exits non-zero", map[string]interface{}{
		"code":    enumProp("Error code", "INVALID_CONFIG", "INVALID_FLAGS", "LISTEN_FAILED"),
		"message": prop("string", "Description"),
		"hint":    prop("string", "Suggested fix"),
	}, "code", "message")
}

func tmuxSchema() map[string]interface{} {
	return record("tmux", "Tmux", "Where status lines are mirrored", map[string]interface{}{
		"session": prop("string", "tmux session name"),
		"attach":  prop("string", "Command to attach"),
	}, "session", "attach")
}

func segmentSchema() map[string]interface{} {
	return record("segment", "Segment", "One phase of a planned workout", map[string]interface{}{
		"index":    prop("integer", "Position in the schedule"),
		"phase":    enumProp("Phase", phaseNames()...),
		"set":      prop("integer", "Set number"),
		"duration": prop("integer", "Seconds"),
		"offset":   prop("integer", "Tick on which the segment begins"),
	}, "index", "phase", "duration", "offset")
}

func planSchema() map[string]interface{} {
	return record("plan", "Plan", "Totals of a planned workout", map[string]interface{}{
		"segments":       prop("integer", "Number of segments"),
		"active_seconds": prop("integer", "Countdown seconds"),
		"total_ticks":    prop("integer", "Ticks including transitions"),
	}, "segments", "active_seconds", "total_ticks")
}
