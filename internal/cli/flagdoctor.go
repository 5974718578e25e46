package cli

// validateFlags centralizes common flag combinations to keep behavior consistent.
func validateFlags(globals *Globals, tmux bool, listen string) error {
	// quiet text output would print nothing between transitions
	if globals != nil && globals.Format == "text" && globals.Quiet && !tmux && listen == "" {
		return reportError(globals, codeInvalidFlags, "--quiet is only supported with ndjson output", "switch to --format ndjson or drop --quiet")
	}
	return nil
}
