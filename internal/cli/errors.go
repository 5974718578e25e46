package cli

import (
	"fmt"

	"github.com/vburojevic/bmxt/internal/output"
)

// Error codes shared by error records and text errors
const (
	codeInvalidConfig = "INVALID_CONFIG"
	codeInvalidFlags  = "INVALID_FLAGS"
	codeListenFailed  = "LISTEN_FAILED"
)

// commandError is returned by a command after it has already been reported
// on the command's output, so main only has to set the exit status.
type commandError struct {
	Code    string
	Message string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// reportError writes an error record in ndjson mode, or an
// "Error [CODE]: message (hint: ...)" line on stderr in text mode.
func reportError(globals *Globals, code, message string, hint ...string) error {
	h := ""
	if len(hint) > 0 {
		h = hint[0]
	}
	switch {
	case globals == nil:
	case globals.Format == "ndjson":
		output.NewNDJSONWriter(globals.Stdout).WriteError(code, message, h)
	default:
		fmt.Fprintf(globals.Stderr, "Error [%s]: %s", code, message)
		if h != "" {
			fmt.Fprintf(globals.Stderr, " (hint: %s)", h)
		}
		fmt.Fprintln(globals.Stderr)
	}
	return &commandError{Code: code, Message: message}
}
