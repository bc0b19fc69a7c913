package cli

import (
	"fmt"
	"os"

	"github.com/helmwright/helmwright/errors"
)

// ErrorHandler renders errors with actionable hints instead of raw
// error chains.
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle prints a user-friendly message for known error codes and
// returns the error unchanged so callers can still exit non-zero.
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ No helmwright.yml found. Create one in your project root to map workspaces to chart directories.\n")
		return err

	case errors.ErrCodeNotLoggedIn:
		fmt.Fprintf(os.Stderr, "❌ No API credential found. Run 'helmwright login' first.\n")
		return err

	case errors.ErrCodeTokenRejected:
		fmt.Fprintf(os.Stderr, "❌ The assistant rejected your credential. Run 'helmwright login' to refresh it.\n")
		return err

	case errors.ErrCodeWorkspaceNotMapped:
		if hwErr, ok := err.(*errors.HelmwrightError); ok {
			fmt.Fprintf(os.Stderr, "❌ Workspace '%s' has no chart directory mapping\n", hwErr.Details["workspace"])
		}
		fmt.Fprintf(os.Stderr, "Add it under 'workspaces:' in helmwright.yml.\n")
		return err

	case errors.ErrCodePushExhausted:
		fmt.Fprintf(os.Stderr, "❌ Lost the push connection and could not reconnect.\n")
		fmt.Fprintf(os.Stderr, "Check your network and the configured push_url, then run 'helmwright watch' again.\n")
		return err

	case errors.ErrCodeLocalEditNewer:
		if hwErr, ok := err.(*errors.HelmwrightError); ok {
			fmt.Fprintf(os.Stderr, "❌ '%s' was edited locally after this change arrived\n", hwErr.Details["filePath"])
		}
		fmt.Fprintf(os.Stderr, "Review the diff again, or accept with --force to overwrite your edit.\n")
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if hwErr, ok := err.(*errors.HelmwrightError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", hwErr.ToJSON())
			}
		}
		return err
	}
}
