package cmd

import (
	"fmt"
	"os"

	"freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// CLIErrorHandler renders application errors for terminal users and maps
// them to exit codes.
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: verbose,
	}
}

// Exit prints a user-facing rendering of err and terminates the process
// with the error's exit code. A nil error returns nil.
func (h *CLIErrorHandler) Exit(err error) error {
	if err == nil {
		return nil
	}
	os.Exit(h.Handle(err))
	return nil
}

// Handle renders the error and returns the exit code to use.
func (h *CLIErrorHandler) Handle(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("command failed")

	if appErr, ok := errors.AsReconcilerError(err); ok {
		return h.handleAppError(appErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func (h *CLIErrorHandler) handleAppError(err *errors.ReconcilerError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}
