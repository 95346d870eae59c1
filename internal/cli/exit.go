package cli

import (
	"errors"
	"fmt"

	"github.com/qepting91/frontpage-watch/internal/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Run completed
	ExitFailure      = 1 // A run stage failed
	ExitCommandError = 2 // Bad flags, invalid configuration, unreachable database
	ExitAuthError    = 3 // Credentials rejected by the token endpoint
)

// ExitError carries the process exit code for an error returned by a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// runFailure picks the exit code for a failed run.
func runFailure(err error) *ExitError {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return WrapExitError(ExitAuthError, "authentication failed", err)
	}
	return WrapExitError(ExitFailure, "run failed", err)
}
