package cli

import "fmt"

// Exit codes returned through CommandError.
const (
	ExitProblems = 1 // parse errors or check failures, already printed
	ExitSettings = 2 // invalid horizon, flag or config value
)

// CommandError carries the process exit code of a command that has already
// reported its failure on stderr. Main turns it into os.Exit.
type CommandError struct {
	exitCode int
	cause    error
}

// NewCommandError returns a CommandError for exitCode.
func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

// exitWith records the underlying failure alongside the exit code.
func exitWith(exitCode int, cause error) *CommandError {
	return &CommandError{exitCode: exitCode, cause: cause}
}

func (e *CommandError) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return fmt.Sprintf("exit status %d", e.exitCode)
}

func (e *CommandError) Unwrap() error { return e.cause }

// ExitCode returns the exit code associated with this error.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}
