package commands

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitUsage       = 2 // bad arguments, config errors or unreadable input
	ExitWriteFailed = 3 // report files could not be written
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}

func writeError(format string, args ...any) error {
	return &ExitError{Code: ExitWriteFailed, Err: fmt.Errorf(format, args...)}
}

// CodeOf returns the exit code for an error returned by a command.
// Errors that carry no code are usage errors.
func CodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}
