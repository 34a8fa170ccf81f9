package commands

import (
	"errors"
	"fmt"
)

// Exit codes returned by usage-report.
const (
	ExitError       = 1
	ExitUsage       = 2
	ExitUnavailable = 3
)

// CLIError is an error with a recovery suggestion and an exit code.
type CLIError struct {
	Message    string
	Suggestion string
	ExitCode   int
	Err        error
}

func (e *CLIError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Suggestion != "" {
		msg += "\n\nSuggestion: " + e.Suggestion
	}
	return msg
}

func (e *CLIError) Unwrap() error { return e.Err }

// NewUsageError reports bad flags or missing configuration.
func NewUsageError(message, suggestion string) *CLIError {
	return &CLIError{Message: message, Suggestion: suggestion, ExitCode: ExitUsage}
}

// NewServiceUnavailableError reports an upstream that could not be reached.
func NewServiceUnavailableError(service string, err error) *CLIError {
	return &CLIError{
		Message:    fmt.Sprintf("%s is unavailable", service),
		Suggestion: fmt.Sprintf("Check connectivity to %s and retry; cached results are reused where available.", service),
		ExitCode:   ExitUnavailable,
		Err:        err,
	}
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode
	}
	return ExitError
}
