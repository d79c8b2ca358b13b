package cmd

import (
	"errors"
	"fmt"

	"makerapi/internal/model"
	"makerapi/internal/session"
)

// ExitResult carries the process exit code and the text main prints. It is
// returned as an error so handlers keep a single return path; Code 0 is a
// successful result with output.
type ExitResult struct {
	Code     int
	Message  string
	ToStderr bool
}

func (e ExitResult) Error() string   { return e.Message }
func (e ExitResult) ExitCode() int   { return e.Code }
func (e ExitResult) UseStderr() bool { return e.ToStderr }

const (
	exitFailure  = 1
	exitUsage    = 2
	exitNoSpecs  = 3
	retryHint    = "check that the device is reachable and retry"
	unknownRoute = "use `makerapi routes` to list available routes"
)

func usageExit(format string, args ...any) error {
	return ExitResult{Code: exitUsage, Message: fmt.Sprintf(format, args...), ToStderr: true}
}

func okText(message string) error {
	return ExitResult{Code: 0, Message: message}
}

// failure maps an application error onto an exit code and message.
func failure(err error) error {
	var ex ExitResult
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ex):
		return ex
	case errors.Is(err, model.ErrNoSpecsAvailable):
		return ExitResult{Code: exitNoSpecs, Message: session.NotConfiguredMessage, ToStderr: true}
	case errors.Is(err, model.ErrConfigUnavailable), errors.Is(err, model.ErrInvalidSpec):
		return ExitResult{Code: exitFailure, Message: fmt.Sprintf("%v\n%s", err, retryHint), ToStderr: true}
	case errors.Is(err, model.ErrRouteNotFound):
		return ExitResult{Code: exitUsage, Message: fmt.Sprintf("%v\n%s", err, unknownRoute), ToStderr: true}
	case errors.Is(err, model.ErrInvalidAuthMode):
		return ExitResult{Code: exitUsage, Message: err.Error(), ToStderr: true}
	}
	return ExitResult{Code: exitFailure, Message: err.Error(), ToStderr: true}
}
