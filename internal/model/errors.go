package model

import "fmt"

// ErrorKind is the machine-readable category of an Error.
type ErrorKind string

const (
	KindConfigUnavailable    ErrorKind = "config_unavailable"
	KindNoSpecsAvailable     ErrorKind = "no_specs_available"
	KindInvalidSpec          ErrorKind = "invalid_spec"
	KindInvalidRequestBody   ErrorKind = "invalid_request_body"
	KindExecutionFailed      ErrorKind = "execution_failed"
	KindClipboardUnavailable ErrorKind = "clipboard_unavailable"
	KindInvalidAuthMode      ErrorKind = "invalid_auth_mode"
	KindRouteNotFound        ErrorKind = "route_not_found"
	KindStaleLoad            ErrorKind = "stale_load"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrConfigUnavailable    = &Error{Kind: KindConfigUnavailable}
	ErrNoSpecsAvailable     = &Error{Kind: KindNoSpecsAvailable}
	ErrInvalidSpec          = &Error{Kind: KindInvalidSpec}
	ErrInvalidRequestBody   = &Error{Kind: KindInvalidRequestBody}
	ErrExecutionFailed      = &Error{Kind: KindExecutionFailed}
	ErrClipboardUnavailable = &Error{Kind: KindClipboardUnavailable}
	ErrInvalidAuthMode      = &Error{Kind: KindInvalidAuthMode}
	ErrRouteNotFound        = &Error{Kind: KindRouteNotFound}
	ErrStaleLoad            = &Error{Kind: KindStaleLoad}
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return string(e.Kind) + ": " + e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
