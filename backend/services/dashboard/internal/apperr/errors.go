// Package apperr holds the error taxonomy shared by the dashboard controllers.
//
// Every controller returns errors as values built here; callers classify them with
// errors.Is against the sentinel kinds and show Message to the user.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Match with errors.Is.
var (
	ErrInvalidFormat      = errors.New("invalid format")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrServerRejected     = errors.New("server rejected request")
	ErrPartialLoad        = errors.New("partial load")
	ErrExportFailed       = errors.New("export failed")
	ErrFetchFailed        = errors.New("fetch failed")
)

// Error is a classified failure carrying a user-facing message.
type Error struct {
	kind   error
	msg    string
	status int
	err    error
}

func (e *Error) Error() string {
	switch {
	case e.err != nil && e.msg != "":
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	case e.err != nil:
		return fmt.Sprintf("%s: %v", e.kind, e.err)
	case e.msg != "":
		return fmt.Sprintf("%s: %s", e.kind, e.msg)
	default:
		return e.kind.Error()
	}
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.err
}

// Kind returns the sentinel classifying the error.
func (e *Error) Kind() error {
	return e.kind
}

// Message returns the user-facing message, which may be empty.
func (e *Error) Message() string {
	return e.msg
}

// Status returns the upstream HTTP status, or 0 when the request never got a response.
func (e *Error) Status() int {
	return e.status
}

// InvalidFormat reports a client-side file check failure.
func InvalidFormat(msg string) *Error {
	return &Error{kind: ErrInvalidFormat, msg: msg}
}

// BackendUnavailable wraps a transport failure.
func BackendUnavailable(err error) *Error {
	return &Error{kind: ErrBackendUnavailable, err: err}
}

// ServerRejected reports a non-2xx response with the backend's message.
func ServerRejected(status int, msg string) *Error {
	return &Error{kind: ErrServerRejected, msg: msg, status: status}
}

// PartialLoad wraps the failure of one half of a detail load.
func PartialLoad(err error) *Error {
	return &Error{kind: ErrPartialLoad, err: err, status: statusOf(err)}
}

// ExportFailed wraps a report download failure.
func ExportFailed(err error) *Error {
	return &Error{kind: ErrExportFailed, err: err, status: statusOf(err)}
}

// FetchFailed wraps a dataset list failure.
func FetchFailed(err error) *Error {
	return &Error{kind: ErrFetchFailed, err: err, status: statusOf(err)}
}

// MessageOf returns the first non-empty user-facing message in err's chain, or fallback.
func MessageOf(err error, fallback string) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		if e.msg != "" {
			return e.msg
		}
		err = e.err
	}
	return fallback
}

// HTTPStatus maps an error to the status the dashboard API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	// Load, export and list failures are upstream failures whatever their cause.
	case errors.Is(err, ErrPartialLoad),
		errors.Is(err, ErrExportFailed),
		errors.Is(err, ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrServerRejected):
		if s := statusOf(err); s >= 400 && s < 500 {
			return s
		}
		return http.StatusBadGateway
	case errors.Is(err, ErrBackendUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func statusOf(err error) int {
	var e *Error
	for err != nil && errors.As(err, &e) {
		if e.status != 0 {
			return e.status
		}
		err = e.err
	}
	return 0
}
