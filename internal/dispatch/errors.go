package dispatch

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorUnknownModel      ErrorCode = "UNKNOWN_MODEL"
	ErrorSubservice        ErrorCode = "SUBSERVICE_ERROR"
	ErrorTimeout           ErrorCode = "SUBSERVICE_TIMEOUT"
	ErrorUnreachable       ErrorCode = "SUBSERVICE_UNREACHABLE"
	ErrorMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
)

// Error describes a failed dispatch. StatusCode, ContentType and Body are
// only set for ErrorSubservice.
type Error struct {
	Code        ErrorCode
	Model       string
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("dispatch: %s (model %q)", e.Code, e.Model)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d from %s", e.StatusCode, e.URL)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatusCode returns the subservice status for ErrorSubservice.
func (e *Error) HTTPStatusCode() int {
	return e.StatusCode
}

// AsError extracts *Error from err.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsCode reports whether err is a dispatch error with the given code.
func IsCode(err error, code ErrorCode) bool {
	de, ok := AsError(err)
	return ok && de.Code == code
}

func newError(code ErrorCode, model, url string, err error) *Error {
	return &Error{Code: code, Model: model, URL: url, Err: err}
}
