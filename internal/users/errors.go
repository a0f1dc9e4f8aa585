package users

import (
	"context"
	"errors"
	"fmt"
)

// ErrCanceled reports that a fetch was abandoned because its context was
// canceled, usually by a newer request. It also matches context.Canceled.
var ErrCanceled = canceledError{}

type canceledError struct{}

func (canceledError) Error() string { return "request canceled" }

func (canceledError) Is(target error) bool { return target == context.Canceled }

// RequestError is returned when the endpoint answers with a non-2xx status.
type RequestError struct {
	StatusCode int
	StatusText string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("Request failed: %d %s", e.StatusCode, e.StatusText)
}

// FormatError is returned when the body is valid JSON but not an array.
type FormatError struct {
	// Kind is the JSON type that was received instead, e.g. "object".
	Kind string
}

func (e *FormatError) Error() string { return "Unexpected response format." }

// TransportError wraps network and body parse failures.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Kind classifies err into the names used by logs and the outcome journal.
func Kind(err error) string {
	var (
		reqErr *RequestError
		fmtErr *FormatError
		trErr  *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.As(err, &reqErr):
		return "request"
	case errors.As(err, &fmtErr):
		return "format"
	case errors.As(err, &trErr):
		return "transport"
	default:
		return "unknown"
	}
}
