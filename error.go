package switchyard

import (
	"errors"
	"fmt"
)

var (
	ErrBadConfig    = errors.New("bad config")
	ErrExists       = errors.New("already exists")
	ErrForbidden    = errors.New("forbidden")
	ErrMissingData  = errors.New("missing data")
	ErrNotFound     = errors.New("not found")
	ErrNotValid     = errors.New("invalid")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnexpected   = errors.New("unexpected")

	// ErrDuplicateHandler indicates a table already has a handler registered for it.
	ErrDuplicateHandler = errors.New("handler already registered")

	// ErrNotRegistered indicates no handler is registered for a table.
	ErrNotRegistered = errors.New("handler not registered")

	// ErrNoHandler indicates no registered handler matches a URI.
	ErrNoHandler = errors.New("no handler for uri")

	// ErrUnsupported indicates a handler does not support an operation.
	ErrUnsupported = errors.New("unsupported operation")
)

// A NoHandlerError reports a URI no registered handler matches,
// including a URI without any segments.
type NoHandlerError struct {
	URI URI
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNoHandler, e.URI)
}

func (*NoHandlerError) Unwrap() error { return ErrNoHandler }

// An UnsupportedError reports an Operation a handler does not perform on a URI.
type UnsupportedError struct {
	Op     Operation
	URI    URI
	Reason string
}

// Unsupported constructs an *UnsupportedError for op on uri.
func Unsupported(op Operation, uri URI) *UnsupportedError {
	return &UnsupportedError{Op: op, URI: uri, Reason: fmt.Sprintf("%s not allowed on this uri", op)}
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrUnsupported, e.Reason, e.URI)
}

func (*UnsupportedError) Unwrap() error { return ErrUnsupported }
