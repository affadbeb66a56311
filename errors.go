package bucketreader

import (
	"errors"
	"fmt"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrConnection indicates the store client could not be constructed.
	ErrConnection = errors.New("bucketreader: cannot connect to object store")

	// ErrFatal indicates the store rejected the read in a way retrying
	// cannot fix (missing bucket, access denied).
	ErrFatal = errors.New("bucketreader: fatal store error")

	// ErrRetryExhausted indicates every attempt failed with a transient error.
	ErrRetryExhausted = errors.New("bucketreader: retries exhausted")

	// ErrUnclassified indicates a failure that did not come from the store.
	// Such failures are never retried.
	ErrUnclassified = errors.New("bucketreader: unclassified error")

	// ErrCanceled indicates the context ended before the read completed.
	ErrCanceled = errors.New("bucketreader: read canceled")

	// ErrClosed indicates the handle or reader has been closed.
	ErrClosed = errors.New("bucketreader: closed")

	// ErrNoHandle indicates no handle was provided.
	ErrNoHandle = errors.New("bucketreader: no handle provided")

	// ErrInvalidPolicy indicates a retry policy failed validation.
	ErrInvalidPolicy = errors.New("bucketreader: invalid retry policy")
)

// ReadError describes a failed read.
//
// errors.Is matches Kind (ErrFatal, ErrRetryExhausted, ErrUnclassified,
// ErrCanceled). Unwrap returns the last underlying error, so the original
// store error stays reachable through errors.As.
type ReadError struct {
	Request  Request
	Kind     error
	Code     string // store error code of the last attempt, if any
	Attempts int
	Err      error
}

func (e *ReadError) Error() string {
	msg := fmt.Sprintf("%v: %s after %d attempt(s)", e.Kind, e.Request, e.Attempts)
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReadError) Unwrap() error { return e.Err }

// Is reports whether target is the error's kind.
func (e *ReadError) Is(target error) bool {
	return target == e.Kind
}
