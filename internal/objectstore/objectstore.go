// Package objectstore defines the object store client consumed by the reader.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Error codes shared by all backends. Backends may report any other code;
// those are treated as transient by the reader.
const (
	CodeNoSuchKey      = "NoSuchKey"
	CodeNoSuchBucket   = "NoSuchBucket"
	CodeAccessDenied   = "AccessDenied"
	CodeInternalError  = "InternalError"
	CodeSlowDown       = "SlowDown"
	CodeServiceUnavail = "ServiceUnavailable"
)

// Client is the single capability the reader needs from an object store.
type Client interface {
	// GetObject opens the object stored under key in bucket.
	// The caller must close the returned body.
	// Store-reported failures carry an error code (see Coder).
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Close releases any resources held by the client.
	Close() error
}

// Coder is implemented by errors reported by the store itself.
// smithy.APIError from the AWS SDK satisfies it as well.
type Coder interface {
	ErrorCode() string
}

// Error is a store-reported failure with a code from the store's vocabulary.
type Error struct {
	Code    string
	Message string
	Err     error
}

// Compile-time check that *Error implements Coder.
var _ Coder = (*Error)(nil)

// NewError returns an Error with the given code wrapping err.
func NewError(code string, err error) *Error {
	e := &Error{Code: code, Err: err}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "objectstore: " + e.Code
	}
	return fmt.Sprintf("objectstore: %s: %s", e.Code, e.Message)
}

// ErrorCode returns the store error code.
func (e *Error) ErrorCode() string { return e.Code }

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the store error code from err's chain.
// ok is false when err was not reported by a store.
func Code(err error) (code string, ok bool) {
	var c Coder
	if errors.As(err, &c) {
		return c.ErrorCode(), true
	}
	return "", false
}
