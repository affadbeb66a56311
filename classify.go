package bucketreader

import (
	"context"
	"errors"

	"github.com/discochess/bucketreader/internal/objectstore"
)

// verdict is the classification of a single attempt.
type verdict int

const (
	verdictSuccess verdict = iota
	verdictNotFound
	verdictFatal
	verdictRetryable
	verdictUnknown
	verdictCanceled
)

func (v verdict) String() string {
	switch v {
	case verdictSuccess:
		return "success"
	case verdictNotFound:
		return "not_found"
	case verdictFatal:
		return "fatal"
	case verdictRetryable:
		return "retryable"
	case verdictUnknown:
		return "unknown"
	case verdictCanceled:
		return "canceled"
	}
	return "invalid"
}

// attemptResult is the outcome of one GetObject call.
type attemptResult struct {
	verdict verdict
	data    []byte
	code    string
	err     error
}

// fatalCodes are store errors retrying cannot fix.
var fatalCodes = map[string]bool{
	objectstore.CodeNoSuchBucket: true,
	objectstore.CodeAccessDenied: true,
}

// notFoundCodes mean the object is absent. "NotFound" is what S3 reports
// when no error body is available.
var notFoundCodes = map[string]bool{
	objectstore.CodeNoSuchKey: true,
	"NotFound":                true,
}

// classify maps a failed attempt's error onto a verdict.
// Only store-reported errors are ever retried.
func classify(err error) attemptResult {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return attemptResult{verdict: verdictCanceled, err: err}
	}

	code, ok := objectstore.Code(err)
	if !ok {
		return attemptResult{verdict: verdictUnknown, err: err}
	}

	res := attemptResult{code: code, err: err}
	switch {
	case notFoundCodes[code]:
		res.verdict = verdictNotFound
	case fatalCodes[code]:
		res.verdict = verdictFatal
	default:
		res.verdict = verdictRetryable
	}
	return res
}
