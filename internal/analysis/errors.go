package analysis

import (
	"errors"
	"fmt"
)

// ModelUnavailableError indicates the model endpoint could not be reached or
// answered with a transient failure. Retryable with backoff.
type ModelUnavailableError struct {
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model unavailable: %v", e.Cause)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Cause }

func (e *ModelUnavailableError) Retryable() bool { return true }

// ModelRejectedError indicates the model refused the request (content policy,
// malformed prompt). Never retried.
type ModelRejectedError struct {
	Cause error
}

func (e *ModelRejectedError) Error() string {
	return fmt.Sprintf("model rejected request: %v", e.Cause)
}

func (e *ModelRejectedError) Unwrap() error { return e.Cause }

func (e *ModelRejectedError) Retryable() bool { return false }

// ResponseUnparseableError indicates the model reply carried no recoverable
// profile signal. Model output is non-deterministic, so a bounded retry may
// succeed.
type ResponseUnparseableError struct {
	Cause error
}

func (e *ResponseUnparseableError) Error() string {
	return fmt.Sprintf("model response unparseable: %v", e.Cause)
}

func (e *ResponseUnparseableError) Unwrap() error { return e.Cause }

func (e *ResponseUnparseableError) Retryable() bool { return true }

type retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err is a transient analysis failure.
func IsRetryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
