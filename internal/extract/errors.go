package extract

import (
	"errors"
	"fmt"
)

// errInvalidUTF8 reports a text document whose bytes are not valid UTF-8.
var errInvalidUTF8 = errors.New("document is not valid UTF-8")

// SourceUnreadableError indicates the submission blob could not be read from
// storage. Storage access failures are transient and worth retrying.
type SourceUnreadableError struct {
	Key   string
	Cause error
}

func (e *SourceUnreadableError) Error() string {
	return fmt.Sprintf("source unreadable: %s: %v", e.Key, e.Cause)
}

func (e *SourceUnreadableError) Unwrap() error { return e.Cause }

// Retryable marks storage failures as transient.
func (e *SourceUnreadableError) Retryable() bool { return true }

// CorruptDocumentError indicates the binary could not be parsed as the
// declared format. Retrying a malformed file never helps.
type CorruptDocumentError struct {
	Filename string
	Cause    error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("corrupt document %s: %v", e.Filename, e.Cause)
}

func (e *CorruptDocumentError) Unwrap() error { return e.Cause }

func (e *CorruptDocumentError) Retryable() bool { return false }

// UnsupportedFormatError indicates the declared content type is not a
// document format the extractor handles.
type UnsupportedFormatError struct {
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.ContentType)
}

func (e *UnsupportedFormatError) Retryable() bool { return false }

// EmptyExtractionError indicates extraction succeeded but produced no text.
// Transient layout issues occasionally resolve on a retry, so the pipeline
// allows a single retry for this class.
type EmptyExtractionError struct {
	Filename string
}

func (e *EmptyExtractionError) Error() string {
	return fmt.Sprintf("extraction produced no text for %s", e.Filename)
}

func (e *EmptyExtractionError) Retryable() bool { return true }

// retryable is implemented by errors that may succeed on a later attempt.
type retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err (or anything it wraps) is a transient
// extraction failure.
func IsRetryable(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// IsEmptyExtraction reports whether err is the empty-text soft failure.
func IsEmptyExtraction(err error) bool {
	var e *EmptyExtractionError
	return errors.As(err, &e)
}
