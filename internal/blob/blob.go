// Package blob provides access to the externally-owned binary storage that
// submission records point at.
package blob

import (
	"context"
	"errors"
	"fmt"
)

// Store reads and writes opaque blobs by key. The pipeline only ever reads
// submission blobs; writes happen at the ingestion boundary (uploads, webhook
// attachments, inbox drops) and when persisting extracted text.
type Store interface {
	// Get returns the blob stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores data under key, overwriting any existing blob.
	Put(ctx context.Context, key string, data []byte) error
	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// NotFoundError indicates no blob exists under the requested key.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blob not found: %s", e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
