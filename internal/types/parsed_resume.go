package types

import (
	"time"

	"github.com/google/uuid"
)

// ParseStatus records the outcome of text extraction for a submission.
type ParseStatus string

const (
	ParsePending ParseStatus = "pending"
	ParseSuccess ParseStatus = "success"
	ParseFailed  ParseStatus = "failed"
)

// ParsedResume holds the plain-text extraction result for one submission.
// The raw text lives in blob storage under TextKey; the row stores only its
// length so list queries stay cheap. At most one ParsedResume exists per
// submission, enforced by a unique constraint on SubmissionID.
type ParsedResume struct {
	ID           uuid.UUID   `json:"id"`
	SubmissionID uuid.UUID   `json:"submission_id"`
	TextLength   int         `json:"text_length"`
	TextKey      string      `json:"text_key"`
	Status       ParseStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}
