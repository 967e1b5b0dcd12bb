// Package types defines the core entities shared across the resume pipeline.
package types

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus tracks a submission through the processing state machine.
type SubmissionStatus string

const (
	StatusReceived         SubmissionStatus = "received"
	StatusExtracting       SubmissionStatus = "extracting"
	StatusExtracted        SubmissionStatus = "extracted"
	StatusAnalyzing        SubmissionStatus = "analyzing"
	StatusAnalyzed         SubmissionStatus = "analyzed"
	StatusNotified         SubmissionStatus = "notified"
	StatusExtractionFailed SubmissionStatus = "extraction_failed"
	StatusAnalysisFailed   SubmissionStatus = "analysis_failed"
	StatusFailed           SubmissionStatus = "failed"
)

// Submission is the record of a single resume file accepted for processing.
// The pipeline orchestrator is the only writer of Status; the blob the
// StorageKey points at is owned externally and never deleted here.
type Submission struct {
	ID            uuid.UUID        `json:"id"`
	Filename      string           `json:"filename"`
	ContentType   string           `json:"content_type"`
	SizeBytes     int64            `json:"size_bytes"`
	Status        SubmissionStatus `json:"status"`
	FailureReason string           `json:"failure_reason,omitempty"`
	StorageKey    string           `json:"storage_key"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// transitions is the allowed state graph. Failure branches may re-enter their
// working state (bounded retry) or fall through to the terminal failed state.
var transitions = map[SubmissionStatus][]SubmissionStatus{
	StatusReceived:         {StatusExtracting},
	StatusExtracting:       {StatusExtracted, StatusExtractionFailed},
	StatusExtracted:        {StatusAnalyzing},
	StatusAnalyzing:        {StatusAnalyzed, StatusAnalysisFailed},
	StatusAnalyzed:         {StatusNotified},
	StatusNotified:         {},
	StatusExtractionFailed: {StatusExtracting, StatusFailed},
	StatusAnalysisFailed:   {StatusAnalyzing, StatusFailed},
	StatusFailed:           {},
}

// CanTransition reports whether moving from one status to another follows the
// state graph.
func CanTransition(from, to SubmissionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s SubmissionStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether the status is a member of the state graph.
func (s SubmissionStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}
