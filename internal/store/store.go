// Package store provides PostgreSQL persistence for the pipeline's stage
// records: submissions, parsed resumes, and analysis results.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/viaantech/resume-ranking/internal/types"
)

// SubmissionStore persists raw file records. The pipeline orchestrator is the
// only caller of TransitionStatus.
type SubmissionStore interface {
	Create(ctx context.Context, sub *types.Submission) error
	Get(ctx context.Context, id uuid.UUID) (*types.Submission, error)
	GetByStorageKey(ctx context.Context, key string) (*types.Submission, error)
	// TransitionStatus moves a submission from one status to another with an
	// optimistic guard: it fails with StaleStatusError when the persisted
	// status no longer matches from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to types.SubmissionStatus, reason string) error
	List(ctx context.Context) ([]types.Submission, error)
}

// ParsedResumeStore persists extraction results, at most one per submission.
type ParsedResumeStore interface {
	Create(ctx context.Context, pr *types.ParsedResume) error
	Get(ctx context.Context, id uuid.UUID) (*types.ParsedResume, error)
	GetBySubmission(ctx context.Context, submissionID uuid.UUID) (*types.ParsedResume, error)
	List(ctx context.Context) ([]types.ParsedResume, error)
}

// AnalysisStore persists candidate profiles, at most one per parsed resume.
type AnalysisStore interface {
	Create(ctx context.Context, ar *types.AnalysisResult) error
	Get(ctx context.Context, id uuid.UUID) (*types.AnalysisResult, error)
	GetByParsedResume(ctx context.Context, parsedResumeID uuid.UUID) (*types.AnalysisResult, error)
	List(ctx context.Context) ([]types.AnalysisResult, error)
}

// RankedLister serves the ranked-candidate projection: all submissions joined
// with their analysis, placeholders included for the ones still in flight.
type RankedLister interface {
	ListRanked(ctx context.Context) ([]types.RankedResume, error)
}

// Locker provides per-submission mutual exclusion across processes, so
// duplicate triggers for the same submission never run the pipeline
// concurrently.
type Locker interface {
	// TryLock attempts to take the processing lock for a submission. On
	// success it returns a release function; ok is false when another
	// invocation holds the lock.
	TryLock(ctx context.Context, submissionID uuid.UUID) (release func(), ok bool, err error)
}

// HealthReporter computes the aggregate pipeline health projection.
type HealthReporter interface {
	Health(ctx context.Context) (*Health, error)
}

// Health is the aggregate system view served by the query API.
type Health struct {
	Status           string                         `json:"status"`
	TotalSubmissions int                            `json:"total_submissions"`
	ProcessedCount   int                            `json:"processed_count"`
	SuccessRate      float64                        `json:"success_rate"`
	LastProcessedAt  *string                        `json:"last_processed_at,omitempty"`
	CountsByStatus   map[types.SubmissionStatus]int `json:"counts_by_status"`
}

// Health status values.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthIdle     = "idle"
)

// NotFoundError indicates no record exists for the requested key.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// DuplicateChildError indicates a second child record was attempted for a
// parent that already has one. The losing writer of a concurrent create race
// receives this.
type DuplicateChildError struct {
	Entity   string
	ParentID uuid.UUID
}

func (e *DuplicateChildError) Error() string {
	return fmt.Sprintf("%s already exists for parent %s", e.Entity, e.ParentID)
}

// IsDuplicateChild reports whether err is a DuplicateChildError.
func IsDuplicateChild(err error) bool {
	var d *DuplicateChildError
	return errors.As(err, &d)
}

// StaleStatusError indicates a guarded status transition lost a race: the
// submission's persisted status no longer matches the expected one.
type StaleStatusError struct {
	ID       uuid.UUID
	Expected types.SubmissionStatus
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("submission %s is no longer in status %s", e.ID, e.Expected)
}

// IsStaleStatus reports whether err is a StaleStatusError.
func IsStaleStatus(err error) bool {
	var s *StaleStatusError
	return errors.As(err, &s)
}
