package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/viaantech/resume-ranking/internal/types"
)

// SubmissionRepo implements SubmissionStore on PostgreSQL.
type SubmissionRepo struct {
	db *DB
}

// NewSubmissionRepo returns a submission repository over db.
func NewSubmissionRepo(db *DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

const submissionColumns = `id, filename, content_type, size_bytes, status, failure_reason, storage_key, created_at, updated_at`

// Create inserts a new submission record. A second submission for the same
// storage key fails with DuplicateChildError, which keeps duplicate inbound
// triggers from creating two records for one file.
func (r *SubmissionRepo) Create(ctx context.Context, sub *types.Submission) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.Status == "" {
		sub.Status = types.StatusReceived
	}

	err := r.db.pool.QueryRow(ctx,
		`INSERT INTO submissions (id, filename, content_type, size_bytes, status, failure_reason, storage_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		sub.ID, sub.Filename, sub.ContentType, sub.SizeBytes, sub.Status, sub.FailureReason, sub.StorageKey,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateChildError{Entity: "submission", ParentID: sub.ID}
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func scanSubmission(row pgx.Row) (*types.Submission, error) {
	var sub types.Submission
	err := row.Scan(&sub.ID, &sub.Filename, &sub.ContentType, &sub.SizeBytes,
		&sub.Status, &sub.FailureReason, &sub.StorageKey, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Get returns a submission by id.
func (r *SubmissionRepo) Get(ctx context.Context, id uuid.UUID) (*types.Submission, error) {
	sub, err := scanSubmission(r.db.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "submission", Key: id.String()}
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// GetByStorageKey returns the submission pointing at a storage key.
func (r *SubmissionRepo) GetByStorageKey(ctx context.Context, key string) (*types.Submission, error) {
	sub, err := scanSubmission(r.db.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE storage_key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "submission", Key: key}
		}
		return nil, fmt.Errorf("failed to get submission by storage key: %w", err)
	}
	return sub, nil
}

// TransitionStatus applies a guarded status change. The from status is both a
// state-graph check and an optimistic concurrency guard.
func (r *SubmissionRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to types.SubmissionStatus, reason string) error {
	if !types.CanTransition(from, to) {
		return fmt.Errorf("illegal status transition %s -> %s", from, to)
	}

	tag, err := r.db.pool.Exec(ctx,
		`UPDATE submissions SET status = $1, failure_reason = $2, updated_at = NOW()
		 WHERE id = $3 AND status = $4`,
		to, reason, id, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &StaleStatusError{ID: id, Expected: from}
	}
	return nil
}

// List returns all submissions, newest first.
func (r *SubmissionRepo) List(ctx context.Context) ([]types.Submission, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []types.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}
