package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/viaantech/resume-ranking/internal/types"
)

// ParsedResumeRepo implements ParsedResumeStore on PostgreSQL.
type ParsedResumeRepo struct {
	db *DB
}

// NewParsedResumeRepo returns a parsed-resume repository over db.
func NewParsedResumeRepo(db *DB) *ParsedResumeRepo {
	return &ParsedResumeRepo{db: db}
}

const parsedResumeColumns = `id, submission_id, text_length, text_key, status, created_at`

// Create inserts the extraction result for a submission. The unique
// constraint on submission_id makes the insert the idempotency point: the
// losing writer of a concurrent race gets DuplicateChildError.
func (r *ParsedResumeRepo) Create(ctx context.Context, pr *types.ParsedResume) error {
	if pr.ID == uuid.Nil {
		pr.ID = uuid.New()
	}
	if pr.Status == "" {
		pr.Status = types.ParsePending
	}

	err := r.db.pool.QueryRow(ctx,
		`INSERT INTO parsed_resumes (id, submission_id, text_length, text_key, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		pr.ID, pr.SubmissionID, pr.TextLength, pr.TextKey, pr.Status,
	).Scan(&pr.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateChildError{Entity: "parsed resume", ParentID: pr.SubmissionID}
		}
		return fmt.Errorf("failed to create parsed resume: %w", err)
	}
	return nil
}

func scanParsedResume(row pgx.Row) (*types.ParsedResume, error) {
	var pr types.ParsedResume
	err := row.Scan(&pr.ID, &pr.SubmissionID, &pr.TextLength, &pr.TextKey, &pr.Status, &pr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// Get returns a parsed resume by id.
func (r *ParsedResumeRepo) Get(ctx context.Context, id uuid.UUID) (*types.ParsedResume, error) {
	pr, err := scanParsedResume(r.db.pool.QueryRow(ctx,
		`SELECT `+parsedResumeColumns+` FROM parsed_resumes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "parsed resume", Key: id.String()}
		}
		return nil, fmt.Errorf("failed to get parsed resume: %w", err)
	}
	return pr, nil
}

// GetBySubmission returns the parsed resume for a submission, if extraction
// has completed.
func (r *ParsedResumeRepo) GetBySubmission(ctx context.Context, submissionID uuid.UUID) (*types.ParsedResume, error) {
	pr, err := scanParsedResume(r.db.pool.QueryRow(ctx,
		`SELECT `+parsedResumeColumns+` FROM parsed_resumes WHERE submission_id = $1`, submissionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "parsed resume", Key: submissionID.String()}
		}
		return nil, fmt.Errorf("failed to get parsed resume by submission: %w", err)
	}
	return pr, nil
}

// List returns all parsed resumes, newest first.
func (r *ParsedResumeRepo) List(ctx context.Context) ([]types.ParsedResume, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT `+parsedResumeColumns+` FROM parsed_resumes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list parsed resumes: %w", err)
	}
	defer rows.Close()

	var prs []types.ParsedResume
	for rows.Next() {
		pr, err := scanParsedResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parsed resume: %w", err)
		}
		prs = append(prs, *pr)
	}
	return prs, rows.Err()
}
