package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/viaantech/resume-ranking/internal/types"
)

// AnalysisRepo implements AnalysisStore and HealthReporter on PostgreSQL.
type AnalysisRepo struct {
	db *DB
}

// NewAnalysisRepo returns an analysis repository over db.
func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

const analysisColumns = `id, parsed_resume_id, candidate_name, experience_years, experience_level,
	overall_score, skills, strengths, recommendations, fit_assessment, summary, confidence, truncated, created_at`

// Create inserts the candidate profile for a parsed resume. At most one
// analysis exists per parsed resume.
func (r *AnalysisRepo) Create(ctx context.Context, ar *types.AnalysisResult) error {
	if ar.ID == uuid.Nil {
		ar.ID = uuid.New()
	}

	err := r.db.pool.QueryRow(ctx,
		`INSERT INTO analysis_results (id, parsed_resume_id, candidate_name, experience_years,
		   experience_level, overall_score, skills, strengths, recommendations, fit_assessment,
		   summary, confidence, truncated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at`,
		ar.ID, ar.ParsedResumeID, ar.CandidateName, ar.ExperienceYears, ar.ExperienceLevel,
		ar.OverallScore, ar.Skills, ar.Strengths, ar.Recommendations, ar.FitAssessment,
		ar.Summary, ar.Confidence, ar.Truncated,
	).Scan(&ar.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateChildError{Entity: "analysis result", ParentID: ar.ParsedResumeID}
		}
		return fmt.Errorf("failed to create analysis result: %w", err)
	}
	return nil
}

func scanAnalysis(row pgx.Row) (*types.AnalysisResult, error) {
	var ar types.AnalysisResult
	err := row.Scan(&ar.ID, &ar.ParsedResumeID, &ar.CandidateName, &ar.ExperienceYears,
		&ar.ExperienceLevel, &ar.OverallScore, &ar.Skills, &ar.Strengths, &ar.Recommendations,
		&ar.FitAssessment, &ar.Summary, &ar.Confidence, &ar.Truncated, &ar.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ar, nil
}

// Get returns an analysis result by id.
func (r *AnalysisRepo) Get(ctx context.Context, id uuid.UUID) (*types.AnalysisResult, error) {
	ar, err := scanAnalysis(r.db.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analysis_results WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "analysis result", Key: id.String()}
		}
		return nil, fmt.Errorf("failed to get analysis result: %w", err)
	}
	return ar, nil
}

// GetByParsedResume returns the analysis for a parsed resume, if the analysis
// stage has completed.
func (r *AnalysisRepo) GetByParsedResume(ctx context.Context, parsedResumeID uuid.UUID) (*types.AnalysisResult, error) {
	ar, err := scanAnalysis(r.db.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analysis_results WHERE parsed_resume_id = $1`, parsedResumeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "analysis result", Key: parsedResumeID.String()}
		}
		return nil, fmt.Errorf("failed to get analysis result by parsed resume: %w", err)
	}
	return ar, nil
}

// List returns all analysis results, newest first.
func (r *AnalysisRepo) List(ctx context.Context) ([]types.AnalysisResult, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT `+analysisColumns+` FROM analysis_results ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}
	defer rows.Close()

	var ars []types.AnalysisResult
	for rows.Next() {
		ar, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis result: %w", err)
		}
		ars = append(ars, *ar)
	}
	return ars, rows.Err()
}

// Health computes the aggregate pipeline projection served by the query API.
func (r *AnalysisRepo) Health(ctx context.Context) (*Health, error) {
	health := &Health{
		CountsByStatus: make(map[types.SubmissionStatus]int),
	}

	rows, err := r.db.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM submissions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status types.SubmissionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		health.CountsByStatus[status] = count
		health.TotalSubmissions += count
		if status == types.StatusAnalyzed || status == types.StatusNotified {
			health.ProcessedCount += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if health.TotalSubmissions > 0 {
		health.SuccessRate = float64(health.ProcessedCount) / float64(health.TotalSubmissions) * 100
	}

	var lastProcessed *time.Time
	err = r.db.pool.QueryRow(ctx,
		`SELECT MAX(created_at) FROM analysis_results`).Scan(&lastProcessed)
	if err != nil {
		return nil, fmt.Errorf("failed to get last processed time: %w", err)
	}
	if lastProcessed != nil {
		ts := lastProcessed.UTC().Format(time.RFC3339)
		health.LastProcessedAt = &ts
	}

	switch {
	case health.TotalSubmissions == 0:
		health.Status = HealthIdle
	case health.SuccessRate < 50:
		health.Status = HealthDegraded
	default:
		health.Status = HealthHealthy
	}
	return health, nil
}
