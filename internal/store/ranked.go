package store

import (
	"context"
	"fmt"

	"github.com/viaantech/resume-ranking/internal/types"
)

// RankedRepo implements RankedLister on PostgreSQL.
type RankedRepo struct {
	db *DB
}

// NewRankedRepo returns a ranked-view repository over db.
func NewRankedRepo(db *DB) *RankedRepo {
	return &RankedRepo{db: db}
}

// maxKeySkills caps the skills shown per row in the ranked view; the full
// list stays on the analysis record.
const maxKeySkills = 5

// ListRanked joins every submission with its analysis when one exists.
// Unanalyzed submissions come back with zero-value profile fields so the
// ranked view can show them as placeholders.
func (r *RankedRepo) ListRanked(ctx context.Context) ([]types.RankedResume, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT s.id, s.filename, s.status, s.created_at,
		        COALESCE(ar.candidate_name, ''),
		        COALESCE(ar.overall_score, 0),
		        COALESCE(ar.experience_years, 0),
		        COALESCE(ar.experience_level, ''),
		        COALESCE(ar.fit_assessment, ''),
		        COALESCE(ar.skills, '{}'),
		        ar.id IS NOT NULL
		 FROM submissions s
		 LEFT JOIN parsed_resumes pr ON pr.submission_id = s.id
		 LEFT JOIN analysis_results ar ON ar.parsed_resume_id = pr.id
		 ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranked resumes: %w", err)
	}
	defer rows.Close()

	var out []types.RankedResume
	for rows.Next() {
		var rr types.RankedResume
		var skills []string
		err := rows.Scan(&rr.SubmissionID, &rr.Filename, &rr.Status, &rr.CreatedAt,
			&rr.CandidateName, &rr.OverallScore, &rr.ExperienceYears,
			&rr.ExperienceLevel, &rr.FitAssessment, &skills, &rr.Analyzed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranked resume: %w", err)
		}

		rr.TotalSkills = len(skills)
		if len(skills) > maxKeySkills {
			skills = skills[:maxKeySkills]
		}
		rr.KeySkills = skills
		if !rr.Analyzed {
			rr.ExperienceLevel = types.LevelEntry
			rr.FitAssessment = types.FitLow
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
