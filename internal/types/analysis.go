package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExperienceLevel classifies a candidate's seniority.
type ExperienceLevel string

const (
	LevelEntry  ExperienceLevel = "entry"
	LevelJunior ExperienceLevel = "junior"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
	LevelLead   ExperienceLevel = "lead"
)

// FitAssessment is the model's overall hiring-fit judgment.
type FitAssessment string

const (
	FitLow    FitAssessment = "low"
	FitMedium FitAssessment = "medium"
	FitHigh   FitAssessment = "high"
)

// CandidateProfile is the structured output of the AI analysis.
type CandidateProfile struct {
	CandidateName   string          `json:"candidate_name"`
	ExperienceYears int             `json:"experience_years"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	OverallScore    int             `json:"overall_score"`
	Skills          []string        `json:"skills"`
	Strengths       []string        `json:"strengths"`
	Recommendations []string        `json:"recommendations"`
	FitAssessment   FitAssessment   `json:"fit_assessment"`
	Summary         string          `json:"summary"`
	Confidence      float64         `json:"confidence"`
}

// AnalysisResult persists a CandidateProfile for exactly one ParsedResume.
// Truncated records that the input text was cut to the model's size bound
// before analysis, which discounts Confidence.
type AnalysisResult struct {
	ID             uuid.UUID `json:"id"`
	ParsedResumeID uuid.UUID `json:"parsed_resume_id"`
	CandidateProfile
	Truncated bool      `json:"truncated"`
	CreatedAt time.Time `json:"created_at"`
}

// ClampScore bounds a score to the valid [0,100] range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// DedupeSkills removes case-insensitive duplicates while preserving the
// model's ordering and the casing of the first occurrence.
func DedupeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// ParseExperienceLevel maps free-form model output ("Mid-level", "Senior
// Engineer") onto the closed ExperienceLevel enum, defaulting to entry.
func ParseExperienceLevel(raw string) ExperienceLevel {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "lead"), strings.Contains(lower, "principal"),
		strings.Contains(lower, "staff"), strings.Contains(lower, "executive"):
		return LevelLead
	case strings.Contains(lower, "senior"):
		return LevelSenior
	case strings.Contains(lower, "mid"):
		return LevelMid
	case strings.Contains(lower, "junior"):
		return LevelJunior
	default:
		return LevelEntry
	}
}

// ParseFitAssessment maps free-form model output onto the fit enum,
// defaulting to medium.
func ParseFitAssessment(raw string) FitAssessment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return FitHigh
	case "low":
		return FitLow
	default:
		return FitMedium
	}
}
