package types

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RankedResume is one row of the ranked-candidate projection: every
// submission joined with its analysis when one exists, or placeholder
// defaults while the pipeline has not produced one yet.
type RankedResume struct {
	SubmissionID    uuid.UUID        `json:"submission_id"`
	Filename        string           `json:"filename"`
	Status          SubmissionStatus `json:"status"`
	CandidateName   string           `json:"candidate_name"`
	OverallScore    int              `json:"overall_score"`
	ExperienceYears int              `json:"experience_years"`
	ExperienceLevel ExperienceLevel  `json:"experience_level"`
	FitAssessment   FitAssessment    `json:"fit_assessment"`
	TotalSkills     int              `json:"total_skills"`
	KeySkills       []string         `json:"key_skills"`
	Analyzed        bool             `json:"analyzed"`
	CreatedAt       time.Time        `json:"created_at"`
	Rank            int              `json:"rank"`
}

// RankSort selects the ranking order.
type RankSort string

const (
	RankByScore      RankSort = "score"
	RankByExperience RankSort = "experience"
	RankBySkills     RankSort = "skills"
	RankByNewest     RankSort = "newest"
)

// ParseRankSort maps a query value onto a RankSort. Empty selects the
// default score ordering; unrecognized values are rejected.
func ParseRankSort(raw string) (RankSort, bool) {
	s := RankSort(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case "":
		return RankByScore, true
	case RankByScore, RankByExperience, RankBySkills, RankByNewest:
		return s, true
	}
	return "", false
}

// RankFilter narrows the ranked view.
type RankFilter string

const (
	RankFilterAll       RankFilter = "all"
	RankFilterHighScore RankFilter = "high_score"
	RankFilterSenior    RankFilter = "senior"
	RankFilterRecent    RankFilter = "recent"
)

// HighScoreThreshold is the minimum score for the high_score filter.
const HighScoreThreshold = 70

// RecentWindow bounds the recent filter.
const RecentWindow = 30 * 24 * time.Hour

// ParseRankFilter maps a query value onto a RankFilter. Empty selects all.
func ParseRankFilter(raw string) (RankFilter, bool) {
	f := RankFilter(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case "":
		return RankFilterAll, true
	case RankFilterAll, RankFilterHighScore, RankFilterSenior, RankFilterRecent:
		return f, true
	}
	return "", false
}

// RankResumes filters, orders, and rank-numbers the joined rows. Rows without
// a candidate name get one derived from the filename. Unanalyzed rows carry
// zero scores, so score ordering naturally sinks them to the bottom.
func RankResumes(rows []RankedResume, sortBy RankSort, filter RankFilter, now time.Time) []RankedResume {
	out := make([]RankedResume, 0, len(rows))
	for _, r := range rows {
		if r.CandidateName == "" {
			if hint := NameHintFromFilename(r.Filename); hint != "" {
				r.CandidateName = hint
			} else {
				r.CandidateName = "Unknown Candidate"
			}
		}
		if !keepRanked(r, filter, now) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		switch sortBy {
		case RankByExperience:
			if out[i].ExperienceYears != out[j].ExperienceYears {
				return out[i].ExperienceYears > out[j].ExperienceYears
			}
		case RankBySkills:
			if out[i].TotalSkills != out[j].TotalSkills {
				return out[i].TotalSkills > out[j].TotalSkills
			}
		case RankByNewest:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		default:
			if out[i].OverallScore != out[j].OverallScore {
				return out[i].OverallScore > out[j].OverallScore
			}
		}
		// Ties break newest first.
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func keepRanked(r RankedResume, filter RankFilter, now time.Time) bool {
	switch filter {
	case RankFilterHighScore:
		return r.OverallScore >= HighScoreThreshold
	case RankFilterSenior:
		return r.ExperienceLevel == LevelSenior || r.ExperienceLevel == LevelLead
	case RankFilterRecent:
		return now.Sub(r.CreatedAt) <= RecentWindow
	default:
		return true
	}
}

var (
	yearRE      = regexp.MustCompile(`\d{4}`)
	digitsRE    = regexp.MustCompile(`\d+`)
	camelCaseRE = regexp.MustCompile(`([a-z])([A-Z])`)
)

// NameHintFromFilename derives a likely candidate name from an uploaded
// filename ("Resume_Jane_Doe2024.pdf" -> "Jane Doe"). Returns "" when the
// filename carries no plausible full name.
func NameHintFromFilename(filename string) string {
	if filename == "" {
		return ""
	}

	name := filename
	for _, ext := range []string{".pdf", ".docx", ".doc", ".txt"} {
		name = strings.TrimSuffix(name, ext)
		name = strings.TrimSuffix(name, strings.ToUpper(ext))
	}
	for _, prefix := range []string{"Resume_", "CV_", "resume-", "cv-", "resume_", "cv_"} {
		name = strings.TrimPrefix(name, prefix)
	}
	name = yearRE.ReplaceAllString(name, "")
	name = digitsRE.ReplaceAllString(name, "")
	name = camelCaseRE.ReplaceAllString(name, "$1 $2")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.Join(strings.Fields(name), " ")

	if len(strings.Fields(name)) < 2 {
		return ""
	}
	return name
}
