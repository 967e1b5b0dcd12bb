package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedRow(name string, score, years, skills int, level ExperienceLevel, age time.Duration, now time.Time) RankedResume {
	return RankedResume{
		SubmissionID:    uuid.New(),
		Filename:        "resume.pdf",
		Status:          StatusNotified,
		CandidateName:   name,
		OverallScore:    score,
		ExperienceYears: years,
		TotalSkills:     skills,
		ExperienceLevel: level,
		FitAssessment:   FitMedium,
		Analyzed:        true,
		CreatedAt:       now.Add(-age),
	}
}

func TestRankResumesByScore(t *testing.T) {
	now := time.Now()
	rows := []RankedResume{
		rankedRow("Low", 40, 2, 3, LevelJunior, time.Hour, now),
		rankedRow("High", 90, 8, 12, LevelSenior, 2*time.Hour, now),
		rankedRow("Mid", 65, 4, 6, LevelMid, 3*time.Hour, now),
	}

	ranked := RankResumes(rows, RankByScore, RankFilterAll, now)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"High", "Mid", "Low"}, []string{
		ranked[0].CandidateName, ranked[1].CandidateName, ranked[2].CandidateName,
	})
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
}

func TestRankResumesScoreTiesBreakNewest(t *testing.T) {
	now := time.Now()
	rows := []RankedResume{
		rankedRow("Older", 70, 3, 5, LevelMid, 2*time.Hour, now),
		rankedRow("Newer", 70, 3, 5, LevelMid, time.Hour, now),
	}

	ranked := RankResumes(rows, RankByScore, RankFilterAll, now)
	assert.Equal(t, "Newer", ranked[0].CandidateName)
}

func TestRankResumesSortVariants(t *testing.T) {
	now := time.Now()
	rows := []RankedResume{
		rankedRow("A", 50, 10, 2, LevelSenior, 3*time.Hour, now),
		rankedRow("B", 80, 2, 9, LevelJunior, time.Hour, now),
	}

	byExperience := RankResumes(rows, RankByExperience, RankFilterAll, now)
	assert.Equal(t, "A", byExperience[0].CandidateName)

	bySkills := RankResumes(rows, RankBySkills, RankFilterAll, now)
	assert.Equal(t, "B", bySkills[0].CandidateName)

	byNewest := RankResumes(rows, RankByNewest, RankFilterAll, now)
	assert.Equal(t, "B", byNewest[0].CandidateName)
}

func TestRankResumesFilters(t *testing.T) {
	now := time.Now()
	rows := []RankedResume{
		rankedRow("Strong Senior", 85, 9, 14, LevelSenior, time.Hour, now),
		rankedRow("Junior", 45, 1, 3, LevelJunior, 2*time.Hour, now),
		rankedRow("Old Lead", 75, 12, 10, LevelLead, 45*24*time.Hour, now),
	}

	highScore := RankResumes(rows, RankByScore, RankFilterHighScore, now)
	require.Len(t, highScore, 2)
	assert.Equal(t, "Strong Senior", highScore[0].CandidateName)
	assert.Equal(t, "Old Lead", highScore[1].CandidateName)

	senior := RankResumes(rows, RankByScore, RankFilterSenior, now)
	require.Len(t, senior, 2)

	recent := RankResumes(rows, RankByScore, RankFilterRecent, now)
	require.Len(t, recent, 2)
	for _, r := range recent {
		assert.NotEqual(t, "Old Lead", r.CandidateName)
	}
}

func TestRankResumesPlaceholderEntries(t *testing.T) {
	now := time.Now()
	unprocessed := RankedResume{
		SubmissionID: uuid.New(),
		Filename:     "Resume_Jane_Doe.pdf",
		Status:       StatusReceived,
		CreatedAt:    now,
	}
	opaque := RankedResume{
		SubmissionID: uuid.New(),
		Filename:     "scan0001.pdf",
		Status:       StatusExtracting,
		CreatedAt:    now,
	}
	analyzed := rankedRow("Real Candidate", 80, 6, 8, LevelSenior, time.Hour, now)

	ranked := RankResumes([]RankedResume{unprocessed, opaque, analyzed}, RankByScore, RankFilterAll, now)
	require.Len(t, ranked, 3)

	// Analyzed rows rank above zero-score placeholders.
	assert.Equal(t, "Real Candidate", ranked[0].CandidateName)
	assert.True(t, ranked[0].Analyzed)

	names := []string{ranked[1].CandidateName, ranked[2].CandidateName}
	assert.Contains(t, names, "Jane Doe")
	assert.Contains(t, names, "Unknown Candidate")
	assert.False(t, ranked[1].Analyzed)
}

func TestParseRankSort(t *testing.T) {
	tests := []struct {
		raw  string
		want RankSort
		ok   bool
	}{
		{"", RankByScore, true},
		{"score", RankByScore, true},
		{"EXPERIENCE", RankByExperience, true},
		{"skills", RankBySkills, true},
		{"newest", RankByNewest, true},
		{"bogus", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRankSort(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParseRankFilter(t *testing.T) {
	got, ok := ParseRankFilter("")
	assert.True(t, ok)
	assert.Equal(t, RankFilterAll, got)

	got, ok = ParseRankFilter("high_score")
	assert.True(t, ok)
	assert.Equal(t, RankFilterHighScore, got)

	_, ok = ParseRankFilter("everything")
	assert.False(t, ok)
}

func TestNameHintFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Resume_Jane_Doe2024.pdf", "Jane Doe"},
		{"CV_John_Smith.docx", "John Smith"},
		{"AlanTuring.pdf", "Alan Turing"},
		{"resume-mary-jones.txt", "mary jones"},
		{"resume.pdf", ""},
		{"x.pdf", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, NameHintFromFilename(tt.filename))
		})
	}
}
