package analysis

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/viaantech/resume-ranking/internal/llm"
)

// fakeLLM returns canned replies or errors for analyzer tests.
type fakeLLM struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Close() error { return nil }

const validReply = `{
	"candidate_name": "John Doe",
	"experience_years": 5,
	"experience_level": "mid",
	"skills": ["AWS", "Python", "aws"],
	"overall_score": 72,
	"fit_assessment": "high",
	"strengths": ["Cloud architecture", "Automation"],
	"recommendations": ["Deepen Kubernetes experience"],
	"summary": "Experienced cloud engineer.",
	"confidence": 0.9
}`

func TestAnalyzeValidReply(t *testing.T) {
	client := &fakeLLM{reply: validReply}
	analyzer := NewClientAnalyzer(client, 0, nil)

	res, err := analyzer.Analyze(context.Background(), Request{
		Text:     "John Doe, 5 years, AWS, Python",
		Filename: "John_Doe.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "John Doe", res.Profile.CandidateName)
	assert.Equal(t, 5, res.Profile.ExperienceYears)
	assert.Equal(t, 72, res.Profile.OverallScore)
	// Case-insensitive duplicate "aws" removed
	assert.Equal(t, []string{"AWS", "Python"}, res.Profile.Skills)
	assert.InDelta(t, 0.9, res.Profile.Confidence, 1e-9)
	assert.False(t, res.Truncated)
}

func TestAnalyzeDefensiveDefaults(t *testing.T) {
	// Model omitted almost everything; mapping must not fail.
	client := &fakeLLM{reply: `{"skills": ["Go"]}`}
	analyzer := NewClientAnalyzer(client, 0, nil)

	res, err := analyzer.Analyze(context.Background(), Request{
		Text:     "some resume text",
		Filename: "Jane_Smith_Resume.pdf",
	})
	require.NoError(t, err)

	// Missing name falls back to the filename hint.
	assert.Equal(t, "Jane Smith Resume", res.Profile.CandidateName)
	assert.Equal(t, neutralScore, res.Profile.OverallScore)
	assert.InDelta(t, defaultConfidence, res.Profile.Confidence, 1e-9)
	assert.Equal(t, []string{"Go"}, res.Profile.Skills)
}

func TestAnalyzeScoreClamped(t *testing.T) {
	client := &fakeLLM{reply: `{"candidate_name": "X Y", "overall_score": 250}`}
	analyzer := NewClientAnalyzer(client, 0, nil)

	res, err := analyzer.Analyze(context.Background(), Request{Text: "text", Filename: "x.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Profile.OverallScore)
}

func TestAnalyzeRecoverFromProse(t *testing.T) {
	client := &fakeLLM{reply: "Here is the analysis you asked for:\n" +
		`{"candidate_name": "Ada Lovelace", "overall_score": 95}` +
		"\nLet me know if you need more."}
	analyzer := NewClientAnalyzer(client, 0, nil)

	res, err := analyzer.Analyze(context.Background(), Request{Text: "text", Filename: "ada.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", res.Profile.CandidateName)
	assert.Equal(t, 95, res.Profile.OverallScore)
}

func TestAnalyzeUnparseableReply(t *testing.T) {
	client := &fakeLLM{reply: "I could not process this resume, sorry."}
	analyzer := NewClientAnalyzer(client, 0, nil)

	_, err := analyzer.Analyze(context.Background(), Request{Text: "text", Filename: "x.pdf"})
	require.Error(t, err)

	var unparseable *ResponseUnparseableError
	assert.ErrorAs(t, err, &unparseable)
	assert.True(t, IsRetryable(err))
}

func TestAnalyzeNoUsableSignal(t *testing.T) {
	client := &fakeLLM{reply: `{"unrelated": "fields", "only": true}`}
	analyzer := NewClientAnalyzer(client, 0, nil)

	_, err := analyzer.Analyze(context.Background(), Request{Text: "text", Filename: "x.pdf"})
	var unparseable *ResponseUnparseableError
	assert.ErrorAs(t, err, &unparseable)
}

func TestAnalyzeMistypedFieldsDropped(t *testing.T) {
	// overall_score is a string the schema rejects; usable fields survive.
	client := &fakeLLM{reply: `{"candidate_name": "Grace Hopper", "overall_score": "not a number", "skills": ["COBOL"]}`}
	analyzer := NewClientAnalyzer(client, 0, nil)

	res, err := analyzer.Analyze(context.Background(), Request{Text: "text", Filename: "x.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", res.Profile.CandidateName)
	assert.Equal(t, []string{"COBOL"}, res.Profile.Skills)
}

func TestAnalyzeEmptyText(t *testing.T) {
	client := &fakeLLM{reply: validReply}
	analyzer := NewClientAnalyzer(client, 0, nil)

	_, err := analyzer.Analyze(context.Background(), Request{Text: "   ", Filename: "x.pdf"})
	require.Error(t, err)

	var rejected *ModelRejectedError
	assert.ErrorAs(t, err, &rejected)
	assert.False(t, IsRetryable(err))
	assert.Zero(t, client.calls)
}

func TestAnalyzeTruncation(t *testing.T) {
	client := &fakeLLM{reply: validReply}
	analyzer := NewClientAnalyzer(client, 100, nil)

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}

	res, err := analyzer.Analyze(context.Background(), Request{Text: string(long), Filename: "x.pdf"})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	// Confidence discounted for truncated input
	assert.InDelta(t, 0.9*truncationDiscount, res.Profile.Confidence, 1e-9)
	// Prompt carries at most maxChars of resume text
	assert.NotContains(t, client.lastPrompt, string(long))
}

func TestAnalyzeTruncationKeepsValidUTF8(t *testing.T) {
	client := &fakeLLM{reply: validReply}
	analyzer := NewClientAnalyzer(client, 10, nil)

	// Every rune is 3 bytes, so a 10-byte cut would land mid-rune.
	res, err := analyzer.Analyze(context.Background(), Request{Text: "日本語日本語日本語日本語", Filename: "x.pdf"})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.True(t, utf8.ValidString(client.lastPrompt))
}

func TestTruncateToRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"ascii exact", "abcdef", 3, "abc"},
		{"under bound", "abc", 10, "abc"},
		{"mid-rune backs off", "aé", 2, "a"}, // é is 2 bytes starting at index 1
		{"multi-byte exact", "日本", 3, "日"},
		{"multi-byte split", "日本", 4, "日"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateToRuneBoundary(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestAnalyzeModelErrors(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRetryable bool
	}{
		{"rate limited", &googleapi.Error{Code: 429}, true},
		{"server error", &googleapi.Error{Code: 503}, true},
		{"bad request", &googleapi.Error{Code: 400}, false},
		{"forbidden", &googleapi.Error{Code: 403}, false},
		{"transport failure", errors.New("connection refused"), true},
		{"deadline", context.DeadlineExceeded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeLLM{err: tt.err}
			analyzer := NewClientAnalyzer(client, 0, nil)

			_, err := analyzer.Analyze(context.Background(), Request{Text: "text", Filename: "x.pdf"})
			require.Error(t, err)
			assert.Equal(t, tt.wantRetryable, IsRetryable(err))
		})
	}
}
