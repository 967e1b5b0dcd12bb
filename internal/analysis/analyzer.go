// Package analysis turns extracted resume text into a structured candidate
// profile using an LLM, defending against loosely-structured model replies.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/viaantech/resume-ranking/internal/llm"
	"github.com/viaantech/resume-ranking/internal/prompts"
	"github.com/viaantech/resume-ranking/internal/types"
)

const (
	// DefaultMaxInputChars bounds the resume text sent to the model.
	DefaultMaxInputChars = 16000
	// neutralScore is persisted when the model omits an overall score.
	// Partial extraction beats failing the whole analysis.
	neutralScore = 50
	// defaultConfidence is used when the model omits a confidence value.
	defaultConfidence = 0.5
	// truncationDiscount is applied to confidence when input was truncated.
	truncationDiscount = 0.8
)

// Request carries the inputs for one analysis call.
type Request struct {
	Text     string
	Filename string
}

// Result is a profile plus whether the input text was truncated to fit the
// model bound.
type Result struct {
	Profile   types.CandidateProfile
	Truncated bool
}

// Analyzer produces a candidate profile from resume text.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// ClientAnalyzer implements Analyzer on top of an llm.Client.
type ClientAnalyzer struct {
	client   llm.Client
	maxChars int
	logger   *zap.Logger
}

// NewClientAnalyzer returns an analyzer with the given input bound.
// maxChars <= 0 selects DefaultMaxInputChars.
func NewClientAnalyzer(client llm.Client, maxChars int, logger *zap.Logger) *ClientAnalyzer {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientAnalyzer{client: client, maxChars: maxChars, logger: logger}
}

// Analyze submits the resume text and maps the reply onto a CandidateProfile
// with defensive defaults for anything the model omitted.
func (a *ClientAnalyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &ModelRejectedError{Cause: errors.New("resume text is empty")}
	}

	truncated := false
	if len(text) > a.maxChars {
		text = truncateToRuneBoundary(text, a.maxChars)
		truncated = true
		a.logger.Info("resume text truncated for model bound",
			zap.String("filename", req.Filename),
			zap.Int("max_chars", a.maxChars),
		)
	}

	nameHint := types.NameHintFromFilename(req.Filename)
	prompt := prompts.Format(prompts.MustGet("analysis.json", "analyze-resume"), map[string]string{
		"Filename":   req.Filename,
		"NameHint":   nameHint,
		"ResumeText": text,
	})

	reply, err := a.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, classifyModelError(err)
	}

	profile, err := mapReply(reply, nameHint)
	if err != nil {
		return nil, err
	}

	if truncated {
		profile.Confidence *= truncationDiscount
	}

	return &Result{Profile: *profile, Truncated: truncated}, nil
}

// mapReply performs best-effort structured extraction from the raw model
// reply. It only fails when no usable signal can be recovered at all.
func mapReply(reply, nameHint string) (*types.CandidateProfile, error) {
	doc := llm.CleanJSONBlock(reply)

	var raw map[string]any
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		// The model may have wrapped the JSON in prose.
		recovered := llm.FirstJSONObject(doc)
		if recovered == "" {
			return nil, &ResponseUnparseableError{Cause: err}
		}
		if err := json.Unmarshal([]byte(recovered), &raw); err != nil {
			return nil, &ResponseUnparseableError{Cause: err}
		}
		doc = recovered
	}

	if err := validateProfileJSON(doc); err != nil {
		// Mis-typed fields are dropped rather than failing the analysis.
		raw = dropInvalidFields(raw)
	}

	if !hasUsableSignal(raw) {
		return nil, &ResponseUnparseableError{
			Cause: errors.New("no recognized profile fields in model reply"),
		}
	}

	name := asString(raw["candidate_name"])
	if name == "" {
		name = nameHint
	}

	score := neutralScore
	if v, ok := asInt(raw["overall_score"]); ok {
		score = v
	}

	confidence := defaultConfidence
	if v, ok := asFloat(raw["confidence"]); ok {
		confidence = v
	}
	confidence = clampConfidence(confidence)

	profile := &types.CandidateProfile{
		CandidateName:   name,
		ExperienceLevel: types.ParseExperienceLevel(asString(raw["experience_level"])),
		OverallScore:    types.ClampScore(score),
		Skills:          types.DedupeSkills(asStringSlice(raw["skills"])),
		Strengths:       asStringSlice(raw["strengths"]),
		Recommendations: asStringSlice(raw["recommendations"]),
		FitAssessment:   types.ParseFitAssessment(asString(raw["fit_assessment"])),
		Summary:         asString(raw["summary"]),
		Confidence:      confidence,
	}
	if years, ok := asInt(raw["experience_years"]); ok && years >= 0 {
		profile.ExperienceYears = years
	}
	return profile, nil
}

// profileFields are the reply keys that count as usable signal.
var profileFields = []string{
	"candidate_name", "experience_years", "experience_level", "skills",
	"overall_score", "fit_assessment", "strengths", "recommendations",
	"summary", "confidence",
}

func hasUsableSignal(raw map[string]any) bool {
	for _, field := range profileFields {
		if v, ok := raw[field]; ok && v != nil {
			return true
		}
	}
	return false
}

// dropInvalidFields removes values that cannot be coerced to their expected
// shape so the remaining fields still map cleanly.
func dropInvalidFields(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case "candidate_name", "experience_level", "fit_assessment", "summary":
			if asString(v) != "" {
				out[k] = v
			}
		case "experience_years", "overall_score":
			if _, ok := asInt(v); ok {
				out[k] = v
			}
		case "confidence":
			if _, ok := asFloat(v); ok {
				out[k] = v
			}
		case "skills", "strengths", "recommendations":
			if len(asStringSlice(v)) > 0 {
				out[k] = v
			}
		}
	}
	return out
}

func classifyModelError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &ModelRejectedError{Cause: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return &ModelUnavailableError{Cause: err}
		case apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusForbidden ||
			apiErr.Code == http.StatusUnauthorized:
			return &ModelRejectedError{Cause: err}
		}
	}

	// Timeouts, cancellations, transport failures.
	return &ModelUnavailableError{Cause: err}
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// truncateToRuneBoundary cuts s to at most max bytes without splitting a
// multi-byte rune, so the model never receives invalid UTF-8.
func truncateToRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// String renders a short log form of a request for diagnostics.
func (r Request) String() string {
	return fmt.Sprintf("analysis(%s, %d chars)", r.Filename, len(r.Text))
}
