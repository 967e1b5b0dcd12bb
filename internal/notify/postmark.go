package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"
)

// DefaultAPIURL is the Postmark single-email endpoint.
const DefaultAPIURL = "https://api.postmarkapp.com/email"

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 15 * time.Second

// maxSkillsShown caps the skill list in the email body.
const maxSkillsShown = 15

// Error represents a failed delivery attempt.
type Error struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("notify error: %s: %v", e.Message, e.Cause)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("notify error: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("notify error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Config holds Postmark delivery settings.
type Config struct {
	ServerToken string
	From        string
	To          string
	APIURL      string
	Timeout     time.Duration
}

// PostmarkNotifier sends completion emails through the Postmark HTTP API.
type PostmarkNotifier struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewPostmarkNotifier creates a notifier from config, applying defaults for
// the endpoint and timeout.
func NewPostmarkNotifier(cfg Config, logger *zap.Logger) *PostmarkNotifier {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostmarkNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// email is the Postmark send payload.
type email struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

// Notify renders and sends a single completion email.
func (p *PostmarkNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := renderBody(n)
	if err != nil {
		return &Error{Message: "failed to render email body", Cause: err}
	}

	msg := email{
		From:          p.cfg.From,
		To:            p.cfg.To,
		Subject:       subject(n),
		TextBody:      body,
		MessageStream: "outbound",
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return &Error{Message: "failed to encode email", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return &Error{Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.cfg.ServerToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return &Error{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("delivery rejected: %s", strings.TrimSpace(string(detail))),
		}
	}

	p.logger.Info("notification sent",
		zap.String("submission_id", n.Submission.ID.String()),
		zap.String("candidate", n.Result.CandidateName),
		zap.Int("score", n.Result.OverallScore))
	return nil
}

func subject(n Notification) string {
	name := n.Result.CandidateName
	if name == "" {
		name = n.Submission.Filename
	}
	return fmt.Sprintf("Resume Analysis Complete: %s (Score: %d)", name, n.Result.OverallScore)
}

var bodyTemplate = template.Must(template.New("email").Parse(`Resume analysis complete.

Candidate:        {{.Name}}
Overall score:    {{.Score}}/100
Experience:       {{.Years}} years ({{.Level}})
Fit assessment:   {{.Fit}}
Confidence:       {{printf "%.2f" .Confidence}}{{if .Truncated}} (input truncated){{end}}

Summary
-------
{{.Summary}}
{{if .Skills}}
Key skills ({{.SkillCount}} identified)
{{range .Skills}}  - {{.}}
{{end}}{{if .SkillsOmitted}}  ... and {{.SkillsOmitted}} more
{{end}}{{end}}{{if .Strengths}}
Top strengths
{{range .Strengths}}  + {{.}}
{{end}}{{end}}{{if .Recommendations}}
Recommendations
{{range .Recommendations}}  * {{.}}
{{end}}{{end}}
Source file: {{.Filename}}
Record:      {{.ResultID}}
`))

func renderBody(n Notification) (string, error) {
	r := n.Result

	name := r.CandidateName
	if name == "" {
		name = "Unknown Candidate"
	}
	summary := r.Summary
	if summary == "" {
		summary = "No summary available."
	}

	skills := r.Skills
	omitted := 0
	if len(skills) > maxSkillsShown {
		omitted = len(skills) - maxSkillsShown
		skills = skills[:maxSkillsShown]
	}

	data := struct {
		Name            string
		Score           int
		Years           int
		Level           string
		Fit             string
		Confidence      float64
		Truncated       bool
		Summary         string
		Skills          []string
		SkillCount      int
		SkillsOmitted   int
		Strengths       []string
		Recommendations []string
		Filename        string
		ResultID        string
	}{
		Name:            name,
		Score:           r.OverallScore,
		Years:           r.ExperienceYears,
		Level:           string(r.ExperienceLevel),
		Fit:             string(r.FitAssessment),
		Confidence:      r.Confidence,
		Truncated:       r.Truncated,
		Summary:         summary,
		Skills:          skills,
		SkillCount:      len(r.Skills),
		SkillsOmitted:   omitted,
		Strengths:       r.Strengths,
		Recommendations: r.Recommendations,
		Filename:        n.Submission.Filename,
		ResultID:        r.ID.String(),
	}

	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
