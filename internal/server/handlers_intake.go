package server

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// handleUpload accepts a direct multipart file upload, creates the submission,
// and kicks off processing.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	sub, err := s.intake.Accept(r.Context(), header.Filename, contentType, data)
	if err != nil {
		s.logger.Error("upload intake failed", zap.String("filename", header.Filename), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to accept submission")
		return
	}

	s.jsonResponse(w, http.StatusAccepted, map[string]any{
		"submission_id": sub.ID,
		"status":        sub.Status,
	})
}

// handleReprocess re-triggers processing for an existing submission. The
// acknowledgment is immediate; processing resumes asynchronously from the
// submission's persisted stage.
func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{
			"result": "rejected",
			"error":  "invalid submission id",
		})
		return
	}

	if _, err := s.submissions.Get(r.Context(), id); err != nil {
		s.jsonResponse(w, HTTPStatus(err), map[string]string{
			"result": "rejected",
			"error":  "submission not found",
		})
		return
	}

	if err := s.trigger.TriggerProcessing(r.Context(), id); err != nil {
		s.logger.Error("re-trigger failed", zap.String("submission_id", id.String()), zap.Error(err))
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{
			"result": "rejected",
			"error":  "failed to enqueue processing",
		})
		return
	}

	s.jsonResponse(w, http.StatusAccepted, map[string]string{
		"result":        "accepted",
		"submission_id": id.String(),
	})
}

// inboundEmail is the inbound-email webhook payload: a message id plus
// base64-encoded attachments.
type inboundEmail struct {
	MessageID   string            `json:"MessageID"`
	Attachments []emailAttachment `json:"Attachments"`
}

type emailAttachment struct {
	Name        string `json:"Name"`
	ContentType string `json:"ContentType"`
	Content     string `json:"Content"`
}

// resumeContentTypes are the attachment types the webhook treats as resumes.
var resumeContentTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword": true,
	"text/plain":         true,
	"application/rtf":    true,
}

var resumeExtensions = []string{".pdf", ".docx", ".doc", ".txt", ".rtf"}

var resumeKeywords = []string{"resume", "cv", "curriculum", "vitae"}

// isResumeAttachment reports whether an attachment is likely a resume: a
// recognized extension with a recognized content type, or a resume keyword in
// the filename.
func isResumeAttachment(a emailAttachment) bool {
	name := strings.ToLower(a.Name)
	contentType := strings.ToLower(a.ContentType)

	hasExt := false
	for _, ext := range resumeExtensions {
		if strings.HasSuffix(name, ext) {
			hasExt = true
			break
		}
	}
	hasKeyword := false
	for _, kw := range resumeKeywords {
		if strings.Contains(name, kw) {
			hasKeyword = true
			break
		}
	}
	return (hasExt && resumeContentTypes[contentType]) || hasKeyword
}

// handleInboundEmail accepts an inbound-email webhook, extracts resume-like
// attachments, and submits each one. Non-resume attachments are ignored.
func (s *Server) handleInboundEmail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	var payload inboundEmail
	if err := decodeJSON(r, &payload); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	accepted := make([]uuid.UUID, 0, len(payload.Attachments))
	for _, att := range payload.Attachments {
		if !isResumeAttachment(att) {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			s.logger.Warn("skipping attachment with invalid encoding",
				zap.String("message_id", payload.MessageID),
				zap.String("name", att.Name))
			continue
		}
		sub, err := s.intake.Accept(r.Context(), att.Name, att.ContentType, data)
		if err != nil {
			s.logger.Error("webhook intake failed",
				zap.String("message_id", payload.MessageID),
				zap.String("name", att.Name),
				zap.Error(err))
			continue
		}
		accepted = append(accepted, sub.ID)
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"message_id":  payload.MessageID,
		"submissions": accepted,
		"count":       len(accepted),
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	return json.NewDecoder(r.Body).Decode(v)
}
