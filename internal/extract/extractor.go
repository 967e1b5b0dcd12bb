// Package extract converts stored resume documents into plain text.
package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"go.uber.org/zap"

	"github.com/viaantech/resume-ranking/internal/blob"
)

// Extractor turns a stored binary document into plain UTF-8 text. It has no
// side effects; persisting the result belongs to the caller.
type Extractor interface {
	Extract(ctx context.Context, storageKey, filename, contentType string) (string, error)
}

// supportedTypes maps declared MIME types onto the converter input type.
// Anything else fails fast as an unsupported format.
var supportedTypes = map[string]string{
	"application/pdf": "application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword": "application/msword",
	"text/plain":         "text/plain",
}

// DocExtractor extracts text with the docconv converter suite.
type DocExtractor struct {
	blobs  blob.Store
	logger *zap.Logger
}

// NewDocExtractor returns an extractor reading documents from blobs.
func NewDocExtractor(blobs blob.Store, logger *zap.Logger) *DocExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocExtractor{blobs: blobs, logger: logger}
}

// Extract reads the blob under storageKey and converts it to text. The
// declared content type decides the converter; a type outside supportedTypes
// returns UnsupportedFormatError without touching storage.
func (e *DocExtractor) Extract(ctx context.Context, storageKey, filename, contentType string) (string, error) {
	mimeType, ok := supportedTypes[normalizeContentType(contentType)]
	if !ok {
		return "", &UnsupportedFormatError{ContentType: contentType}
	}

	data, err := e.blobs.Get(ctx, storageKey)
	if err != nil {
		return "", &SourceUnreadableError{Key: storageKey, Cause: err}
	}

	var text string
	if mimeType == "text/plain" {
		text = string(data)
		if !utf8.ValidString(text) {
			return "", &CorruptDocumentError{Filename: filename, Cause: errInvalidUTF8}
		}
	} else {
		res, err := docconv.Convert(bytes.NewReader(data), mimeType, true)
		if err != nil {
			return "", &CorruptDocumentError{Filename: filename, Cause: err}
		}
		text = res.Body
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &EmptyExtractionError{Filename: filename}
	}

	e.logger.Debug("document extracted",
		zap.String("storage_key", storageKey),
		zap.String("content_type", contentType),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

// normalizeContentType strips parameters such as "; charset=utf-8".
func normalizeContentType(ct string) string {
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
