// Package ingest accepts resume files into the system, from direct uploads
// and from a watched inbox directory: blob stored, Submission created,
// processing signal published.
package ingest

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viaantech/resume-ranking/internal/blob"
	"github.com/viaantech/resume-ranking/internal/store"
	"github.com/viaantech/resume-ranking/internal/types"
)

// Trigger enqueues a pipeline invocation for a submission.
type Trigger interface {
	TriggerProcessing(ctx context.Context, submissionID uuid.UUID) error
}

// Intake stores incoming files and registers them as submissions.
type Intake struct {
	submissions store.SubmissionStore
	blobs       blob.Store
	trigger     Trigger
	logger      *zap.Logger
}

// NewIntake creates an intake service.
func NewIntake(submissions store.SubmissionStore, blobs blob.Store, trigger Trigger, logger *zap.Logger) *Intake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Intake{submissions: submissions, blobs: blobs, trigger: trigger, logger: logger}
}

// Accept stores an uploaded file under a fresh storage key and creates its
// submission. The processing signal is best-effort: the file and record are
// durable, and a failed signal is recoverable through a manual re-trigger.
func (i *Intake) Accept(ctx context.Context, filename, contentType string, data []byte) (*types.Submission, error) {
	filename = sanitizeFilename(filename)
	if contentType == "" {
		contentType = detectContentType(filename)
	}

	id := uuid.New()
	key := fmt.Sprintf("submissions/%s/%s", id, filename)

	if err := i.blobs.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("storing upload %s: %w", filename, err)
	}

	sub := &types.Submission{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		StorageKey:  key,
	}
	if err := i.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("creating submission for %s: %w", filename, err)
	}

	i.signal(ctx, sub.ID)
	return sub, nil
}

// AcceptFile registers a file observed in the inbox. The storage key is
// derived from the filename, so re-observing the same file re-triggers the
// existing submission instead of creating a duplicate.
func (i *Intake) AcceptFile(ctx context.Context, path string) (*types.Submission, error) {
	filename := sanitizeFilename(filepath.Base(path))
	key := "inbox/" + filename

	if existing, err := i.submissions.GetByStorageKey(ctx, key); err == nil {
		i.logger.Info("inbox file already submitted, re-triggering",
			zap.String("path", path),
			zap.String("submission_id", existing.ID.String()))
		i.signal(ctx, existing.ID)
		return existing, nil
	} else if !store.IsNotFound(err) {
		return nil, fmt.Errorf("checking for existing submission: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inbox file %s: %w", path, err)
	}

	if err := i.blobs.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("storing inbox file %s: %w", path, err)
	}

	sub := &types.Submission{
		Filename:    filename,
		ContentType: detectContentType(filename),
		SizeBytes:   int64(len(data)),
		StorageKey:  key,
	}
	if err := i.submissions.Create(ctx, sub); err != nil {
		// A concurrent observer won the create race; its record wins.
		if store.IsDuplicateChild(err) {
			existing, getErr := i.submissions.GetByStorageKey(ctx, key)
			if getErr != nil {
				return nil, fmt.Errorf("loading submission after create race: %w", getErr)
			}
			i.signal(ctx, existing.ID)
			return existing, nil
		}
		return nil, fmt.Errorf("creating submission for %s: %w", path, err)
	}

	i.signal(ctx, sub.ID)
	return sub, nil
}

func (i *Intake) signal(ctx context.Context, id uuid.UUID) {
	if i.trigger == nil {
		return
	}
	if err := i.trigger.TriggerProcessing(ctx, id); err != nil {
		i.logger.Warn("publishing processing signal failed, submission awaits manual re-trigger",
			zap.String("submission_id", id.String()),
			zap.Error(err))
	}
}

// sanitizeFilename strips any path components from a client-supplied name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "unnamed"
	}
	return name
}

// detectContentType maps a filename extension onto a MIME type, defaulting to
// octet-stream for anything unrecognized.
func detectContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
