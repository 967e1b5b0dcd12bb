// Package notify delivers completion emails once a submission has been fully
// analyzed. Delivery failures never fail the pipeline; the orchestrator logs
// them and moves the submission to its final state regardless.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/viaantech/resume-ranking/internal/types"
)

// Notification carries everything an outbound message needs.
type Notification struct {
	Submission *types.Submission
	Result     *types.AnalysisResult
}

// Notifier sends a completion notification for an analyzed submission.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NopNotifier discards notifications. Used when no email credentials are
// configured, so the pipeline still reaches its terminal state.
type NopNotifier struct {
	Logger *zap.Logger
}

func (n *NopNotifier) Notify(_ context.Context, msg Notification) error {
	if n.Logger != nil {
		n.Logger.Info("notification skipped, no notifier configured",
			zap.String("submission_id", msg.Submission.ID.String()),
			zap.String("candidate", msg.Result.CandidateName))
	}
	return nil
}
