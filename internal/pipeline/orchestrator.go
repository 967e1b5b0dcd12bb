// Package pipeline sequences a submission through extraction, analysis, and
// notification. The orchestrator is the sole writer of submission status and
// the sole creator of parsed-resume and analysis records; every invocation is
// a short-lived unit of work that resumes from the last persisted stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viaantech/resume-ranking/internal/analysis"
	"github.com/viaantech/resume-ranking/internal/blob"
	"github.com/viaantech/resume-ranking/internal/extract"
	"github.com/viaantech/resume-ranking/internal/notify"
	"github.com/viaantech/resume-ranking/internal/store"
	"github.com/viaantech/resume-ranking/internal/types"
)

// Defaults for the retry policy and stage bounds.
const (
	DefaultMaxAttempts  = 3
	DefaultBackoffBase  = 1 * time.Second
	DefaultBackoffCap   = 30 * time.Second
	DefaultStageTimeout = 2 * time.Minute

	// Empty extractions get one retry, not the full ceiling: a second empty
	// result is conclusive, the document simply has no text.
	emptyExtractionAttempts = 2
)

// Config tunes the orchestrator's retry and timeout policy. Zero values fall
// back to the package defaults.
type Config struct {
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffCap   time.Duration
	StageTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = DefaultBackoffCap
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = DefaultStageTimeout
	}
	return c
}

// Orchestrator drives the submission state machine.
type Orchestrator struct {
	submissions store.SubmissionStore
	parsed      store.ParsedResumeStore
	analyses    store.AnalysisStore
	locker      store.Locker
	blobs       blob.Store
	extractor   extract.Extractor
	analyzer    analysis.Analyzer
	notifier    notify.Notifier
	cfg         Config
	logger      *zap.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Submissions store.SubmissionStore
	Parsed      store.ParsedResumeStore
	Analyses    store.AnalysisStore
	Locker      store.Locker
	Blobs       blob.Store
	Extractor   extract.Extractor
	Analyzer    analysis.Analyzer
	Notifier    notify.Notifier
	Logger      *zap.Logger
}

// New creates an orchestrator. A nil notifier is replaced with a no-op one.
func New(deps Deps, cfg Config) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = &notify.NopNotifier{Logger: logger}
	}
	return &Orchestrator{
		submissions: deps.Submissions,
		parsed:      deps.Parsed,
		analyses:    deps.Analyses,
		locker:      deps.Locker,
		blobs:       deps.Blobs,
		extractor:   deps.Extractor,
		analyzer:    deps.Analyzer,
		notifier:    notifier,
		cfg:         cfg.withDefaults(),
		logger:      logger,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TextKey is the blob key extracted resume text is stored under.
func TextKey(submissionID uuid.UUID) string {
	return fmt.Sprintf("texts/%s.txt", submissionID)
}

// Process runs the pipeline for one submission, resuming from whatever stage
// is already persisted. Re-invocation for a submission past a completed stage
// is a no-op for that stage; invocation for a terminal submission is a full
// no-op. Duplicate concurrent invocations are serialized by the locker: the
// loser exits immediately without touching any state.
func (o *Orchestrator) Process(ctx context.Context, submissionID uuid.UUID) error {
	release, ok, err := o.locker.TryLock(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("acquiring submission lock: %w", err)
	}
	if !ok {
		o.logger.Info("submission already being processed, skipping",
			zap.String("submission_id", submissionID.String()))
		return nil
	}
	defer release()

	sub, err := o.submissions.Get(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("loading submission: %w", err)
	}

	for !sub.Status.IsTerminal() && sub.Status != types.StatusNotified {
		var stageErr error
		switch sub.Status {
		case types.StatusReceived:
			stageErr = o.transition(ctx, sub, types.StatusExtracting, "")
		case types.StatusExtracting, types.StatusExtractionFailed:
			stageErr = o.runExtraction(ctx, sub)
		case types.StatusExtracted:
			stageErr = o.transition(ctx, sub, types.StatusAnalyzing, "")
		case types.StatusAnalyzing, types.StatusAnalysisFailed:
			stageErr = o.runAnalysis(ctx, sub)
		case types.StatusAnalyzed:
			stageErr = o.runNotification(ctx, sub)
		default:
			return fmt.Errorf("submission %s in unknown status %q", sub.ID, sub.Status)
		}
		if stageErr != nil {
			return stageErr
		}
	}

	o.logger.Info("pipeline invocation complete",
		zap.String("submission_id", sub.ID.String()),
		zap.String("status", string(sub.Status)))
	return nil
}

// transition persists a status change and mirrors it on the in-memory record.
// A stale-status loss means another invocation progressed the submission; the
// local record is refreshed and processing continues from the observed state.
func (o *Orchestrator) transition(ctx context.Context, sub *types.Submission, to types.SubmissionStatus, reason string) error {
	err := o.submissions.TransitionStatus(ctx, sub.ID, sub.Status, to, reason)
	if err != nil {
		if store.IsStaleStatus(err) {
			fresh, getErr := o.submissions.Get(ctx, sub.ID)
			if getErr != nil {
				return fmt.Errorf("reloading submission after stale transition: %w", getErr)
			}
			*sub = *fresh
			return nil
		}
		return fmt.Errorf("transitioning %s to %s: %w", sub.ID, to, err)
	}
	sub.Status = to
	sub.FailureReason = reason
	return nil
}

// runExtraction drives extracting/extraction_failed until the submission is
// extracted or terminally failed. A ParsedResume persisted by an earlier,
// abandoned invocation short-circuits the stage.
func (o *Orchestrator) runExtraction(ctx context.Context, sub *types.Submission) error {
	if existing, err := o.parsed.GetBySubmission(ctx, sub.ID); err == nil && existing != nil {
		o.logger.Info("parsed resume already persisted, skipping extraction",
			zap.String("submission_id", sub.ID.String()))
		return o.recoverToWorking(ctx, sub, types.StatusExtracting, types.StatusExtracted)
	} else if err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("checking for existing parsed resume: %w", err)
	}

	return o.runStage(ctx, sub, stageSpec{
		working:     types.StatusExtracting,
		failure:     types.StatusExtractionFailed,
		success:     types.StatusExtracted,
		isRetryable: extractRetryable,
		attempt: func(ctx context.Context) error {
			text, err := o.extractor.Extract(ctx, sub.StorageKey, sub.Filename, sub.ContentType)
			if err != nil {
				return err
			}
			return o.persistExtraction(ctx, sub, text)
		},
	})
}

func (o *Orchestrator) persistExtraction(ctx context.Context, sub *types.Submission, text string) error {
	key := TextKey(sub.ID)
	if err := o.blobs.Put(ctx, key, []byte(text)); err != nil {
		return &extract.SourceUnreadableError{Key: key, Cause: err}
	}
	pr := &types.ParsedResume{
		SubmissionID: sub.ID,
		TextLength:   len(text),
		TextKey:      key,
		Status:       types.ParseSuccess,
	}
	if err := o.parsed.Create(ctx, pr); err != nil {
		// A duplicate means a racing or abandoned invocation already
		// persisted the extraction. That record wins.
		if store.IsDuplicateChild(err) {
			return nil
		}
		return &extract.SourceUnreadableError{Key: key, Cause: err}
	}
	return nil
}

// runAnalysis drives analyzing/analysis_failed until the submission is
// analyzed or terminally failed.
func (o *Orchestrator) runAnalysis(ctx context.Context, sub *types.Submission) error {
	pr, err := o.parsed.GetBySubmission(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("loading parsed resume for %s: %w", sub.ID, err)
	}

	if existing, err := o.analyses.GetByParsedResume(ctx, pr.ID); err == nil && existing != nil {
		o.logger.Info("analysis already persisted, skipping analysis",
			zap.String("submission_id", sub.ID.String()))
		return o.recoverToWorking(ctx, sub, types.StatusAnalyzing, types.StatusAnalyzed)
	} else if err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("checking for existing analysis: %w", err)
	}

	return o.runStage(ctx, sub, stageSpec{
		working:     types.StatusAnalyzing,
		failure:     types.StatusAnalysisFailed,
		success:     types.StatusAnalyzed,
		isRetryable: analysisRetryable,
		attempt: func(ctx context.Context) error {
			text, err := o.blobs.Get(ctx, pr.TextKey)
			if err != nil {
				return &analysis.ModelUnavailableError{Cause: fmt.Errorf("loading resume text: %w", err)}
			}
			result, err := o.analyzer.Analyze(ctx, analysis.Request{
				Text:     string(text),
				Filename: sub.Filename,
			})
			if err != nil {
				return err
			}
			return o.persistAnalysis(ctx, pr.ID, result)
		},
	})
}

func (o *Orchestrator) persistAnalysis(ctx context.Context, parsedResumeID uuid.UUID, result *analysis.Result) error {
	ar := &types.AnalysisResult{
		ParsedResumeID:   parsedResumeID,
		CandidateProfile: result.Profile,
		Truncated:        result.Truncated,
	}
	if err := o.analyses.Create(ctx, ar); err != nil {
		if store.IsDuplicateChild(err) {
			return nil
		}
		return &analysis.ModelUnavailableError{Cause: fmt.Errorf("persisting analysis: %w", err)}
	}
	return nil
}

// runNotification sends the completion email and advances to notified.
// Delivery failure is logged and swallowed: the candidate data is already
// durably stored and re-running analysis to resend an email wastes cost.
func (o *Orchestrator) runNotification(ctx context.Context, sub *types.Submission) error {
	pr, err := o.parsed.GetBySubmission(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("loading parsed resume for notification: %w", err)
	}
	ar, err := o.analyses.GetByParsedResume(ctx, pr.ID)
	if err != nil {
		return fmt.Errorf("loading analysis for notification: %w", err)
	}

	if err := o.notifier.Notify(ctx, notify.Notification{Submission: sub, Result: ar}); err != nil {
		o.logger.Warn("notification delivery failed",
			zap.String("submission_id", sub.ID.String()),
			zap.Error(err))
	}
	return o.transition(ctx, sub, types.StatusNotified, "")
}

// recoverToWorking moves a submission whose stage output already exists
// through working to done, covering resumption from a failure branch.
func (o *Orchestrator) recoverToWorking(ctx context.Context, sub *types.Submission, working, done types.SubmissionStatus) error {
	if sub.Status != working {
		if err := o.transition(ctx, sub, working, ""); err != nil {
			return err
		}
	}
	if sub.Status != working {
		// Stale refresh landed elsewhere; let the main loop re-dispatch.
		return nil
	}
	return o.transition(ctx, sub, done, "")
}

// stageSpec describes one retryable stage of the pipeline.
type stageSpec struct {
	working     types.SubmissionStatus
	failure     types.SubmissionStatus
	success     types.SubmissionStatus
	attempt     func(ctx context.Context) error
	isRetryable func(err error) (retryable bool, ceiling int)
}

// runStage executes a stage under the retry policy. Each failed attempt
// passes through the stage's failure branch; retryable failures re-enter the
// working state after backoff, terminal failures and exhausted ceilings move
// to the terminal failed state with a recorded reason.
func (o *Orchestrator) runStage(ctx context.Context, sub *types.Submission, spec stageSpec) error {
	if sub.Status == spec.failure {
		if err := o.transition(ctx, sub, spec.working, ""); err != nil {
			return err
		}
		if sub.Status != spec.working {
			return nil
		}
	}

	for attempt := 1; ; attempt++ {
		stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeout)
		err := spec.attempt(stageCtx)
		cancel()

		if err == nil {
			return o.transition(ctx, sub, spec.success, "")
		}

		retryable, ceilingOverride := spec.isRetryable(err)
		ceiling := o.cfg.MaxAttempts
		if ceilingOverride > 0 && ceilingOverride < ceiling {
			ceiling = ceilingOverride
		}
		reason := err.Error()

		if err := o.transition(ctx, sub, spec.failure, reason); err != nil {
			return err
		}
		if sub.Status != spec.failure {
			return nil
		}

		if !retryable {
			o.logger.Warn("stage failed terminally",
				zap.String("submission_id", sub.ID.String()),
				zap.String("stage", string(spec.working)),
				zap.String("reason", reason))
			return o.transition(ctx, sub, types.StatusFailed, reason)
		}
		if attempt >= ceiling {
			o.logger.Warn("stage retries exhausted",
				zap.String("submission_id", sub.ID.String()),
				zap.String("stage", string(spec.working)),
				zap.Int("attempts", attempt),
				zap.String("reason", reason))
			return o.transition(ctx, sub, types.StatusFailed, reason)
		}

		o.logger.Info("stage failed, retrying",
			zap.String("submission_id", sub.ID.String()),
			zap.String("stage", string(spec.working)),
			zap.Int("attempt", attempt),
			zap.String("reason", reason))

		if err := o.sleep(ctx, o.backoff(attempt)); err != nil {
			return err
		}
		if err := o.transition(ctx, sub, spec.working, ""); err != nil {
			return err
		}
		if sub.Status != spec.working {
			return nil
		}
	}
}

// backoff returns the delay before retry attempt+1: base doubled per attempt,
// capped.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	d := o.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= o.cfg.BackoffCap {
			return o.cfg.BackoffCap
		}
	}
	if d > o.cfg.BackoffCap {
		return o.cfg.BackoffCap
	}
	return d
}

// extractRetryable classifies extraction failures. Stage timeouts count as
// retryable storage-class failures. Empty extractions retry once only; the
// second return value overrides the configured ceiling when non-zero.
func extractRetryable(err error) (bool, int) {
	if errors.Is(err, context.DeadlineExceeded) {
		return true, 0
	}
	if extract.IsEmptyExtraction(err) {
		return true, emptyExtractionAttempts
	}
	return extract.IsRetryable(err), 0
}

// analysisRetryable classifies analysis failures. Stage timeouts count as
// model-unavailable.
func analysisRetryable(err error) (bool, int) {
	if errors.Is(err, context.DeadlineExceeded) {
		return true, 0
	}
	return analysis.IsRetryable(err), 0
}
