package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viaantech/resume-ranking/internal/analysis"
	"github.com/viaantech/resume-ranking/internal/blob"
	"github.com/viaantech/resume-ranking/internal/config"
	"github.com/viaantech/resume-ranking/internal/extract"
	"github.com/viaantech/resume-ranking/internal/ingest"
	"github.com/viaantech/resume-ranking/internal/llm"
	"github.com/viaantech/resume-ranking/internal/logger"
	"github.com/viaantech/resume-ranking/internal/notify"
	"github.com/viaantech/resume-ranking/internal/pipeline"
	"github.com/viaantech/resume-ranking/internal/queue"
	"github.com/viaantech/resume-ranking/internal/store"
)

// app holds the wired service components shared by the CLI commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *store.DB
	subs     *store.SubmissionRepo
	parsed   *store.ParsedResumeRepo
	analyses *store.AnalysisRepo
	blobs    blob.Store
	llm      llm.Client
	orch     *pipeline.Orchestrator
	queue    *queue.Queue // nil when RabbitMQ is not configured
}

// buildApp connects storage, the model client, and the orchestrator.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogJSON, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	db, err := store.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	blobs, err := blob.NewFSStore(cfg.BlobDir)
	if err != nil {
		db.Close()
		return nil, err
	}

	client, err := llm.NewClient(ctx, nil, cfg.GeminiAPIKey)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		db:       db,
		subs:     store.NewSubmissionRepo(db),
		parsed:   store.NewParsedResumeRepo(db),
		analyses: store.NewAnalysisRepo(db),
		blobs:    blobs,
		llm:      client,
	}

	var notifier notify.Notifier
	if cfg.PostmarkToken != "" {
		notifier = notify.NewPostmarkNotifier(notify.Config{
			ServerToken: cfg.PostmarkToken,
			From:        cfg.NotifyFrom,
			To:          cfg.NotifyTo,
		}, log)
	} else {
		notifier = &notify.NopNotifier{Logger: log}
	}

	a.orch = pipeline.New(pipeline.Deps{
		Submissions: a.subs,
		Parsed:      a.parsed,
		Analyses:    a.analyses,
		Locker:      db,
		Blobs:       blobs,
		Extractor:   extract.NewDocExtractor(blobs, log),
		Analyzer:    analysis.NewClientAnalyzer(client, 0, log),
		Notifier:    notifier,
		Logger:      log,
	}, pipeline.Config{})

	if cfg.RabbitMQURL != "" {
		q, err := queue.Connect(cfg.RabbitMQURL, cfg.QueueName, log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.queue = q
	}

	return a, nil
}

func (a *app) close() {
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			a.logger.Warn("closing queue", zap.Error(err))
		}
	}
	a.llm.Close()
	a.db.Close()
	_ = a.logger.Sync()
}

// trigger returns the pipeline trigger: the queue when configured, otherwise
// an in-process dispatcher.
func (a *app) trigger() ingest.Trigger {
	if a.queue != nil {
		return a.queue
	}
	return &inlineTrigger{orch: a.orch, logger: a.logger}
}

// inlineTrigger runs pipeline invocations in-process when no broker is
// configured. Processing stays asynchronous relative to the caller.
type inlineTrigger struct {
	orch   *pipeline.Orchestrator
	logger *zap.Logger
}

func (t *inlineTrigger) TriggerProcessing(_ context.Context, submissionID uuid.UUID) error {
	go func() {
		if err := t.orch.Process(context.Background(), submissionID); err != nil {
			t.logger.Error("pipeline invocation failed",
				zap.String("submission_id", submissionID.String()),
				zap.Error(err))
		}
	}()
	return nil
}
