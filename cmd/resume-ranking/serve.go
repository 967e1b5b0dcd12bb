package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/viaantech/resume-ranking/internal/ingest"
	"github.com/viaantech/resume-ranking/internal/server"
	"github.com/viaantech/resume-ranking/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server, queue worker, and inbox watcher",
	Long:  "Starts the HTTP API plus the background workers: the queue consumer that drives the pipeline and, when INBOX_DIR is set, the inbox directory watcher.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	intake := ingest.NewIntake(a.subs, a.blobs, a.trigger(), a.logger)

	srv := server.New(server.Config{Port: a.cfg.Port}, server.Deps{
		Submissions: a.subs,
		Parsed:      a.parsed,
		Analyses:    a.analyses,
		Ranked:      store.NewRankedRepo(a.db),
		Health:      a.analyses,
		Intake:      intake,
		Trigger:     a.trigger(),
		Logger:      a.logger,
	})

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(gCtx)
	})

	if a.queue != nil {
		g.Go(func() error {
			err := a.queue.Consume(gCtx, a.orch.Process)
			if gCtx.Err() != nil {
				return nil
			}
			return err
		})
	}

	if a.cfg.InboxDir != "" {
		watcher := ingest.NewWatcher(intake, a.cfg.InboxDir, 0, a.logger)
		g.Go(func() error {
			err := watcher.Watch(gCtx)
			if gCtx.Err() != nil {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
