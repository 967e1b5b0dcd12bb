package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/viaantech/resume-ranking/internal/ingest"
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Submit a resume file for processing",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	intake := ingest.NewIntake(a.subs, a.blobs, a.trigger(), a.logger)
	sub, err := intake.Accept(ctx, filepath.Base(args[0]), "", data)
	if err != nil {
		return err
	}

	fmt.Printf("submission %s accepted (%s, %d bytes)\n", sub.ID, sub.ContentType, sub.SizeBytes)
	return nil
}
