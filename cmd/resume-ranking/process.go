package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <submission-id>",
	Short: "Run the pipeline synchronously for one submission",
	Long:  "Processes a single submission end to end, resuming from whatever stage is already persisted. Useful for operational re-runs.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid submission id %q: %w", args[0], err)
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.orch.Process(ctx, id); err != nil {
		return fmt.Errorf("processing %s: %w", id, err)
	}

	sub, err := a.subs.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("submission %s: %s\n", sub.ID, sub.Status)
	if sub.FailureReason != "" {
		fmt.Printf("reason: %s\n", sub.FailureReason)
	}
	return nil
}
