// Package main provides the entry point for the resume ranking service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume-ranking",
	Short: "AI resume ranking pipeline",
	Long:  "Resume Ranking ingests resume files, extracts their text, scores candidates with an AI model, and serves the results over a REST API.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
