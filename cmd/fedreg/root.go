package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fedreg",
	Short: "Federal Register document agent",
	Long: `fedreg answers questions about Federal Register documents through a
tool-calling chat agent backed by a Postgres document store, and runs
the ingestion pipeline that keeps the store current.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
