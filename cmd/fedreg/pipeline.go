package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	pipelinex "github.com/tanpawarit/fedreg-agent/pipeline"
	configx "github.com/tanpawarit/fedreg-agent/pkg/config"
	storex "github.com/tanpawarit/fedreg-agent/registry/store"
)

var daysAgo int

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run one ingestion pass",
	Long:  `Downloads recent Federal Register documents, normalizes them, and upserts them into the document store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		docs, err := storex.New(*configx.MustNew[storex.Config]("DB"))
		if err != nil {
			return err
		}
		defer docs.Close()

		cfg := configx.MustNew[pipelinex.Config]("PIPELINE")
		if daysAgo > 0 {
			cfg.DaysAgo = daysAgo
		}

		p, err := pipelinex.New(*cfg, docs)
		if err != nil {
			return err
		}
		return p.Run(ctx)
	},
}

func init() {
	pipelineCmd.Flags().IntVar(&daysAgo, "days-ago", 0, "how many days back to download (overrides PIPELINE_DAYS_AGO)")
	rootCmd.AddCommand(pipelineCmd)
}
