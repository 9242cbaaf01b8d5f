package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/fedreg-agent/pkg/config"
	storex "github.com/tanpawarit/fedreg-agent/registry/store"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the documents schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := storex.New(*configx.MustNew[storex.Config]("DB"))
		if err != nil {
			return err
		}
		defer docs.Close()

		if err := docs.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		log.Info().Msg("documents schema ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
