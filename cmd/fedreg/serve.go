package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	llmx "github.com/tanpawarit/fedreg-agent/agent/llm"
	orchestratorx "github.com/tanpawarit/fedreg-agent/agent/orchestrator"
	toolx "github.com/tanpawarit/fedreg-agent/agent/tool"
	configx "github.com/tanpawarit/fedreg-agent/pkg/config"
	ollamax "github.com/tanpawarit/fedreg-agent/pkg/ollama"
	storex "github.com/tanpawarit/fedreg-agent/registry/store"
	serverx "github.com/tanpawarit/fedreg-agent/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat API server",
	Long:  `Wires the document store, chat model gateway, and orchestrator together and serves the chat API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		docs, err := storex.New(*configx.MustNew[storex.Config]("DB"))
		if err != nil {
			return err
		}
		defer docs.Close()

		ollamaCfg := configx.MustNew[ollamax.Config]("OLLAMA")
		gateway, err := llmx.NewGateway(ollamax.MustNew(*ollamaCfg), ollamaCfg.Model, ollamaCfg.Temperature)
		if err != nil {
			return err
		}

		agent, err := orchestratorx.New(gateway, toolx.NewExecutor(docs))
		if err != nil {
			return err
		}

		srv, err := serverx.New(agent, *configx.MustNew[serverx.Config]("SERVER"))
		if err != nil {
			return err
		}

		log.Info().Str("model", ollamaCfg.Model).Msg("starting chat server")
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
