// Package llm wraps the chat completions API behind the ChatModel
// contract. The gateway is stateless; every failure surfaces as an error
// wrapping ErrModelUnreachable so the orchestrator can degrade cleanly
// instead of crashing the run.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	contractx "github.com/tanpawarit/fedreg-agent/agent/contract"
)

type Gateway struct {
	client      *openai.Client
	model       string
	temperature float64
}

func NewGateway(client *openai.Client, model string, temperature float64) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("%w: model name is required", contractx.ErrValidation)
	}

	return &Gateway{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

var _ contractx.ChatModel = (*Gateway)(nil)

func (g *Gateway) Complete(
	ctx context.Context,
	messages []openai.ChatCompletionMessageParamUnion,
	tools []openai.ChatCompletionToolParam,
) (*openai.ChatCompletionMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model:       g.model,
		Messages:    messages,
		Temperature: openai.Float(g.temperature),
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelUnreachable, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion has no choices", contractx.ErrModelUnreachable)
	}

	msg := completion.Choices[0].Message
	return &msg, nil
}
