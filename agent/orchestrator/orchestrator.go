// Package orchestrator runs the turn-bounded tool-calling protocol: it
// exchanges messages with the chat model, dispatches the invocations the
// model requests, folds their results back into the conversation, and
// stops after a fixed number of turns. One run owns its conversation
// exclusively; the caller gets back an updated history copy.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/fedreg-agent/agent/contract"
	promptx "github.com/tanpawarit/fedreg-agent/agent/prompt"
	toolx "github.com/tanpawarit/fedreg-agent/agent/tool"
)

const defaultMaxTurns = 3

// Fixed terminal texts. Every run ends with the model's final answer or
// one of these.
const (
	modelUnreachableMessage = "Sorry, I couldn't connect to the language model right now."
	turnBudgetMessage       = "I tried to use my tools to find an answer, but it took too many steps. Could you please rephrase your question or be more specific?"
)

type Option func(*Orchestrator)

// WithMaxTurns overrides the turn ceiling. A turn is one model call plus
// the dispatch of every invocation it requested.
func WithMaxTurns(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxTurns = n
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

type Orchestrator struct {
	model    contractx.ChatModel
	execute  toolx.Executor
	catalog  []openai.ChatCompletionToolParam
	maxTurns int
	now      func() time.Time
}

func New(model contractx.ChatModel, execute toolx.Executor, opts ...Option) (*Orchestrator, error) {
	if model == nil {
		return nil, errors.New("chat model is required")
	}
	if execute == nil {
		return nil, errors.New("tool executor is required")
	}

	o := &Orchestrator{
		model:    model,
		execute:  execute,
		catalog:  toolx.Catalog(),
		maxTurns: defaultMaxTurns,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// HandleQuery runs one orchestration for a user query on top of the prior
// history. The returned Answer always carries the prior history plus the
// new user and assistant turns, whichever terminal outcome was reached.
func (o *Orchestrator) HandleQuery(ctx context.Context, query string, history []contractx.Message) (contractx.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return contractx.Answer{}, fmt.Errorf("%w: user query is empty", contractx.ErrValidation)
	}

	conversation := o.seedConversation(query, history)

	for turns := 0; turns < o.maxTurns; turns++ {
		msg, err := o.model.Complete(ctx, conversation, o.catalog)
		if err != nil {
			// Transport failure ends the run without consuming a turn.
			log.Warn().Err(err).Msg("chat model unreachable, degrading")
			return answerWith(history, query, modelUnreachableMessage), nil
		}

		if len(msg.ToolCalls) == 0 {
			return answerWith(history, query, msg.Content), nil
		}

		conversation = append(conversation, msg.ToParam())
		for _, call := range msg.ToolCalls {
			res := o.execute(ctx, contractx.ToolRequest{
				ID:   call.ID,
				Name: call.Function.Name,
				Args: call.Function.Arguments,
			})
			conversation = append(conversation, openai.ToolMessage(res.Content, res.ID))
		}
	}

	log.Info().Int("max_turns", o.maxTurns).Msg("turn budget exhausted")
	return answerWith(history, query, turnBudgetMessage), nil
}

func (o *Orchestrator) seedConversation(query string, history []contractx.Message) []openai.ChatCompletionMessageParamUnion {
	conversation := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	conversation = append(conversation, openai.SystemMessage(promptx.System(o.now())))

	for _, m := range history {
		if m.Role == contractx.RoleAssistant {
			conversation = append(conversation, openai.AssistantMessage(m.Content))
		} else {
			conversation = append(conversation, openai.UserMessage(m.Content))
		}
	}

	return append(conversation, openai.UserMessage(query))
}

func answerWith(history []contractx.Message, query, text string) contractx.Answer {
	updated := make([]contractx.Message, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated,
		contractx.Message{Role: contractx.RoleUser, Content: query},
		contractx.Message{Role: contractx.RoleAssistant, Content: text},
	)
	return contractx.Answer{Text: text, History: updated}
}
