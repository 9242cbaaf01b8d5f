package contract

import (
	"context"

	"github.com/openai/openai-go"
)

// ChatModel sends the running conversation plus the capability catalog to
// the conversational model and returns its next message. Implementations
// must report transport or protocol failures as errors wrapping
// ErrModelUnreachable so the orchestrator can apply its degradation path.
type ChatModel interface {
	Complete(
		ctx context.Context,
		messages []openai.ChatCompletionMessageParamUnion,
		tools []openai.ChatCompletionToolParam,
	) (*openai.ChatCompletionMessage, error)
}
