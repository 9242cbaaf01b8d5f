package contract

// Role values for caller-visible chat history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the caller-visible chat history. The internal
// conversation (system prompt, assistant tool requests, tool results) is
// owned by the orchestrator and never leaks through this type.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolRequest is a single capability invocation requested by the model.
// Args is the raw JSON argument payload as emitted by the model; decoding
// it is the executor's fallible first step.
type ToolRequest struct {
	ID   string
	Name string
	Args string
}

// ToolResult pairs a request identifier with the JSON payload fed back to
// the model. Every ToolRequest yields exactly one ToolResult, including
// unknown capabilities and malformed arguments.
type ToolResult struct {
	ID      string
	Name    string
	Content string
}

// Answer is the outcome of one orchestration run. History is an updated
// copy: the prior history plus the new user and assistant turns. The
// caller owns it; the orchestrator never mutates caller storage in place.
type Answer struct {
	Text    string
	History []Message
}
