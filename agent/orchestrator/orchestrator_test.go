package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/openai/openai-go"

	contractx "github.com/tanpawarit/fedreg-agent/agent/contract"
)

type fakeModel struct {
	responses []*openai.ChatCompletionMessage
	err       error
	calls     int
	seen      [][]openai.ChatCompletionMessageParamUnion
}

func (f *fakeModel) Complete(
	ctx context.Context,
	messages []openai.ChatCompletionMessageParamUnion,
	tools []openai.ChatCompletionToolParam,
) (*openai.ChatCompletionMessage, error) {
	f.calls++
	f.seen = append(f.seen, append([]openai.ChatCompletionMessageParamUnion(nil), messages...))
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		return nil, fmt.Errorf("no scripted response left at call=%d", f.calls)
	}
	return f.responses[idx], nil
}

type fakeExecutor struct {
	requests []contractx.ToolRequest
}

func (f *fakeExecutor) execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	f.requests = append(f.requests, req)
	return contractx.ToolResult{
		ID:      req.ID,
		Name:    req.Name,
		Content: `{"count":0}`,
	}
}

func textResponse(content string) *openai.ChatCompletionMessage {
	return &openai.ChatCompletionMessage{Content: content}
}

func toolResponse(calls ...openai.ChatCompletionMessageToolCall) *openai.ChatCompletionMessage {
	return &openai.ChatCompletionMessage{ToolCalls: calls}
}

func searchCall(id, args string) openai.ChatCompletionMessageToolCall {
	return openai.ChatCompletionMessageToolCall{
		ID: id,
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      "query_federal_registry_db",
			Arguments: args,
		},
	}
}

func newTestOrchestrator(t *testing.T, model contractx.ChatModel, exec *fakeExecutor, opts ...Option) *Orchestrator {
	t.Helper()

	o, err := New(model, exec.execute, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func TestHandleQueryEmptyQuery(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, &fakeModel{}, &fakeExecutor{})
	_, err := o.HandleQuery(context.Background(), "   ", nil)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestHandleQueryDirectAnswer(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []*openai.ChatCompletionMessage{
		textResponse("Hello! Ask me about federal documents."),
	}}
	exec := &fakeExecutor{}
	o := newTestOrchestrator(t, model, exec)

	prior := []contractx.Message{
		{Role: contractx.RoleUser, Content: "hi"},
		{Role: contractx.RoleAssistant, Content: "hello"},
	}

	answer, err := o.HandleQuery(context.Background(), "what can you do?", prior)
	if err != nil {
		t.Fatalf("HandleQuery() error = %v", err)
	}
	if model.calls != 1 {
		t.Fatalf("expected one model call, got %d", model.calls)
	}
	if answer.Text != "Hello! Ask me about federal documents." {
		t.Fatalf("answer not returned verbatim: %q", answer.Text)
	}
	if len(exec.requests) != 0 {
		t.Fatalf("expected no tool dispatches, got %d", len(exec.requests))
	}

	if len(answer.History) != len(prior)+2 {
		t.Fatalf("history should grow by two entries, got %d", len(answer.History))
	}
	if got := answer.History[len(answer.History)-2]; got.Role != contractx.RoleUser || got.Content != "what can you do?" {
		t.Fatalf("unexpected penultimate history entry: %+v", got)
	}
	if got := answer.History[len(answer.History)-1]; got.Role != contractx.RoleAssistant || got.Content != answer.Text {
		t.Fatalf("unexpected final history entry: %+v", got)
	}
	if len(prior) != 2 {
		t.Fatalf("caller history must not be mutated, got %d entries", len(prior))
	}
}

func TestHandleQueryModelUnreachable(t *testing.T) {
	t.Parallel()

	model := &fakeModel{err: fmt.Errorf("%w: dial tcp: connection refused", contractx.ErrModelUnreachable)}
	exec := &fakeExecutor{}
	o := newTestOrchestrator(t, model, exec)

	answer, err := o.HandleQuery(context.Background(), "anything new on emissions?", nil)
	if err != nil {
		t.Fatalf("HandleQuery() error = %v", err)
	}
	if answer.Text != modelUnreachableMessage {
		t.Fatalf("expected fixed apology, got %q", answer.Text)
	}
	if model.calls != 1 {
		t.Fatalf("run must end after the failed call, got %d calls", model.calls)
	}
	if len(exec.requests) != 0 {
		t.Fatal("no tools may run when the model is unreachable")
	}
}

func TestHandleQueryToolRoundTrip(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []*openai.ChatCompletionMessage{
		toolResponse(
			searchCall("call-1", `{"query_keywords":"clean air"}`),
			searchCall("call-2", `{"document_type":"RULE"}`),
		),
		textResponse("Two relevant rules were published last month."),
	}}
	exec := &fakeExecutor{}
	o := newTestOrchestrator(t, model, exec)

	answer, err := o.HandleQuery(context.Background(), "any clean air rules?", nil)
	if err != nil {
		t.Fatalf("HandleQuery() error = %v", err)
	}
	if answer.Text != "Two relevant rules were published last month." {
		t.Fatalf("unexpected answer: %q", answer.Text)
	}
	if model.calls != 2 {
		t.Fatalf("expected two model calls, got %d", model.calls)
	}

	if len(exec.requests) != 2 {
		t.Fatalf("expected two dispatches, got %d", len(exec.requests))
	}
	if exec.requests[0].ID != "call-1" || exec.requests[1].ID != "call-2" {
		t.Fatalf("dispatch order must follow request order: %+v", exec.requests)
	}

	// The second model call must see the assistant message followed by one
	// tool message per request, in request order.
	second := model.seen[1]
	var toolIDs []string
	for _, m := range second {
		if m.OfTool != nil {
			toolIDs = append(toolIDs, m.OfTool.ToolCallID)
		}
	}
	if len(toolIDs) != 2 || toolIDs[0] != "call-1" || toolIDs[1] != "call-2" {
		t.Fatalf("tool messages out of order: %v", toolIDs)
	}
}

func TestHandleQueryTurnBudget(t *testing.T) {
	t.Parallel()

	// A model that always asks for another invocation never converges; the
	// orchestrator must stop after the ceiling without a further call.
	model := &fakeModel{responses: []*openai.ChatCompletionMessage{
		toolResponse(searchCall("call-1", `{}`)),
		toolResponse(searchCall("call-2", `{}`)),
		toolResponse(searchCall("call-3", `{}`)),
		toolResponse(searchCall("call-4", `{}`)),
	}}
	exec := &fakeExecutor{}
	o := newTestOrchestrator(t, model, exec)

	answer, err := o.HandleQuery(context.Background(), "loop forever", nil)
	if err != nil {
		t.Fatalf("HandleQuery() error = %v", err)
	}
	if answer.Text != turnBudgetMessage {
		t.Fatalf("expected budget message, got %q", answer.Text)
	}
	if model.calls != 3 {
		t.Fatalf("expected exactly three model calls, got %d", model.calls)
	}
	if len(exec.requests) != 3 {
		t.Fatalf("expected three dispatches, got %d", len(exec.requests))
	}
}

func TestHandleQueryCustomTurnCeiling(t *testing.T) {
	t.Parallel()

	model := &fakeModel{responses: []*openai.ChatCompletionMessage{
		toolResponse(searchCall("call-1", `{}`)),
		toolResponse(searchCall("call-2", `{}`)),
	}}
	exec := &fakeExecutor{}
	o := newTestOrchestrator(t, model, exec, WithMaxTurns(1))

	answer, err := o.HandleQuery(context.Background(), "loop", nil)
	if err != nil {
		t.Fatalf("HandleQuery() error = %v", err)
	}
	if answer.Text != turnBudgetMessage {
		t.Fatalf("expected budget message, got %q", answer.Text)
	}
	if model.calls != 1 {
		t.Fatalf("expected one model call, got %d", model.calls)
	}
}
