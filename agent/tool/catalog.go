// Package tool owns the capability catalog advertised to the model and the
// closed dispatch that executes requested invocations. Dispatch never
// fails upward: unknown capabilities, malformed arguments, and execution
// errors all become structured payloads the model can read and react to.
package tool

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	contractx "github.com/tanpawarit/fedreg-agent/agent/contract"
)

const ToolQueryFederalRegistry = "query_federal_registry_db"

// Executor runs one requested invocation and always produces a result.
type Executor func(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult

// NewExecutor returns the dispatch over the known capabilities. The switch
// is the complete capability set; anything else lands in the fallback.
func NewExecutor(docs Searcher) Executor {
	return func(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
		var content string
		switch req.Name {
		case ToolQueryFederalRegistry:
			content = executeRegistrySearch(ctx, docs, req.Args)
		default:
			content = marshalPayload(toolError{
				Error: fmt.Sprintf("Tool '%s' not found or not permitted.", req.Name),
			})
		}

		return contractx.ToolResult{
			ID:      req.ID,
			Name:    req.Name,
			Content: content,
		}
	}
}

// Catalog returns the capability schemas sent to the model alongside the
// conversation.
func Catalog() []openai.ChatCompletionToolParam {
	return []openai.ChatCompletionToolParam{
		{
			Function: openai.FunctionDefinitionParam{
				Name: ToolQueryFederalRegistry,
				Description: openai.String(
					"Queries the local Federal Registry documents database. " +
						"Use this to find information about US federal documents like rules, proposed rules, notices, and presidential documents (executive orders, proclamations). " +
						"You can filter by keywords, publication dates, document types, president names, and agency names.",
				),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"query_keywords": map[string]any{
							"type":        "string",
							"description": "Keywords matched against document titles and abstracts. Every word must match.",
						},
						"publication_date_exact": map[string]any{
							"type":        "string",
							"description": "Exact publication date in YYYY-MM-DD format. Takes precedence over start and end dates.",
						},
						"publication_date_start": map[string]any{
							"type":        "string",
							"description": "Earliest publication date (inclusive) in YYYY-MM-DD format.",
						},
						"publication_date_end": map[string]any{
							"type":        "string",
							"description": "Latest publication date (inclusive) in YYYY-MM-DD format.",
						},
						"document_type": map[string]any{
							"type":        "string",
							"description": "Comma-separated document types, e.g. 'RULE, NOTICE, PRORULE, PRESDOCU'.",
						},
						"president_name": map[string]any{
							"type":        "string",
							"description": "Full or partial name of the publishing president.",
						},
						"agency_name": map[string]any{
							"type":        "string",
							"description": "Full or partial name of a publishing agency.",
						},
						"sort_by_date": map[string]any{
							"type":        "string",
							"description": "'asc' to sort oldest first. Newest first by default.",
						},
						"limit": map[string]any{
							"type":        "integer",
							"description": "Maximum number of documents to return, between 1 and 25. Default 5.",
						},
					},
				},
			},
		},
	}
}
