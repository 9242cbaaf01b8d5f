package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	queryx "github.com/tanpawarit/fedreg-agent/registry/query"
	storex "github.com/tanpawarit/fedreg-agent/registry/store"
)

// Searcher is the slice of the record store gateway the search capability
// needs.
type Searcher interface {
	Search(ctx context.Context, c queryx.Compiled) ([]storex.SearchHit, error)
}

type searchSuccess struct {
	FoundDocuments []storex.SearchHit `json:"found_documents"`
	Count          int                `json:"count"`
}

type searchEmpty struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type searchFailure struct {
	Error string `json:"error"`
	Count int    `json:"count"`
}

type toolError struct {
	Error string `json:"error"`
}

func executeRegistrySearch(ctx context.Context, docs Searcher, rawArgs string) string {
	filters, err := queryx.ParseFilters(rawArgs)
	if err != nil {
		log.Warn().Err(err).Msg("model sent undecodable search arguments")
		return marshalPayload(toolError{Error: "Invalid JSON arguments from LLM."})
	}

	compiled := queryx.Compile(filters)

	hits, err := docs.Search(ctx, compiled)
	if err != nil {
		log.Error().Err(err).Msg("registry search failed")
		return marshalPayload(searchFailure{
			Error: fmt.Sprintf("Failed to query database: %s", err),
			Count: 0,
		})
	}

	if len(hits) == 0 {
		return marshalPayload(searchEmpty{
			Message: "No documents found matching your criteria.",
			Count:   0,
		})
	}

	return marshalPayload(searchSuccess{
		FoundDocuments: hits,
		Count:          len(hits),
	})
}

func marshalPayload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to encode tool payload"}`
	}
	return string(b)
}
