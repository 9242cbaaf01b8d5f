package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/fedreg-agent/agent/contract"
	queryx "github.com/tanpawarit/fedreg-agent/registry/query"
	storex "github.com/tanpawarit/fedreg-agent/registry/store"
)

type fakeSearcher struct {
	hits     []storex.SearchHit
	err      error
	compiled []queryx.Compiled
}

func (f *fakeSearcher) Search(ctx context.Context, c queryx.Compiled) ([]storex.SearchHit, error) {
	f.compiled = append(f.compiled, c)
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func TestExecutorUnknownCapability(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(&fakeSearcher{})
	out := exec(context.Background(), contractx.ToolRequest{
		ID:   "call-1",
		Name: "delete_everything",
		Args: "{}",
	})

	if out.ID != "call-1" || out.Name != "delete_everything" {
		t.Fatalf("result does not mirror request: %+v", out)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(out.Content), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if !strings.Contains(payload["error"], "delete_everything") {
		t.Fatalf("error should name the unrecognized capability: %q", payload["error"])
	}
}

func TestExecutorBadArguments(t *testing.T) {
	t.Parallel()

	docs := &fakeSearcher{}
	exec := NewExecutor(docs)
	out := exec(context.Background(), contractx.ToolRequest{
		ID:   "call-2",
		Name: ToolQueryFederalRegistry,
		Args: `{"query_keywords":`,
	})

	if out.Content != `{"error":"Invalid JSON arguments from LLM."}` {
		t.Fatalf("unexpected payload: %s", out.Content)
	}
	if len(docs.compiled) != 0 {
		t.Fatal("store must not be queried on decode failure")
	}
}

func TestExecutorSearchSuccess(t *testing.T) {
	t.Parallel()

	docs := &fakeSearcher{
		hits: []storex.SearchHit{
			{
				DocumentNumber:  "2023-00001",
				Title:           "Emission Standards Update",
				Type:            "Rule",
				PublicationDate: "2023-06-15",
				Agencies:        []string{"EPA"},
			},
		},
	}
	exec := NewExecutor(docs)

	out := exec(context.Background(), contractx.ToolRequest{
		ID:   "call-3",
		Name: ToolQueryFederalRegistry,
		Args: `{"query_keywords":"emission","limit":3}`,
	})

	var payload searchSuccess
	if err := json.Unmarshal([]byte(out.Content), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload.Count != 1 {
		t.Fatalf("unexpected count: %d", payload.Count)
	}
	if payload.FoundDocuments[0].DocumentNumber != "2023-00001" {
		t.Fatalf("unexpected document: %+v", payload.FoundDocuments[0])
	}

	if len(docs.compiled) != 1 {
		t.Fatalf("expected one store query, got %d", len(docs.compiled))
	}
	if docs.compiled[0].Limit != 3 {
		t.Fatalf("limit not threaded through: %d", docs.compiled[0].Limit)
	}
}

func TestExecutorSearchEmpty(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(&fakeSearcher{})
	out := exec(context.Background(), contractx.ToolRequest{
		ID:   "call-4",
		Name: ToolQueryFederalRegistry,
		Args: `{}`,
	})

	want := `{"message":"No documents found matching your criteria.","count":0}`
	if out.Content != want {
		t.Fatalf("unexpected payload: %s", out.Content)
	}
}

func TestExecutorSearchFailure(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(&fakeSearcher{err: errors.New("connection refused")})
	out := exec(context.Background(), contractx.ToolRequest{
		ID:   "call-5",
		Name: ToolQueryFederalRegistry,
		Args: `{}`,
	})

	var payload searchFailure
	if err := json.Unmarshal([]byte(out.Content), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if !strings.HasPrefix(payload.Error, "Failed to query database:") {
		t.Fatalf("unexpected error text: %q", payload.Error)
	}
	if payload.Count != 0 {
		t.Fatalf("unexpected count: %d", payload.Count)
	}
}

func TestCatalogShape(t *testing.T) {
	t.Parallel()

	catalog := Catalog()
	if len(catalog) != 1 {
		t.Fatalf("expected exactly one capability, got %d", len(catalog))
	}
	if catalog[0].Function.Name != ToolQueryFederalRegistry {
		t.Fatalf("unexpected capability name: %s", catalog[0].Function.Name)
	}

	props, ok := catalog[0].Function.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatal("capability schema has no properties object")
	}
	for _, field := range []string{
		"query_keywords",
		"publication_date_exact",
		"publication_date_start",
		"publication_date_end",
		"document_type",
		"president_name",
		"agency_name",
		"sort_by_date",
		"limit",
	} {
		if _, ok := props[field]; !ok {
			t.Fatalf("capability schema is missing field %q", field)
		}
	}
}
