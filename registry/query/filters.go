package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Filters is the loosely-typed search parameter bag supplied by the model
// when it invokes the registry search capability. Every field is optional;
// the JSON names match the capability schema advertised to the model.
type Filters struct {
	Keywords      string `json:"query_keywords"`
	DateExact     string `json:"publication_date_exact"`
	DateStart     string `json:"publication_date_start"`
	DateEnd       string `json:"publication_date_end"`
	DocumentTypes string `json:"document_type"`
	PresidentName string `json:"president_name"`
	AgencyName    string `json:"agency_name"`
	SortByDate    string `json:"sort_by_date"`
	Limit         Limit  `json:"limit"`
}

// ParseFilters decodes the raw argument payload of a search invocation.
// This is the single fallible decode step for model-supplied arguments.
func ParseFilters(raw string) (Filters, error) {
	var f Filters
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Filters{}, fmt.Errorf("decode search filters: %w", err)
	}
	return f, nil
}

// Limit is a result limit that tolerates the model sending a JSON number,
// a numeric string, or garbage. Garbage and null count as not set.
type Limit struct {
	Value int
	Set   bool
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		l.Value = int(n)
		l.Set = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			l.Value = v
			l.Set = true
		}
		return nil
	}

	return nil
}
