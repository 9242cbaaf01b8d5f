package store

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Document is the persisted registry record, keyed by document number.
// The ingest pipeline creates and updates rows via upsert; the search path
// only ever reads them.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	DocumentNumber       string    `bun:"document_number,pk" json:"document_number"`
	Title                string    `bun:"title" json:"title"`
	Type                 string    `bun:"type" json:"type"`
	Abstract             string    `bun:"abstract,nullzero" json:"abstract,omitempty"`
	PublicationDate      time.Time `bun:"publication_date,type:date,notnull" json:"-"`
	Agencies             string    `bun:"agencies,nullzero" json:"-"`
	DocumentURL          string    `bun:"document_url,nullzero" json:"document_url,omitempty"`
	PDFURL               string    `bun:"pdf_url,nullzero" json:"pdf_url,omitempty"`
	RawTextURL           string    `bun:"raw_text_url,nullzero" json:"raw_text_url,omitempty"`
	President            string    `bun:"president,nullzero" json:"president,omitempty"`
	ExecutiveOrderNumber string    `bun:"executive_order_number,nullzero" json:"executive_order_number,omitempty"`
	UpdatedAt            time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"-"`
}

// SearchHit is the projection returned to the agent: publication dates are
// normalized to YYYY-MM-DD text and the serialized agency list is parsed
// back into a slice.
type SearchHit struct {
	DocumentNumber  string   `json:"document_number"`
	Title           string   `json:"title"`
	Type            string   `json:"type"`
	Abstract        string   `json:"abstract,omitempty"`
	PublicationDate string   `json:"publication_date"`
	Agencies        []string `json:"agencies,omitempty"`
	President       string   `json:"president,omitempty"`
	DocumentURL     string   `json:"document_url,omitempty"`
}

// documentRow matches the column list of the compiled search query.
type documentRow struct {
	DocumentNumber  string    `bun:"document_number"`
	Title           string    `bun:"title"`
	Type            string    `bun:"type"`
	Abstract        string    `bun:"abstract"`
	PublicationDate time.Time `bun:"publication_date"`
	Agencies        string    `bun:"agencies"`
	President       string    `bun:"president"`
	DocumentURL     string    `bun:"document_url"`
}

const dateLayout = "2006-01-02"

func (r documentRow) toHit() SearchHit {
	hit := SearchHit{
		DocumentNumber: r.DocumentNumber,
		Title:          r.Title,
		Type:           r.Type,
		Abstract:       r.Abstract,
		Agencies:       parseAgencyList(r.Agencies),
		President:      r.President,
		DocumentURL:    r.DocumentURL,
	}
	if !r.PublicationDate.IsZero() {
		hit.PublicationDate = r.PublicationDate.Format(dateLayout)
	}
	return hit
}

// parseAgencyList decodes the serialized agency column. A value that is
// not a well-formed list becomes a single-element list holding the raw
// text; parse problems never propagate to the caller.
func parseAgencyList(raw string) []string {
	if raw == "" {
		return nil
	}

	var agencies []string
	if err := json.Unmarshal([]byte(raw), &agencies); err != nil {
		return []string{raw}
	}
	return agencies
}
