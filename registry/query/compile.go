// Package query turns the model-supplied search parameter bag into a
// bounded, parameterized query against the documents relation. Compilation
// is pure: no I/O, deterministic predicate order, every caller value bound
// as a positional argument and never spliced into the query text.
package query

import "strings"

const (
	defaultLimit = 5
	maxLimit     = 25

	SortAscending  = "ASC"
	SortDescending = "DESC"
)

const selectColumns = "document_number, title, type, abstract, publication_date, agencies, president, document_url"

// Compiled is an ordered conjunction of predicates plus a positional
// argument list, a sort direction, and a clamped row limit. Conditions and
// Args line up: each condition's placeholders consume the next args.
type Compiled struct {
	Conditions []string
	Args       []any
	Sort       string
	Limit      int
}

// Compile builds the predicate set for the given filters. Absent fields
// contribute no predicate; with no predicates at all the query returns the
// most recent documents up to the limit.
func Compile(f Filters) Compiled {
	c := Compiled{Sort: SortDescending}

	if tokens := strings.Fields(f.Keywords); len(tokens) > 0 {
		sub := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			sub = append(sub, "(title LIKE ? OR abstract LIKE ?)")
			pattern := "%" + tok + "%"
			c.Args = append(c.Args, pattern, pattern)
		}
		c.Conditions = append(c.Conditions, "("+strings.Join(sub, " AND ")+")")
	}

	// Exactly one date branch fires: exact wins over the range forms,
	// a full range wins over a lone start or end. Lower-priority date
	// fields are ignored even when also supplied.
	switch {
	case f.DateExact != "":
		c.Conditions = append(c.Conditions, "publication_date = ?")
		c.Args = append(c.Args, f.DateExact)
	case f.DateStart != "" && f.DateEnd != "":
		c.Conditions = append(c.Conditions, "publication_date BETWEEN ? AND ?")
		c.Args = append(c.Args, f.DateStart, f.DateEnd)
	case f.DateStart != "":
		c.Conditions = append(c.Conditions, "publication_date >= ?")
		c.Args = append(c.Args, f.DateStart)
	case f.DateEnd != "":
		c.Conditions = append(c.Conditions, "publication_date <= ?")
		c.Args = append(c.Args, f.DateEnd)
	}

	if types := splitDocumentTypes(f.DocumentTypes); len(types) > 0 {
		placeholders := strings.Repeat("?, ", len(types))
		c.Conditions = append(c.Conditions, "UPPER(type) IN ("+strings.TrimSuffix(placeholders, ", ")+")")
		for _, t := range types {
			c.Args = append(c.Args, t)
		}
	}

	if president := strings.TrimSpace(f.PresidentName); president != "" {
		c.Conditions = append(c.Conditions, "president LIKE ?")
		c.Args = append(c.Args, "%"+president+"%")
	}

	if agency := strings.TrimSpace(f.AgencyName); agency != "" {
		// agencies is stored as serialized list text; substring match is
		// the contract here.
		c.Conditions = append(c.Conditions, "agencies LIKE ?")
		c.Args = append(c.Args, "%"+agency+"%")
	}

	if strings.EqualFold(strings.TrimSpace(f.SortByDate), "asc") {
		c.Sort = SortAscending
	}

	limit := defaultLimit
	if f.Limit.Set {
		limit = f.Limit.Value
	}
	c.Limit = clamp(limit, 1, maxLimit)

	return c
}

// SQL assembles the full query text with positional placeholders and
// returns it alongside the bound argument list, limit included.
func (c Compiled) SQL() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectColumns)
	b.WriteString(" FROM documents")

	if len(c.Conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(c.Conditions, " AND "))
	}

	b.WriteString(" ORDER BY publication_date ")
	b.WriteString(c.Sort)
	b.WriteString(" LIMIT ?")

	args := make([]any, 0, len(c.Args)+1)
	args = append(args, c.Args...)
	args = append(args, c.Limit)

	return b.String(), args
}

func splitDocumentTypes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(strings.ToUpper(raw), ",")
	types := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			types = append(types, t)
		}
	}
	return types
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
