package pipeline

import (
	"fmt"
	"strings"
)

// SearchQuery is a single planned search request. Immutable once built; one
// query is issued per chunk of skills.
type SearchQuery struct {
	Text string
	// Skills holds the chunk the query was built from. Empty for the
	// generic fallback query.
	Skills []string
}

// PlanQueries partitions the skills into consecutive chunks of at most
// cfg.ChunkSize entries and builds one AND-joined query per chunk, scoped to
// the trusted job boards. An empty skill list yields exactly one generic
// "jobs in <location>" query. Construction is pure and deterministic.
//
// Chunking keeps individual queries short: overly long multi-term queries
// degrade search-backend recall.
func PlanQueries(cfg *Config, skills []string) ([]SearchQuery, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scope := siteScope(cfg.domains())

	if len(skills) == 0 {
		return []SearchQuery{{
			Text: fmt.Sprintf("jobs in %s %s", cfg.Location, scope),
		}}, nil
	}

	queries := make([]SearchQuery, 0, (len(skills)+cfg.ChunkSize-1)/cfg.ChunkSize)
	for start := 0; start < len(skills); start += cfg.ChunkSize {
		chunk := skills[start:min(start+cfg.ChunkSize, len(skills))]
		queries = append(queries, SearchQuery{
			Text: fmt.Sprintf("jobs in %s for %s %s",
				cfg.Location, strings.Join(chunk, " AND "), scope),
			Skills: chunk,
		})
	}

	return queries, nil
}

// siteScope builds the "site:a OR site:b" suffix restricting results to the
// allowlisted job boards.
func siteScope(domains []string) string {
	parts := make([]string, 0, len(domains))
	for _, domain := range domains {
		parts = append(parts, "site:"+domain)
	}
	return strings.Join(parts, " OR ")
}
