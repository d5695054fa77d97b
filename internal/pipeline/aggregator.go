package pipeline

import (
	"sort"
	"strings"
)

// missingField replaces a title or snippet the search backend omitted.
const missingField = "N/A"

// JobResult is a raw record returned by the search collaborator.
type JobResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// ScoredJob is a deduplicated, trusted result with its skill match score.
// Never mutated after creation.
type ScoredJob struct {
	Title      string
	Link       string
	Snippet    string
	MatchScore int
}

// Batch holds the outcome of one planned query. A failed query carries Err
// and contributes no results; it never aborts aggregation.
type Batch struct {
	Query   SearchQuery
	Results []JobResult
	Err     error
}

// Aggregate merges the per-query batches in planning order, keeps results
// whose link matches a trusted domain, deduplicates by link (first seen
// wins), scores each survivor against the full skill list and returns at
// most cfg.TopN jobs sorted by descending score. Equal scores keep their
// merge order, so earlier-discovered jobs rank first. Zero results is a
// valid, successful outcome.
func Aggregate(batches []Batch, skills []string, cfg *Config) ([]ScoredJob, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	domains := cfg.domains()
	terms := distinctFolded(skills)

	seen := make(map[string]struct{})
	scored := make([]ScoredJob, 0)
	for _, batch := range batches {
		if batch.Err != nil {
			continue
		}
		for _, item := range batch.Results {
			if !trusted(item.Link, domains) {
				continue
			}
			if _, ok := seen[item.Link]; ok {
				continue
			}
			seen[item.Link] = struct{}{}

			scored = append(scored, ScoredJob{
				Title:      orMissing(item.Title),
				Link:       item.Link,
				Snippet:    orMissing(item.Snippet),
				MatchScore: matchScore(item.Snippet, terms),
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	if len(scored) > cfg.TopN {
		scored = scored[:cfg.TopN]
	}

	return scored, nil
}

// matchScore counts the distinct skills whose case-folded form appears in
// the case-folded snippet. Matching is plain substring containment: no word
// boundaries, no stemming, so a skill like "R" also matches inside longer
// words.
func matchScore(snippet string, terms []string) int {
	if snippet == "" {
		return 0
	}

	folded := strings.ToLower(snippet)
	score := 0
	for _, term := range terms {
		if strings.Contains(folded, term) {
			score++
		}
	}
	return score
}

// distinctFolded lowercases the skills and drops duplicates, preserving
// first-seen order.
func distinctFolded(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	terms := make([]string, 0, len(skills))
	for _, skill := range skills {
		folded := strings.ToLower(skill)
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		terms = append(terms, folded)
	}
	return terms
}

func trusted(link string, domains []string) bool {
	for _, domain := range domains {
		if strings.Contains(link, domain) {
			return true
		}
	}
	return false
}

func orMissing(s string) string {
	if s == "" {
		return missingField
	}
	return s
}
