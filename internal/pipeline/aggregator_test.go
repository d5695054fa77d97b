package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestAggregateDedupKeepsFirstSeen(t *testing.T) {
	t.Parallel()

	link := "https://www.indeed.com/job/1"
	batches := []Batch{
		{Results: []JobResult{{Title: "First", Link: link, Snippet: "go developer"}}},
		{Results: []JobResult{{Title: "Second", Link: link, Snippet: "completely different"}}},
	}

	jobs, err := Aggregate(batches, []string{"go"}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(jobs) != 1 {
		t.Fatalf("expected 1 job after dedup, got %d", len(jobs))
	}
	if jobs[0].Title != "First" || jobs[0].Snippet != "go developer" {
		t.Fatalf("expected the first occurrence to win, got %+v", jobs[0])
	}
}

func TestAggregateDropsUntrustedLinks(t *testing.T) {
	t.Parallel()

	batches := []Batch{{Results: []JobResult{
		{Title: "Shady", Link: "https://example.com/job/9", Snippet: "go sql aws"},
		{Title: "Fine", Link: "https://www.linkedin.com/jobs/2", Snippet: "go"},
	}}}

	jobs, err := Aggregate(batches, []string{"go", "sql", "aws"}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(jobs) != 1 {
		t.Fatalf("expected 1 trusted job, got %d", len(jobs))
	}
	if jobs[0].Link != "https://www.linkedin.com/jobs/2" {
		t.Fatalf("expected only the trusted link to survive, got %q", jobs[0].Link)
	}
}

func TestAggregateRanksAndTruncates(t *testing.T) {
	t.Parallel()

	// Scores are 3, 1, 2, 1, 0 in merge order.
	snippets := []string{"go sql aws", "go", "go sql", "sql", "nothing relevant"}
	results := make([]JobResult, 0, len(snippets))
	for i, snippet := range snippets {
		results = append(results, JobResult{
			Title:   fmt.Sprintf("Job %d", i+1),
			Link:    fmt.Sprintf("https://www.indeed.com/job/%d", i+1),
			Snippet: snippet,
		})
	}

	cfg := testConfig()
	cfg.TopN = 2

	jobs, err := Aggregate([]Batch{{Results: results}}, []string{"go", "sql", "aws"}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(jobs) != 2 {
		t.Fatalf("expected topN=2 jobs, got %d", len(jobs))
	}
	if jobs[0].MatchScore != 3 || jobs[0].Link != "https://www.indeed.com/job/1" {
		t.Fatalf("expected the score-3 job first, got %+v", jobs[0])
	}
	if jobs[1].MatchScore != 2 || jobs[1].Link != "https://www.indeed.com/job/3" {
		t.Fatalf("expected the score-2 job second, got %+v", jobs[1])
	}
}

func TestAggregateTiesKeepMergeOrder(t *testing.T) {
	t.Parallel()

	batches := []Batch{
		{Results: []JobResult{{Title: "A", Link: "https://www.indeed.com/a", Snippet: "go"}}},
		{Results: []JobResult{{Title: "B", Link: "https://www.indeed.com/b", Snippet: "go"}}},
		{Results: []JobResult{{Title: "C", Link: "https://www.indeed.com/c", Snippet: "go"}}},
	}

	jobs, err := Aggregate(batches, []string{"go"}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	titles := make([]string, 0, len(jobs))
	for _, job := range jobs {
		titles = append(titles, job.Title)
	}
	if !reflect.DeepEqual(titles, []string{"A", "B", "C"}) {
		t.Fatalf("equal scores must keep merge order, got %v", titles)
	}
}

func TestAggregateEmptySkillsDegradesToMergeOrder(t *testing.T) {
	t.Parallel()

	batches := []Batch{{Results: []JobResult{
		{Title: "A", Link: "https://www.indeed.com/a", Snippet: "go sql"},
		{Title: "B", Link: "https://www.indeed.com/b", Snippet: "aws"},
	}}}

	cfg := testConfig()
	cfg.TopN = 1

	jobs, err := Aggregate(batches, nil, cfg)
	if err != nil {
		t.Fatalf("empty skills must not fail: %v", err)
	}

	if len(jobs) != 1 {
		t.Fatalf("expected truncation to topN=1, got %d jobs", len(jobs))
	}
	if jobs[0].Title != "A" || jobs[0].MatchScore != 0 {
		t.Fatalf("expected first merged job with score 0, got %+v", jobs[0])
	}
}

func TestAggregateAllBatchesFailed(t *testing.T) {
	t.Parallel()

	batches := []Batch{
		{Err: errors.New("timeout")},
		{Err: errors.New("bad status: 502 Bad Gateway")},
	}

	jobs, err := Aggregate(batches, []string{"go"}, testConfig())
	if err != nil {
		t.Fatalf("failed batches must not fail aggregation: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected zero jobs, got %d", len(jobs))
	}
}

func TestAggregateIdempotent(t *testing.T) {
	t.Parallel()

	batches := []Batch{{Results: []JobResult{
		{Title: "A", Link: "https://www.indeed.com/a", Snippet: "go sql"},
		{Title: "B", Link: "https://www.monster.com/b", Snippet: "sql"},
	}}}
	skills := []string{"Go", "SQL"}

	first, err := Aggregate(batches, skills, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Aggregate(batches, skills, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical outputs, got %v and %v", first, second)
	}
}

func TestAggregateMissingFieldsUseSentinel(t *testing.T) {
	t.Parallel()

	batches := []Batch{{Results: []JobResult{
		{Link: "https://www.glassdoor.com/job/1"},
	}}}

	jobs, err := Aggregate(batches, []string{"go"}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Title != "N/A" || jobs[0].Snippet != "N/A" {
		t.Fatalf("expected sentinel for missing fields, got %+v", jobs[0])
	}
	if jobs[0].MatchScore != 0 {
		t.Fatalf("missing snippet must score 0, got %d", jobs[0].MatchScore)
	}
}

func TestAggregateDuplicateSkillsCountOnce(t *testing.T) {
	t.Parallel()

	batches := []Batch{{Results: []JobResult{
		{Title: "A", Link: "https://www.indeed.com/a", Snippet: "Senior Go engineer"},
	}}}

	jobs, err := Aggregate(batches, []string{"Go", "go", "GO"}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobs[0].MatchScore != 1 {
		t.Fatalf("case-folded duplicates must count once, got score %d", jobs[0].MatchScore)
	}
}

func TestAggregateInvalidTopN(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.TopN = 0

	if _, err := Aggregate(nil, nil, cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMatchScoreMonotonicity(t *testing.T) {
	t.Parallel()

	snippet := "Senior Go engineer with SQL and AWS exposure"
	smaller := distinctFolded([]string{"Go", "SQL"})
	larger := distinctFolded([]string{"Go", "SQL", "AWS", "Terraform"})

	if matchScore(snippet, smaller) > matchScore(snippet, larger) {
		t.Fatalf("score must be monotone in the skill set: %d > %d",
			matchScore(snippet, smaller), matchScore(snippet, larger))
	}
}

func TestMatchScoreSubstringContainment(t *testing.T) {
	t.Parallel()

	// Plain substring matching: "R" matches inside "engineeR" too. This is
	// the documented approximation, not a bug.
	score := matchScore("AWS engineer", distinctFolded([]string{"R"}))
	if score != 1 {
		t.Fatalf("expected substring containment to match, got %d", score)
	}
}
