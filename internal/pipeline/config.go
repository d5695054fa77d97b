// Package pipeline implements one resume-to-jobs search cycle: planning
// skill-chunked search queries, fanning them out against a search backend,
// and aggregating the batches into a ranked, fixed-schema report.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument reports unusable pipeline configuration. It is the only
// hard failure the pipeline surfaces; per-query upstream failures degrade to
// empty batches instead.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultTrustedDomains is the allowlist of job boards results are kept from.
var DefaultTrustedDomains = []string{
	"indeed.com",
	"linkedin.com",
	"glassdoor.com",
	"monster.com",
}

const (
	DefaultChunkSize = 5
	DefaultTopN      = 10
)

// Config carries the planning and aggregation knobs. They are passed
// explicitly rather than read from ambient state.
type Config struct {
	// Location is the free-text target location, e.g. "Austin".
	Location string
	// ChunkSize bounds how many skills go into a single query.
	ChunkSize int
	// TopN bounds the size of the final ranked report.
	TopN int
	// TrustedDomains overrides DefaultTrustedDomains when non-empty.
	TrustedDomains []string
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(c.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidArgument)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be at least 1, got %d", ErrInvalidArgument, c.ChunkSize)
	}
	if c.TopN < 1 {
		return fmt.Errorf("%w: top-n must be at least 1, got %d", ErrInvalidArgument, c.TopN)
	}
	return nil
}

func (c *Config) domains() []string {
	if len(c.TrustedDomains) == 0 {
		return DefaultTrustedDomains
	}
	return c.TrustedDomains
}
