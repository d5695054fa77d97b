package ai

import "context"

// SkillExtractor turns raw resume text into a list of distinct skill
// strings. An empty list is a valid outcome: the caller falls back to a
// generic location-only search.
type SkillExtractor interface {
	ExtractSkills(ctx context.Context, resumeText string) ([]string, error)
}
