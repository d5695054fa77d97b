package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"jobfinder/internal/utils"

	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Extractor asks Gemini for the skills mentioned in a resume and parses the
// bullet list it returns.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// ExtractSkills returns the distinct skills found in the resume text,
// preserving first-seen order.
func (e *Extractor) ExtractSkills(ctx context.Context, resumeText string) ([]string, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, fmt.Errorf("resume text is required")
	}

	prompt := buildPrompt(resumeText)

	e.logger.Debug("gemini extract skills request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini extract skills response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return parseSkills(raw), nil
}

func buildPrompt(resumeText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Extract a bullet-point list of skills from this resume text:\n\n{{RESUME_TEXT}}"
	}
	return strings.ReplaceAll(template, "{{RESUME_TEXT}}", resumeText)
}

// parseSkills turns the model's bullet list into skill strings: bullets and
// surrounding whitespace stripped, blanks dropped, case-insensitive
// duplicates removed.
func parseSkills(raw string) []string {
	seen := make(map[string]struct{})
	var skills []string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "-•* \t"))
		if line == "" {
			continue
		}
		folded := strings.ToLower(line)
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		skills = append(skills, line)
	}

	return skills
}
