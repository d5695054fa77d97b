package gemini

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestExtractorExtractSkills(t *testing.T) {
	stub := &stubGenerator{response: "- Python\n- Machine Learning\n- SQL\n- Cloud Computing"}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	skills, err := extractor.ExtractSkills(context.Background(), "ten years of data engineering")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"Python", "Machine Learning", "SQL", "Cloud Computing"}
	if !reflect.DeepEqual(skills, expected) {
		t.Fatalf("expected %v, got %v", expected, skills)
	}

	if !strings.Contains(stub.lastPrompt, "ten years of data engineering") {
		t.Fatalf("expected the resume text in the prompt, got: %s", stub.lastPrompt)
	}
}

func TestExtractorDropsDuplicatesAndBlanks(t *testing.T) {
	stub := &stubGenerator{response: "• Go\n\n* go\n-   \n- SQL\n- GO"}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	skills, err := extractor.ExtractSkills(context.Background(), "some resume")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"Go", "SQL"}
	if !reflect.DeepEqual(skills, expected) {
		t.Fatalf("expected %v, got %v", expected, skills)
	}
}

func TestExtractorPropagatesGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota exceeded")}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	if _, err := extractor.ExtractSkills(context.Background(), "some resume"); err == nil {
		t.Fatal("expected the generator error to propagate")
	}
}

func TestExtractorRequiresResumeText(t *testing.T) {
	stub := &stubGenerator{response: "- Go"}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	if _, err := extractor.ExtractSkills(context.Background(), "   \n"); err == nil {
		t.Fatal("expected an error for empty resume text")
	}
	if stub.lastPrompt != "" {
		t.Fatal("no prompt should be sent for empty resume text")
	}
}

func TestParseSkillsKeepsFirstSeenOrder(t *testing.T) {
	skills := parseSkills("- B\n- A\n- b\n- C\n- a")
	expected := []string{"B", "A", "C"}
	if !reflect.DeepEqual(skills, expected) {
		t.Fatalf("expected %v, got %v", expected, skills)
	}
}
