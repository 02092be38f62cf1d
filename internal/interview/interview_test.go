package interview

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/model"
)

type stubGenerator struct {
	response string
	err      error
	last     ai.Request
}

func (s *stubGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	s.last = req
	return s.response, s.err
}

func (s *stubGenerator) Provider() string { return "stub" }
func (s *stubGenerator) Model() string    { return "stub-model" }

func sampleProfile() *model.Profile {
	return &model.Profile{
		Username: "octocat",
		Skills:   []string{"Go", "Kubernetes", "PostgreSQL", "Terraform", "Python", "Bash"},
		ProficiencyLevels: map[string]string{
			"Go":         model.LevelExpert,
			"Kubernetes": model.LevelIntermediate,
			"PostgreSQL": model.LevelBeginner,
		},
	}
}

func TestGenerateUsesModelQuestions(t *testing.T) {
	var items []string
	for i := 0; i < 10; i++ {
		items = append(items, fmt.Sprintf(`{"skill": "Go", "question": "Question %d?", "difficulty": "HARD", "category": "riddle"}`, i))
	}
	items = append([]string{`{"skill": "Go", "question": "  "}`}, items...)
	gen := &stubGenerator{response: `{"questions": [` + strings.Join(items, ",") + `]}`}

	set, err := New(gen, zap.NewNop()).Generate(context.Background(), sampleProfile(), "Platform engineer", []string{"Rust"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.AnalysisSource != model.SourceAI || len(set.Questions) != MaxQuestions {
		t.Fatalf("unexpected set: %s with %d questions", set.AnalysisSource, len(set.Questions))
	}
	first := set.Questions[0]
	if first.Question != "Question 0?" || first.Difficulty != "hard" || first.Category != "practical" {
		t.Fatalf("unexpected question %+v", first)
	}
	if !strings.Contains(gen.last.Prompt, "Rust") || !strings.Contains(gen.last.System, "8") {
		t.Fatalf("gaps and limit must reach the prompt")
	}
}

func TestGenerateFallsBackToTemplates(t *testing.T) {
	tests := []struct {
		name string
		gen  ai.Generator
	}{
		{name: "disabled"},
		{name: "prose", gen: &stubGenerator{response: "Ask them about Go."}},
		{name: "empty list", gen: &stubGenerator{response: `{"questions": []}`}},
		{name: "provider error", gen: &stubGenerator{err: apperr.Transient("openai", errors.New("502"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := New(tt.gen, zap.NewNop()).Generate(context.Background(), sampleProfile(), "", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if set.AnalysisSource != model.SourceFallback || set.FallbackReason == "" {
				t.Fatalf("expected fallback, got %s", set.AnalysisSource)
			}
			if len(set.Questions) != 5 {
				t.Fatalf("expected 5 template questions, got %d", len(set.Questions))
			}
		})
	}
}

func TestTemplates(t *testing.T) {
	questions := Templates(sampleProfile(), []string{"Rust", "go", "Rust"})

	var got []string
	for _, q := range questions {
		got = append(got, q.Skill+"/"+q.Difficulty+"/"+q.Category)
	}
	expect := []string{
		"Rust/medium/conceptual",
		"go/medium/conceptual",
		"Kubernetes/medium/practical",
		"PostgreSQL/easy/conceptual",
		"Terraform/medium/practical",
	}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("unexpected templates %v", got)
	}
	if !strings.Contains(questions[0].Question, "Rust") || questions[0].FollowUp == "" {
		t.Fatalf("unexpected rendering %+v", questions[0])
	}

	expert := Templates(sampleProfile(), nil)[0]
	if expert.Skill != "Go" || expert.Difficulty != "hard" || expert.Category != "scenario" {
		t.Fatalf("unexpected expert question %+v", expert)
	}
}

func TestGenerateRequiresProfile(t *testing.T) {
	if _, err := New(nil, nil).Generate(context.Background(), nil, "", nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
