package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/apperr"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []callRecord
	resp  *genai.GenerateContentResponse
	err   error
}

type callRecord struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, callRecord{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func TestGenerateSetsSystemInstruction(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "first"},
				nil,
				{Text: "second"},
			}},
		}, nil},
	}}

	g := &Generator{models: fake, modelName: "gemini-pro", maxTokens: 1024}

	out, err := g.Generate(context.Background(), ai.Request{System: "system", Prompt: "message"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "first\nsecond" {
		t.Fatalf("unexpected output: %q", out)
	}

	call := fake.calls[0]
	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model %q", call.model)
	}
	if call.config.SystemInstruction == nil || call.config.SystemInstruction.Parts[0].Text != "system" {
		t.Fatalf("expected system instruction to be set")
	}
	if call.config.MaxOutputTokens != 1024 {
		t.Fatalf("expected token budget 1024, got %d", call.config.MaxOutputTokens)
	}
	if len(call.contents) != 1 || call.contents[0].Parts[0].Text != "message" {
		t.Fatalf("unexpected contents: %+v", call.contents)
	}
}

func TestGenerateEmpty(t *testing.T) {
	g := &Generator{models: &fakeModels{resp: &genai.GenerateContentResponse{}}, modelName: "gemini-pro"}

	if _, err := g.Generate(context.Background(), ai.Request{Prompt: "p"}); !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}

	var nilGen *Generator
	if _, err := nilGen.Generate(context.Background(), ai.Request{Prompt: "p"}); err == nil {
		t.Fatalf("expected error from uninitialized generator")
	}
}

func TestGenerateClassifiesAPIErrors(t *testing.T) {
	quota := genai.APIError{
		Code:   http.StatusTooManyRequests,
		Status: "RESOURCE_EXHAUSTED",
		Details: []map[string]any{
			{"@type": "type.googleapis.com/google.rpc.QuotaFailure"},
			{"@type": retryInfo, "retryDelay": "37s"},
		},
	}

	tests := []struct {
		name   string
		err    error
		expect apperr.Kind
		wait   time.Duration
	}{
		{name: "quota", err: quota, expect: apperr.KindRateLimited, wait: 37 * time.Second},
		{name: "internal", err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, expect: apperr.KindTransient},
		{name: "invalid argument", err: genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}, expect: apperr.KindInternal},
		{name: "canceled", err: context.Canceled, expect: apperr.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Generator{models: &fakeModels{err: tt.err}, modelName: "gemini-pro"}
			_, err := g.Generate(context.Background(), ai.Request{Prompt: "p"})
			if got := apperr.KindOf(err); got != tt.expect {
				t.Fatalf("expected %s, got %s (%v)", tt.expect, got, err)
			}
			if tt.wait > 0 {
				if d, _ := apperr.RetryAfter(err); d != tt.wait {
					t.Fatalf("expected retry hint %s, got %s", tt.wait, d)
				}
			}
		})
	}
}
