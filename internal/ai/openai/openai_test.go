package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/apperr"
)

type fakeCompletions struct {
	params []oai.ChatCompletionNewParams
	resp   *oai.ChatCompletion
	err    error
}

func (f *fakeCompletions) New(_ context.Context, body oai.ChatCompletionNewParams, _ ...option.RequestOption) (*oai.ChatCompletion, error) {
	f.params = append(f.params, body)
	return f.resp, f.err
}

func TestGenerate(t *testing.T) {
	fake := &fakeCompletions{resp: &oai.ChatCompletion{Choices: []oai.ChatCompletionChoice{
		{Message: oai.ChatCompletionMessage{Content: "  {\"matchScore\": 70}  "}},
	}}}
	g := &Generator{completions: fake, model: "gpt-test", maxTokens: 300}

	out, err := g.Generate(context.Background(), ai.Request{System: "sys", Prompt: "user"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"matchScore": 70}` {
		t.Fatalf("unexpected output %q", out)
	}

	params := fake.params[0]
	if params.Model != "gpt-test" || len(params.Messages) != 2 {
		t.Fatalf("unexpected params: model=%s messages=%d", params.Model, len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil || params.Messages[1].OfUser == nil {
		t.Fatalf("expected system then user message")
	}
	if params.MaxCompletionTokens.Value != 300 {
		t.Fatalf("expected 300 tokens, got %d", params.MaxCompletionTokens.Value)
	}
}

func TestGenerateWithoutSystem(t *testing.T) {
	fake := &fakeCompletions{resp: &oai.ChatCompletion{}}
	g := &Generator{completions: fake, model: "gpt-test"}

	_, err := g.Generate(context.Background(), ai.Request{Prompt: "user"})
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected empty response, got %v", err)
	}
	if len(fake.params[0].Messages) != 1 {
		t.Fatalf("expected only the user turn")
	}
}

func TestGenerateClassifiesErrors(t *testing.T) {
	limited := &oai.Error{
		StatusCode: http.StatusTooManyRequests,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.openai.com/v1/chat/completions", nil),
		Response:   &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{"Retry-After-Ms": []string{"1500"}}},
	}

	g := &Generator{completions: &fakeCompletions{err: limited}, model: "gpt-test"}
	_, err := g.Generate(context.Background(), ai.Request{Prompt: "p"})
	if apperr.KindOf(err) != apperr.KindRateLimited {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if d, _ := apperr.RetryAfter(err); d != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s hint, got %s", d)
	}

	g = &Generator{completions: &fakeCompletions{err: errors.New("EOF")}, model: "gpt-test"}
	if _, err := g.Generate(context.Background(), ai.Request{Prompt: "p"}); apperr.KindOf(err) != apperr.KindTransient {
		t.Fatalf("expected transient, got %v", err)
	}
}
