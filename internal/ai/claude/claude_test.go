package claude

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/apperr"
)

type fakeMessages struct {
	params []anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = append(f.params, body)
	return f.resp, f.err
}

func apiError(status int, header http.Header) *anthropic.Error {
	return &anthropic.Error{
		StatusCode: status,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil),
		Response:   &http.Response{StatusCode: status, Header: header},
	}
}

func TestGenerateKeepsOnlyTextBlocks(t *testing.T) {
	fake := &fakeMessages{resp: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "thinking", Thinking: "hidden"},
		{Type: "text", Text: ` {"skills":["Go"]} `},
		{Type: "text", Text: "  "},
	}}}
	g := &Generator{messages: fake, model: "claude-test", maxTokens: 512}

	out, err := g.Generate(context.Background(), ai.Request{System: "sys", Prompt: "user"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"skills":["Go"]}` {
		t.Fatalf("unexpected output %q", out)
	}

	params := fake.params[0]
	if params.MaxTokens != 512 || string(params.Model) != "claude-test" {
		t.Fatalf("unexpected params: %+v", params)
	}
	if len(params.System) != 1 || params.System[0].Text != "sys" {
		t.Fatalf("expected system prompt, got %+v", params.System)
	}
	if len(params.Messages) != 1 {
		t.Fatalf("expected a single user turn, got %d", len(params.Messages))
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	g := &Generator{messages: &fakeMessages{resp: &anthropic.Message{}}, model: "claude-test"}

	if _, err := g.Generate(context.Background(), ai.Request{Prompt: "p"}); !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestGenerateClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect apperr.Kind
		wait   time.Duration
	}{
		{name: "rate limited", err: apiError(429, http.Header{"Retry-After": []string{"3"}}), expect: apperr.KindRateLimited, wait: 3 * time.Second},
		{name: "overloaded", err: apiError(529, http.Header{}), expect: apperr.KindTransient},
		{name: "bad request", err: apiError(400, http.Header{}), expect: apperr.KindInternal},
		{name: "network", err: errors.New("connection refused"), expect: apperr.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Generator{messages: &fakeMessages{err: tt.err}, model: "claude-test"}
			_, err := g.Generate(context.Background(), ai.Request{Prompt: "p"})
			if got := apperr.KindOf(err); got != tt.expect {
				t.Fatalf("expected %s, got %s (%v)", tt.expect, got, err)
			}
			if tt.wait > 0 {
				if d, ok := apperr.RetryAfter(err); !ok || d != tt.wait {
					t.Fatalf("expected retry hint %s, got %s", tt.wait, d)
				}
			}
		})
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(Config{APIKey: "  "}); err == nil {
		t.Fatalf("expected error for empty key")
	}

	g, err := NewGenerator(Config{APIKey: "key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != defaultModel || g.Provider() != ai.ProviderClaude {
		t.Fatalf("unexpected identity %s/%s", g.Provider(), g.Model())
	}
}
