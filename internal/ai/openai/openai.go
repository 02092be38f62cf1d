// Package openai implements ai.Generator on OpenAI-compatible chat completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/spigell/devscout/internal/ai"
)

const defaultModel = "gpt-4o"

type completer interface {
	New(ctx context.Context, body oai.ChatCompletionNewParams, opts ...option.RequestOption) (*oai.ChatCompletion, error)
}

type Generator struct {
	completions completer
	model       string
	maxTokens   int
}

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

func NewGenerator(cfg Config) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	client := oai.NewClient(opts...)

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Generator{completions: &client.Chat.Completions, model: model, maxTokens: cfg.MaxTokens}, nil
}

func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	messages := make([]oai.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, oai.SystemMessage(system))
	}
	messages = append(messages, oai.UserMessage(req.Prompt))

	resp, err := g.completions.New(ctx, oai.ChatCompletionNewParams{
		Model:               g.model,
		Messages:            messages,
		MaxCompletionTokens: oai.Int(int64(req.TokensOr(g.maxTokens))),
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", ai.ProviderOpenAI, ai.ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s: %w", ai.ProviderOpenAI, ai.ErrEmptyResponse)
	}

	return content, nil
}

func (g *Generator) Provider() string { return ai.ProviderOpenAI }
func (g *Generator) Model() string    { return g.model }

func classify(err error) error {
	var apiErr *oai.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return ai.ClassifyStatus(ai.ProviderOpenAI, http.StatusServiceUnavailable, 0, fmt.Errorf("chat completion: %w", err))
	}
	return ai.ClassifyStatus(ai.ProviderOpenAI, apiErr.StatusCode, retryAfter(apiErr.Response), fmt.Errorf("chat completion: %w", err))
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	if ms, err := strconv.Atoi(resp.Header.Get("Retry-After-Ms")); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
