// Package claude implements ai.Generator on the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spigell/devscout/internal/ai"
)

const defaultModel = string(anthropic.ModelClaudeSonnet4_5)

type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Generator struct {
	messages  messageCreator
	model     string
	maxTokens int
}

// Config holds the provider settings.
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
		return nil, errors.New("anthropic api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// retries are handled by ai.WithRetry
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	client := anthropic.NewClient(opts...)

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Generator{messages: &client.Messages, model: model, maxTokens: cfg.MaxTokens}, nil
}

func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(req.TokensOr(g.maxTokens)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := g.messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var builder strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	if builder.Len() == 0 {
		return "", fmt.Errorf("%s: %w", ai.ProviderClaude, ai.ErrEmptyResponse)
	}

	return builder.String(), nil
}

func (g *Generator) Provider() string { return ai.ProviderClaude }
func (g *Generator) Model() string    { return g.model }

func classify(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return ai.ClassifyStatus(ai.ProviderClaude, http.StatusServiceUnavailable, 0, fmt.Errorf("create message: %w", err))
	}

	// 529 is Anthropic's "overloaded"
	return ai.ClassifyStatus(ai.ProviderClaude, apiErr.StatusCode, retryAfter(apiErr.Response), fmt.Errorf("create message: %w", err))
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
