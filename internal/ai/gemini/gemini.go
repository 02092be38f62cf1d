// Package gemini implements ai.Generator on the Google GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/spigell/devscout/internal/ai"
)

const (
	defaultModel = "gemini-2.5-pro"
	retryInfo    = "type.googleapis.com/google.rpc.RetryInfo"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client for single-turn prompts.
type Generator struct {
	models    contentGenerator
	modelName string
	maxTokens int
}

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		clientCfg.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Generator{models: client.Models, modelName: model, maxTokens: cfg.MaxTokens}, nil
}

// Generate sends the prompt to Gemini and joins the textual parts of every candidate.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.TokensOr(g.maxTokens)),
	}
	if system := strings.TrimSpace(req.System); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(req.Prompt), config)
	if err != nil {
		return "", classify(err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", fmt.Errorf("%s: %w", ai.ProviderGemini, ai.ErrEmptyResponse)
	}

	return output, nil
}

func (g *Generator) Provider() string { return ai.ProviderGemini }

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

func classify(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return ai.ClassifyStatus(ai.ProviderGemini, 503, 0, fmt.Errorf("generate content: %w", err))
	}
	return ai.ClassifyStatus(ai.ProviderGemini, apiErr.Code, quotaDelay(apiErr), fmt.Errorf("generate content: %w", err))
}

// quotaDelay reads the RetryInfo detail Google attaches to RESOURCE_EXHAUSTED errors.
func quotaDelay(apiErr genai.APIError) time.Duration {
	for _, detail := range apiErr.Details {
		if kind, _ := detail["@type"].(string); kind != retryInfo {
			continue
		}
		raw, _ := detail["retryDelay"].(string)
		if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && d > 0 {
			return d
		}
	}
	return 0
}
