package scout

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/ai/claude"
	"github.com/spigell/devscout/internal/ai/gemini"
	"github.com/spigell/devscout/internal/ai/openai"
	"github.com/spigell/devscout/internal/secrets"
)

var keyEnv = map[string]string{
	ai.ProviderClaude: "ANTHROPIC_API_KEY",
	ai.ProviderGemini: "GEMINI_API_KEY",
	ai.ProviderOpenAI: "OPENAI_API_KEY",
}

// newGenerator builds the configured provider. A disabled config yields a nil generator.
func newGenerator(ctx context.Context, cfg AIConfig, logger *zap.Logger) (ai.Generator, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = ai.ProviderClaude
	}

	env, ok := keyEnv[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  provider + " api key",
		Value: cfg.APIKey,
		Env:   env,
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.api-key-file or %s)", err, env)
	}

	var generator ai.Generator
	switch provider {
	case ai.ProviderClaude:
		g, err := claude.NewGenerator(claude.Config{
			APIKey:    apiKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		generator = g
	case ai.ProviderGemini:
		g, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:    apiKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		generator = g
	case ai.ProviderOpenAI:
		g, err := openai.NewGenerator(openai.Config{
			APIKey:    apiKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		generator = g
	}

	logger.Info("ai provider configured",
		zap.String("provider", generator.Provider()),
		zap.String("model", generator.Model()),
		zap.Int("ai_retry_attempts", cfg.MaxRetries),
	)

	return ai.WithRetry(generator, cfg.MaxRetries, logger), nil
}
