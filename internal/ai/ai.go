// Package ai defines the single-turn completion contract shared by all model providers.
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/utils"
)

const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultMaxTokens = 2048
)

// ErrEmptyResponse means the provider answered without any text block.
var ErrEmptyResponse = errors.New("model returned empty response")

// Request is one single-turn completion.
type Request struct {
	Task      string
	System    string
	Prompt    string
	MaxTokens int
}

// Generator produces a text completion.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Provider() string
	Model() string
}

// Validate checks the request before it is sent.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return apperr.InvalidInput("prompt must not be empty")
	}
	return nil
}

// TokensOr returns the request budget or def.
func (r Request) TokensOr(def int) int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	if def > 0 {
		return def
	}
	return DefaultMaxTokens
}

var wait = utils.WaitFor

const (
	retryBase = time.Second
	// Rate-limit hints longer than this are returned to the caller instead of waited out.
	maxRetryWait = 10 * time.Second
)

type retrying struct {
	next       Generator
	maxRetries int
	logger     *zap.Logger
}

// WithRetry retries transient failures and short rate-limit waits up to maxRetries times.
func WithRetry(next Generator, maxRetries int, logger *zap.Logger) Generator {
	if maxRetries <= 0 || next == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retrying{next: next, maxRetries: maxRetries, logger: logger}
}

func (r *retrying) Provider() string { return r.next.Provider() }
func (r *retrying) Model() string    { return r.next.Model() }

func (r *retrying) Generate(ctx context.Context, req Request) (string, error) {
	for attempt := 0; ; attempt++ {
		out, err := r.next.Generate(ctx, req)
		if err == nil {
			return out, nil
		}

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt >= r.maxRetries {
			return "", err
		}

		r.logger.Warn("model call failed, retrying",
			zap.String("ai_task", req.Task),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return "", err
		}
	}
}

func retryDelay(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, apperr.ErrRateLimited) {
		wait, ok := apperr.RetryAfter(err)
		if !ok || wait > maxRetryWait {
			return 0, false
		}
		return wait, true
	}
	if errors.Is(err, apperr.ErrTransient) {
		return retryBase << attempt, true
	}
	return 0, false
}

// ClassifyStatus maps a provider HTTP status onto the error taxonomy.
func ClassifyStatus(provider string, status int, retryAfter time.Duration, err error) error {
	switch {
	case status == 429:
		return &apperr.RateLimitError{Source: provider, RetryAfter: retryAfter}
	case status >= 500 || status == 408:
		return apperr.Transient(provider, err)
	default:
		return err
	}
}
