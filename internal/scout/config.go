package scout

import (
	"time"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/cache"
	"github.com/spigell/devscout/internal/ratelimit"
	"github.com/spigell/devscout/internal/search"
)

// Config is the service part of the devscout configuration file.
type Config struct {
	GitHub  GitHubConfig  `mapstructure:"github"`
	Cache   CacheConfig   `mapstructure:"cache"`
	AI      AIConfig      `mapstructure:"ai"`
	Compare CompareConfig `mapstructure:"compare"`
	Search  SearchConfig  `mapstructure:"search"`
}

type GitHubConfig struct {
	APIURL           string        `mapstructure:"api-url"`
	Token            string        `mapstructure:"token"`
	TokenFile        string        `mapstructure:"token-file"`
	UserAgent        string        `mapstructure:"user-agent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRetries       int           `mapstructure:"max-retries"`
	RateLimitReserve int           `mapstructure:"rate-limit-reserve"`
	MinInterval      time.Duration `mapstructure:"min-interval"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type AIConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api-key"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	BaseURL    string        `mapstructure:"base-url"`
	MaxTokens  int           `mapstructure:"max-tokens"`
	MaxRetries int           `mapstructure:"max-retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// Prompt and response previews in debug logs are cut to this many characters.
	MaxLogLength int `mapstructure:"max-log-length"`
	// EnforceRecommendationBands always derives the match recommendation from the score.
	EnforceRecommendationBands bool `mapstructure:"enforce-recommendation-bands"`
}

type CompareConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type SearchConfig struct {
	PerPage           int `mapstructure:"per-page"`
	EnrichConcurrency int `mapstructure:"enrich-concurrency"`
}

const (
	defaultAITimeout    = 60 * time.Second
	defaultAIRetries    = 2
	defaultMaxLogLength = 200
	defaultCompareDelay = time.Second
)

// DefaultConfig returns the configuration used when a key is not set.
func DefaultConfig() Config {
	return Config{
		GitHub: GitHubConfig{
			Timeout:          10 * time.Second,
			MaxRetries:       2,
			RateLimitReserve: ratelimit.DefaultReserve,
		},
		Cache: CacheConfig{TTL: cache.DefaultTTL},
		AI: AIConfig{
			Enabled:      true,
			Provider:     ai.ProviderClaude,
			MaxTokens:    ai.DefaultMaxTokens,
			MaxRetries:   defaultAIRetries,
			Timeout:      defaultAITimeout,
			MaxLogLength: defaultMaxLogLength,
		},
		Compare: CompareConfig{Delay: defaultCompareDelay},
		Search: SearchConfig{
			PerPage:           30,
			EnrichConcurrency: search.DefaultConcurrency,
		},
	}
}
