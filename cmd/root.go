package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/devscout/internal/scout"
)

const (
	app       = "devscout"
	envPrefix = "DEVSCOUT"
)

type Config struct {
	scout.Config `mapstructure:",squash"`

	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
}

type StorageConfig struct {
	Driver          string `mapstructure:"driver"`
	DatabaseURL     string `mapstructure:"database-url"`
	DatabaseURLFile string `mapstructure:"database-url-file"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "devscout analyzes GitHub profiles and matches developers against job descriptions",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is devscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Only the default location is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

// setDefaults registers every key so environment overrides apply to nested values too.
func setDefaults() {
	def := scout.DefaultConfig()

	viper.SetDefault("github.api-url", "")
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.token-file", "")
	viper.SetDefault("github.user-agent", "")
	viper.SetDefault("github.timeout", def.GitHub.Timeout)
	viper.SetDefault("github.max-retries", def.GitHub.MaxRetries)
	viper.SetDefault("github.rate-limit-reserve", def.GitHub.RateLimitReserve)
	viper.SetDefault("github.min-interval", def.GitHub.MinInterval)

	viper.SetDefault("cache.ttl", def.Cache.TTL)

	viper.SetDefault("ai.enabled", def.AI.Enabled)
	viper.SetDefault("ai.provider", def.AI.Provider)
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.api-key", "")
	viper.SetDefault("ai.api-key-file", "")
	viper.SetDefault("ai.base-url", "")
	viper.SetDefault("ai.max-tokens", def.AI.MaxTokens)
	viper.SetDefault("ai.max-retries", def.AI.MaxRetries)
	viper.SetDefault("ai.max-log-length", def.AI.MaxLogLength)
	viper.SetDefault("ai.timeout", def.AI.Timeout)
	viper.SetDefault("ai.enforce-recommendation-bands", false)

	viper.SetDefault("compare.delay", def.Compare.Delay)

	viper.SetDefault("search.per-page", def.Search.PerPage)
	viper.SetDefault("search.enrich-concurrency", def.Search.EnrichConcurrency)

	viper.SetDefault("storage.driver", "memory")
	viper.SetDefault("storage.database-url", "")
	viper.SetDefault("storage.database-url-file", "")

	viper.SetDefault("server.listen", ":8080")
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
