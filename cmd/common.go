package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/metrics"
	"github.com/spigell/devscout/internal/scout"
	"github.com/spigell/devscout/internal/secrets"
	"github.com/spigell/devscout/internal/storage"
)

// session holds what every command needs.
type session struct {
	logger  *zap.Logger
	config  *Config
	service *scout.Service
	repo    storage.Repo
	close   func()
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// bootstrap builds the service or exits.
func bootstrap(ctx context.Context, l *zap.Logger, rec *metrics.Recorder, opts ...scout.Option) *session {
	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		l.Fatal("config is required")
	}

	l.Debug("starting", zap.String("version", version))

	repo, closeRepo, err := openRepo(ctx, config.Storage, l)
	if err != nil {
		l.Fatal("opening the analyses store",
			zap.Error(err),
			zap.String("hint", "set storage.database-url-file or DATABASE_URL for the postgres driver"),
		)
	}

	svc, err := scout.New(ctx, config.Config, repo, l, rec, opts...)
	if err != nil {
		closeRepo()
		l.Fatal("creating the service",
			zap.Error(err),
			zap.String("hint", "set ai.api-key-file, the provider API key variable, or ai.enabled=false"),
		)
	}

	return &session{
		logger:  l,
		config:  config,
		service: svc,
		repo:    repo,
		close: func() {
			closeRepo()
			_ = l.Sync()
		},
	}
}

func openRepo(ctx context.Context, cfg StorageConfig, l *zap.Logger) (storage.Repo, func(), error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", storage.DriverMemory:
		return storage.NewMemoryRepo(), func() {}, nil
	case storage.DriverPostgres:
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}

	url, err := secrets.Load(secrets.Source{
		Name:  "database url",
		Value: cfg.DatabaseURL,
		Env:   "DATABASE_URL",
		File:  cfg.DatabaseURLFile,
	})
	if err != nil {
		return nil, nil, err
	}

	db, err := storage.Connect(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	l.Debug("analyses store is ready", zap.String("driver", driver))
	return &storage.PGRepo{DB: db}, func() { db.Close() }, nil
}

// readJob returns the job description from --job or --job-file.
func readJob(cmd *cobra.Command) (string, error) {
	job, _ := cmd.Flags().GetString("job")
	file, _ := cmd.Flags().GetString("job-file")
	if file == "" {
		return job, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading job description from %q: %w", file, err)
	}
	return string(data), nil
}

func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().String("job", "", "job description text")
	cmd.Flags().String("job-file", "", "file with the job description, wins over --job")
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(pretty))
	return err
}
