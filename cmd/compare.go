package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/compare"
	"github.com/spigell/devscout/internal/scout"
)

var compareCmd = &cobra.Command{
	Use:   "compare <username>...",
	Short: "Rank up to 20 GitHub users against one job description",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		compareCandidates(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	addJobFlags(compareCmd)
}

func compareCandidates(cmd *cobra.Command, usernames []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l := newLogger()
	progress := func(username, stage string) {
		level := l.Info
		if stage == compare.StageError || stage == compare.StageSkipped {
			level = l.Warn
		}
		level("candidate progress", zap.String("username", username), zap.String("stage", stage))
	}

	rt := bootstrap(ctx, l, nil, scout.WithProgress(progress))
	defer rt.close()

	job, err := readJob(cmd)
	if err != nil {
		rt.logger.Fatal("reading job description", zap.Error(err))
	}

	result, err := rt.service.BatchCompare(ctx, usernames, job)
	if err != nil {
		rt.logger.Fatal("comparing candidates", zap.Error(err))
	}

	rt.logger.Info("comparison finished",
		zap.Int("analyzed", result.TotalAnalyzed),
		zap.Int("failed", result.TotalFailed),
	)

	if err := printJSON(result); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}
