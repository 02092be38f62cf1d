package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/storage"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <username>",
	Short: "Analyze the skills of a GitHub user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args[0])
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <username>",
	Short: "Score a GitHub user against a job description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		match(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(matchCmd)

	analyzeCmd.Flags().Bool("save", false, "store the analysis")

	addJobFlags(matchCmd)
	matchCmd.Flags().Bool("save", false, "store the profile with the verdict")
}

func analyze(cmd *cobra.Command, username string) {
	ctx := context.Background()
	rt := bootstrap(ctx, newLogger(), nil)
	defer rt.close()

	profile, err := rt.service.AnalyzeProfile(ctx, username)
	if err != nil {
		rt.logger.Fatal("analyzing profile", zap.String("username", username), zap.Error(err))
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		saveAnalysis(ctx, rt, model.SavedAnalysis{Username: profile.Username, Profile: profile})
	}

	if err := printJSON(profile); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}

func match(cmd *cobra.Command, username string) {
	ctx := context.Background()
	rt := bootstrap(ctx, newLogger(), nil)
	defer rt.close()

	job, err := readJob(cmd)
	if err != nil {
		rt.logger.Fatal("reading job description", zap.Error(err))
	}

	profile, err := rt.service.AnalyzeProfile(ctx, username)
	if err != nil {
		rt.logger.Fatal("analyzing profile", zap.String("username", username), zap.Error(err))
	}

	verdict, err := rt.service.MatchJob(ctx, profile, job)
	if err != nil {
		rt.logger.Fatal("matching job", zap.String("username", username), zap.Error(err))
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		saveAnalysis(ctx, rt, model.SavedAnalysis{
			Username:       profile.Username,
			Profile:        profile,
			Match:          verdict,
			JobDescription: job,
		})
	}

	if err := printJSON(verdict); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}

func saveAnalysis(ctx context.Context, rt *session, analysis model.SavedAnalysis) {
	saved, err := rt.service.SaveAnalysis(ctx, analysis)
	if err != nil {
		rt.logger.Fatal("saving analysis", zap.Error(err))
	}
	if rt.config.Storage.Driver == "" || rt.config.Storage.Driver == storage.DriverMemory {
		rt.logger.Warn("analysis saved to the in-memory store and will be lost on exit",
			zap.String("hint", "set storage.driver to postgres"),
		)
	}
	rt.logger.Info("analysis saved", zap.Int64("id", saved.ID))
}
