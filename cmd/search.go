package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find GitHub users by skills, location and activity",
	Run: func(cmd *cobra.Command, _ []string) {
		searchCandidates(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringSliceP("skill", "s", nil, "required skill, repeatable")
	searchCmd.Flags().StringP("location", "l", "", "location filter")
	searchCmd.Flags().Int("min-repos", 0, "minimum number of public repositories")
	searchCmd.Flags().Int("min-followers", 0, "minimum number of followers")
	searchCmd.Flags().Int("per-page", 0, "page size, 1-100 (default from search.per-page)")
}

func searchCandidates(cmd *cobra.Command) {
	ctx := context.Background()
	rt := bootstrap(ctx, newLogger(), nil)
	defer rt.close()

	flags := cmd.Flags()
	criteria := model.SearchCriteria{}
	criteria.Skills, _ = flags.GetStringSlice("skill")
	criteria.Location, _ = flags.GetString("location")
	criteria.MinRepos, _ = flags.GetInt("min-repos")
	criteria.MinFollowers, _ = flags.GetInt("min-followers")
	criteria.PerPage, _ = flags.GetInt("per-page")

	result, err := rt.service.SearchCandidates(ctx, criteria)
	if err != nil {
		rt.logger.Fatal("searching candidates", zap.Strings("skills", criteria.Skills), zap.Error(err))
	}

	rt.logger.Info("search finished",
		zap.Int("returned", result.Total),
		zap.Int("available", result.TotalAvailable),
	)

	if err := printJSON(result); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}
