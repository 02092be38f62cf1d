package cmd

import (
	"context"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage stored analyses",
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	Run: func(_ *cobra.Command, _ []string) {
		listSaved()
	},
}

var savedGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stored analysis",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		getSaved(args[0])
	},
}

var savedDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored analysis",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		deleteSaved(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(savedCmd)
	savedCmd.AddCommand(savedListCmd, savedGetCmd, savedDeleteCmd)

	savedDeleteCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")
}

func listSaved() {
	ctx := context.Background()
	rt := bootstrap(ctx, newLogger(), nil)
	defer rt.close()

	analyses, err := rt.service.ListAnalyses(ctx)
	if err != nil {
		rt.logger.Fatal("listing analyses", zap.Error(err))
	}

	rt.logger.Info("stored analyses", zap.Int("count", len(analyses)))

	if err := printJSON(analyses); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}

func getSaved(rawID string) {
	ctx := context.Background()
	rt := bootstrap(ctx, newLogger(), nil)
	defer rt.close()

	id := parseID(rt.logger, rawID)
	analysis, err := rt.service.GetAnalysis(ctx, id)
	if err != nil {
		rt.logger.Fatal("getting analysis", zap.Int64("id", id), zap.Error(err))
	}

	if err := printJSON(analysis); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}

func deleteSaved(cmd *cobra.Command, rawID string) {
	ctx := context.Background()
	rt := bootstrap(ctx, newLogger(), nil)
	defer rt.close()

	id := parseID(rt.logger, rawID)
	analysis, err := rt.service.GetAnalysis(ctx, id)
	if err != nil {
		rt.logger.Fatal("getting analysis", zap.Int64("id", id), zap.Error(err))
	}

	if approve, _ := cmd.Flags().GetBool("auto-approve"); !approve {
		prompt := promptui.Select{
			Label: "Delete the analysis of " + analysis.Username + "?",
			Items: []string{PromptNo, PromptYes},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			rt.logger.Fatal("exiting", zap.Error(err))
		}
		if answer != PromptYes {
			rt.logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	if err := rt.service.DeleteAnalysis(ctx, id); err != nil {
		rt.logger.Fatal("deleting analysis", zap.Int64("id", id), zap.Error(err))
	}

	rt.logger.Info("analysis deleted", zap.Int64("id", id), zap.String("username", analysis.Username))
}

func parseID(l *zap.Logger, raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		l.Fatal("invalid analysis id", zap.String("id", raw))
	}
	return id
}
