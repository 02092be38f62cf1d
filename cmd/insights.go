package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dnaCmd = &cobra.Command{
	Use:   "dna <username>",
	Short: "Infer the working style of a GitHub user",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		codeDNA(args[0])
	},
}

var questionsCmd = &cobra.Command{
	Use:   "questions <username>",
	Short: "Generate interview questions for a GitHub user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		questions(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(dnaCmd)
	rootCmd.AddCommand(questionsCmd)

	addJobFlags(questionsCmd)
}

func codeDNA(username string) {
	ctx := context.Background()
	rt := bootstrap(ctx, newLogger(), nil)
	defer rt.close()

	dna, err := rt.service.CodeDNA(ctx, username)
	if err != nil {
		rt.logger.Fatal("analyzing code dna", zap.String("username", username), zap.Error(err))
	}

	if err := printJSON(dna); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}

func questions(cmd *cobra.Command, username string) {
	ctx := context.Background()
	rt := bootstrap(ctx, newLogger(), nil)
	defer rt.close()

	job, err := readJob(cmd)
	if err != nil {
		rt.logger.Fatal("reading job description", zap.Error(err))
	}

	set, err := rt.service.InterviewQuestions(ctx, username, job)
	if err != nil {
		rt.logger.Fatal("generating interview questions", zap.String("username", username), zap.Error(err))
	}

	if err := printJSON(set); err != nil {
		rt.logger.Fatal("printing result", zap.Error(err))
	}
}
