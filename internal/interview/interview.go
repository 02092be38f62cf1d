// Package interview generates interview questions for a candidate, aimed at the gaps of a match.
package interview

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/extract"
	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/prompts"
	"github.com/spigell/devscout/internal/utils"
)

const (
	MaxQuestions = 8
	// Skills covered by the template questions.
	fallbackSkills = 5
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	CategoryConceptual = "conceptual"
	CategoryPractical  = "practical"
	CategoryScenario   = "scenario"
)

type Recorder interface {
	Inference(task, outcome string)
}

type Generator struct {
	generator ai.Generator
	logger    *zap.Logger
	rec       Recorder
	maxLogLen int
}

type Option func(*Generator)

func WithRecorder(rec Recorder) Option {
	return func(g *Generator) { g.rec = rec }
}

func WithMaxLogLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxLogLen = n
		}
	}
}

func New(generator ai.Generator, log *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		generator: generator,
		logger:    logger.Component(log, "interview"),
		maxLogLen: 200,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns up to MaxQuestions questions for profile. job and gaps are optional; when
// gaps are given the questions target them first. Model failures yield template questions.
func (g *Generator) Generate(ctx context.Context, profile *model.Profile, job string, gaps []string) (*model.InterviewSet, error) {
	if profile == nil {
		return nil, apperr.InvalidInput("profile is required")
	}

	gaps = utils.Dedupe(gaps)
	log := logger.WithUsername(g.logger, profile.Username)

	questions, reason := g.infer(ctx, log, profile, job, gaps)
	if reason != "" {
		log.Info("using template interview questions", zap.String("reason", reason))
		g.record(string(model.SourceFallback))
		return &model.InterviewSet{
			Username:       profile.Username,
			Questions:      Templates(profile, gaps),
			AnalysisSource: model.SourceFallback,
			FallbackReason: reason,
		}, nil
	}

	g.record(string(model.SourceAI))
	return &model.InterviewSet{
		Username:       profile.Username,
		Questions:      questions,
		AnalysisSource: model.SourceAI,
	}, nil
}

func (g *Generator) infer(ctx context.Context, log *zap.Logger, profile *model.Profile, job string, gaps []string) ([]model.InterviewQuestion, string) {
	if g.generator == nil {
		return nil, "ai disabled"
	}

	prompt, err := prompts.Interview(profile, job, gaps, MaxQuestions)
	if err != nil {
		return nil, err.Error()
	}

	log = logger.WithInference(log, prompt.Task, g.generator.Provider(), g.generator.Model())
	log.Debug("inference request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt.User)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt.User, g.maxLogLen)),
	)

	text, err := g.generator.Generate(ctx, ai.Request{Task: prompt.Task, System: prompt.System, Prompt: prompt.User})
	if err != nil {
		log.Warn("inference failed", zap.Error(err))
		return nil, fmt.Sprintf("inference failed: %v", err)
	}

	log.Debug("inference response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, g.maxLogLen)),
	)

	outcome := extract.Parse[prompts.InterviewOutput](text)
	if outcome.Fallback {
		log.Warn("unparsable model response", zap.String("reason", outcome.Reason))
		return nil, outcome.Reason
	}

	questions := make([]model.InterviewQuestion, 0, MaxQuestions)
	for _, q := range outcome.Value.Questions {
		question := strings.TrimSpace(q.Question)
		if question == "" {
			continue
		}
		questions = append(questions, model.InterviewQuestion{
			Skill:      strings.TrimSpace(q.Skill),
			Question:   question,
			Difficulty: oneOf(q.Difficulty, DifficultyMedium, DifficultyEasy, DifficultyMedium, DifficultyHard),
			Category:   oneOf(q.Category, CategoryPractical, CategoryConceptual, CategoryPractical, CategoryScenario),
			FollowUp:   strings.TrimSpace(q.FollowUp),
		})
		if len(questions) == MaxQuestions {
			break
		}
	}
	if len(questions) == 0 {
		return nil, "no questions in response"
	}

	return questions, ""
}

func oneOf(value, def string, allowed ...string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if value == a {
			return a
		}
	}
	return def
}

func (g *Generator) record(outcome string) {
	if g.rec != nil {
		g.rec.Inference(prompts.TaskInterview, outcome)
	}
}
