// Package matching scores an analyzed profile against a job description.
package matching

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
	fallbackScore     = 50
	fallbackReasoning = "Analysis completed with limited parsing. Manual review recommended."
	unparsedMissing   = "Unable to parse requirements"

	hireThreshold      = 80
	interviewThreshold = 60
)

type Recorder interface {
	Inference(task, outcome string)
}

type Matcher struct {
	generator    ai.Generator
	logger       *zap.Logger
	rec          Recorder
	enforceBands bool
	maxLogLen    int
}

type Option func(*Matcher)

func WithRecorder(rec Recorder) Option {
	return func(m *Matcher) { m.rec = rec }
}

// WithEnforcedBands derives the recommendation from the score even when the model sent a valid one.
func WithEnforcedBands(enabled bool) Option {
	return func(m *Matcher) { m.enforceBands = enabled }
}

func WithMaxLogLength(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.maxLogLen = n
		}
	}
}

func New(generator ai.Generator, log *zap.Logger, opts ...Option) *Matcher {
	m := &Matcher{
		generator: generator,
		logger:    logger.Component(log, "matching"),
		maxLogLen: 200,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the verdict for profile against job. Provider errors are returned, unusable
// model output yields the fallback verdict.
func (m *Matcher) Match(ctx context.Context, profile *model.Profile, job string) (*model.MatchVerdict, error) {
	if profile == nil {
		return nil, apperr.InvalidInput("profile is required")
	}
	if strings.TrimSpace(job) == "" {
		return nil, apperr.InvalidInput("job description is required")
	}

	log := logger.WithUsername(m.logger, profile.Username)

	if m.generator == nil {
		m.record(string(model.SourceFallback))
		return Fallback(profile, "ai disabled"), nil
	}

	prompt, err := prompts.Match(profile, job)
	if err != nil {
		return nil, fmt.Errorf("build match prompt: %w", err)
	}

	log = logger.WithInference(log, prompt.Task, m.generator.Provider(), m.generator.Model())
	log.Debug("inference request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt.User)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt.User, m.maxLogLen)),
	)

	text, err := m.generator.Generate(ctx, ai.Request{Task: prompt.Task, System: prompt.System, Prompt: prompt.User})
	if err != nil {
		m.record("error")
		return nil, fmt.Errorf("match %s: %w", profile.Username, err)
	}

	log.Debug("inference response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, m.maxLogLen)),
	)

	outcome := extract.Parse[prompts.MatchOutput](text)
	if outcome.Fallback {
		log.Warn("unparsable match response, using fallback verdict", zap.String("reason", outcome.Reason))
		m.record(string(model.SourceFallback))
		return Fallback(profile, outcome.Reason), nil
	}

	verdict := m.verdict(log, outcome.Value)
	m.record(string(model.SourceAI))
	return verdict, nil
}

func (m *Matcher) verdict(log *zap.Logger, out prompts.MatchOutput) *model.MatchVerdict {
	v := &model.MatchVerdict{
		MatchScore:       extract.ClampInt(out.MatchScore, 0, 100),
		MatchingSkills:   utils.Dedupe(out.MatchingSkills),
		MissingSkills:    utils.Dedupe(out.MissingSkills),
		StrengthsForRole: utils.Dedupe(out.StrengthsForRole),
		Reasoning:        strings.TrimSpace(out.Reasoning),
		AnalysisSource:   model.SourceAI,
	}

	derived := Recommend(v.MatchScore, len(v.MissingSkills))
	given := strings.ToLower(strings.TrimSpace(out.Recommendation))

	switch {
	case !validRecommendation(given):
		v.Recommendation = derived
	case m.enforceBands && given != derived:
		log.Debug("overriding model recommendation",
			zap.String("model_recommendation", given),
			zap.String("band_recommendation", derived),
			zap.Int("match_score", v.MatchScore),
		)
		v.Recommendation = derived
	default:
		v.Recommendation = given
	}

	return v
}

// Recommend maps a score onto the rubric bands. A hire needs every required skill covered.
func Recommend(score, missing int) string {
	switch {
	case score >= hireThreshold && missing == 0:
		return model.RecommendHire
	case score >= interviewThreshold:
		return model.RecommendInterview
	default:
		return model.RecommendPass
	}
}

func validRecommendation(r string) bool {
	switch r {
	case model.RecommendHire, model.RecommendInterview, model.RecommendPass:
		return true
	}
	return false
}

// Fallback is the verdict used when the model answer cannot be read.
func Fallback(profile *model.Profile, reason string) *model.MatchVerdict {
	return &model.MatchVerdict{
		MatchScore:       fallbackScore,
		MatchingSkills:   head(profile.Skills, 3),
		MissingSkills:    []string{unparsedMissing},
		StrengthsForRole: head(profile.Strengths, 2),
		Recommendation:   model.RecommendInterview,
		Reasoning:        fallbackReasoning,
		AnalysisSource:   model.SourceFallback,
		FallbackReason:   reason,
	}
}

func head(values []string, n int) []string {
	if len(values) < n {
		n = len(values)
	}
	out := make([]string, n)
	copy(out, values[:n])
	return out
}

func (m *Matcher) record(outcome string) {
	if m.rec != nil {
		m.rec.Inference(prompts.TaskMatch, outcome)
	}
}
