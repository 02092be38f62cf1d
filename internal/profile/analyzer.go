// Package profile turns a GitHub account into an analyzed skill profile.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/cache"
	"github.com/spigell/devscout/internal/extract"
	"github.com/spigell/devscout/internal/languages"
	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/prompts"
	"github.com/spigell/devscout/internal/utils"
)

const defaultMaxLogLength = 200

// Fetcher loads the upstream data of one account.
type Fetcher interface {
	FetchProfile(ctx context.Context, login string) (*model.RawData, error)
}

// Recorder counts model call outcomes.
type Recorder interface {
	Inference(task, outcome string)
}

type Analyzer struct {
	fetcher   Fetcher
	generator ai.Generator
	profiles  *cache.Store[*model.Profile]
	logger    *zap.Logger
	rec       Recorder
	maxLogLen int
	now       func() time.Time

	group singleflight.Group
}

type Option func(*Analyzer)

func WithRecorder(rec Recorder) Option {
	return func(a *Analyzer) { a.rec = rec }
}

func WithMaxLogLength(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxLogLen = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer wires the analyzer. generator may be nil: every profile is then built by the fallback.
func NewAnalyzer(fetcher Fetcher, generator ai.Generator, profiles *cache.Store[*model.Profile], log *zap.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		fetcher:   fetcher,
		generator: generator,
		profiles:  profiles,
		logger:    logger.Component(log, "profile"),
		maxLogLen: defaultMaxLogLength,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the profile of login. Fetch errors are returned; inference problems never are.
func (a *Analyzer) Analyze(ctx context.Context, login string) (*model.Profile, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperr.InvalidInput("username is required")
	}

	key := cache.Key(login)
	if a.profiles != nil {
		if p, ok := a.profiles.Get(key); ok {
			return p, nil
		}
	}

	// The flight outlives the caller that started it: joined callers only stop on their own ctx.
	flight := a.group.DoChan(key, func() (any, error) {
		if a.profiles != nil {
			if p, ok := a.profiles.Get(key); ok {
				return p, nil
			}
		}

		p, err := a.analyze(context.WithoutCancel(ctx), login)
		if err != nil {
			return nil, err
		}

		if a.profiles != nil {
			a.profiles.Set(key, p)
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Profile), nil
	}
}

func (a *Analyzer) analyze(ctx context.Context, login string) (*model.Profile, error) {
	log := logger.WithUsername(a.logger, login)

	raw, err := a.fetcher.FetchProfile(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	langs := languages.Calculate(raw.Repos)
	profile := base(raw, langs)
	profile.AnalyzedAt = a.now()

	out, reason := a.infer(ctx, log, raw, langs)
	if reason != "" {
		log.Info("using fallback profile", zap.String("reason", reason))
		applyFallback(profile, raw, langs, reason)
		a.record(string(model.SourceFallback))
		return profile, nil
	}

	applyOutput(profile, out)
	a.record(string(model.SourceAI))
	return profile, nil
}

// infer returns the decoded model output or the reason it is unusable.
func (a *Analyzer) infer(ctx context.Context, log *zap.Logger, raw *model.RawData, langs []model.Language) (prompts.SkillsOutput, string) {
	if a.generator == nil {
		return prompts.SkillsOutput{}, "ai disabled"
	}

	prompt, err := prompts.Skills(raw, langs)
	if err != nil {
		return prompts.SkillsOutput{}, err.Error()
	}

	log = logger.WithInference(log, prompt.Task, a.generator.Provider(), a.generator.Model())
	log.Debug("inference request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt.User)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt.User, a.maxLogLen)),
	)

	text, err := a.generator.Generate(ctx, ai.Request{Task: prompt.Task, System: prompt.System, Prompt: prompt.User})
	if err != nil {
		log.Warn("inference failed", zap.Error(err))
		return prompts.SkillsOutput{}, fmt.Sprintf("inference failed: %v", err)
	}

	log.Debug("inference response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, a.maxLogLen)),
	)

	outcome := extract.Parse[prompts.SkillsOutput](text)
	if outcome.Fallback {
		log.Warn("unparsable model response", zap.String("reason", outcome.Reason))
		return prompts.SkillsOutput{}, outcome.Reason
	}

	return outcome.Value, ""
}

func (a *Analyzer) record(outcome string) {
	if a.rec != nil {
		a.rec.Inference(prompts.TaskSkills, outcome)
	}
}
