// Package dna infers a developer's working style ("code DNA") from repositories and commits.
package dna

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/cache"
	"github.com/spigell/devscout/internal/extract"
	"github.com/spigell/devscout/internal/github"
	"github.com/spigell/devscout/internal/languages"
	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/prompts"
	"github.com/spigell/devscout/internal/utils"
)

// SampledRepos is the number of recently pushed repositories whose commits are sampled.
const SampledRepos = 5

type Fetcher interface {
	FetchProfile(ctx context.Context, login string) (*model.RawData, error)
}

type CommitLister interface {
	GetCommits(ctx context.Context, owner, repo, author string, perPage int) ([]model.Commit, error)
}

type Recorder interface {
	Inference(task, outcome string)
}

type Analyzer struct {
	fetcher   Fetcher
	commits   CommitLister
	generator ai.Generator
	store     *cache.Store[*model.CodeDNA]
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

func NewAnalyzer(fetcher Fetcher, commits CommitLister, generator ai.Generator, store *cache.Store[*model.CodeDNA], log *zap.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		fetcher:   fetcher,
		commits:   commits,
		generator: generator,
		store:     store,
		logger:    logger.Component(log, "dna"),
		maxLogLen: 200,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the code DNA of login. Only fetch errors are returned.
func (a *Analyzer) Analyze(ctx context.Context, login string) (*model.CodeDNA, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperr.InvalidInput("username is required")
	}

	key := cache.Key(login)
	if a.store != nil {
		if d, ok := a.store.Get(key); ok {
			return d, nil
		}
	}

	flight := a.group.DoChan(key, func() (any, error) {
		d, err := a.analyze(context.WithoutCancel(ctx), login)
		if err != nil {
			return nil, err
		}
		if a.store != nil {
			a.store.Set(key, d)
		}
		return d, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.CodeDNA), nil
	}
}

func (a *Analyzer) analyze(ctx context.Context, login string) (*model.CodeDNA, error) {
	log := logger.WithUsername(a.logger, login)

	raw, err := a.fetcher.FetchProfile(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	langs := languages.Calculate(raw.Repos)
	commits := a.sampleCommits(ctx, log, raw)
	local := Heuristics(raw, langs, commits)

	out, reason := a.infer(ctx, log, raw, langs, commits)

	var result *model.CodeDNA
	if reason != "" {
		log.Info("using heuristic code dna", zap.String("reason", reason))
		result = local
		result.AnalysisSource = model.SourceFallback
		result.FallbackReason = reason
		a.record(string(model.SourceFallback))
	} else {
		result = merge(out, local)
		result.AnalysisSource = model.SourceAI
		a.record(string(model.SourceAI))
	}

	result.Username = raw.User.Login
	result.AnalyzedAt = a.now()
	return result, nil
}

// sampleCommits collects the author's commits from the most recently pushed own repositories.
// Sampling is best effort: a rate limit or cancellation ends it, other failures skip the repository.
func (a *Analyzer) sampleCommits(ctx context.Context, log *zap.Logger, raw *model.RawData) []model.Commit {
	if a.commits == nil {
		return nil
	}

	var commits []model.Commit
	for _, repo := range recentRepos(raw.Repos, SampledRepos) {
		batch, err := a.commits.GetCommits(ctx, raw.User.Login, repo.Name, raw.User.Login, github.CommitsPerPage)
		if err != nil {
			if errors.Is(err, apperr.ErrRateLimited) || ctx.Err() != nil {
				log.Warn("stopping commit sampling", zap.Error(err))
				break
			}
			log.Debug("skipping repository commits", zap.String("repo", repo.Name), zap.Error(err))
			continue
		}
		commits = append(commits, batch...)
	}

	log.Debug("sampled commits", zap.Int("count", len(commits)))
	return commits
}

func recentRepos(repos []model.Repo, limit int) []model.Repo {
	own := make([]model.Repo, 0, len(repos))
	for _, r := range repos {
		if !r.Fork {
			own = append(own, r)
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].PushedAt.After(own[j].PushedAt)
	})
	if len(own) > limit {
		own = own[:limit]
	}
	return own
}

func (a *Analyzer) infer(ctx context.Context, log *zap.Logger, raw *model.RawData, langs []model.Language, commits []model.Commit) (prompts.DNAOutput, string) {
	if a.generator == nil {
		return prompts.DNAOutput{}, "ai disabled"
	}

	prompt, err := prompts.DNA(raw, langs, commits)
	if err != nil {
		return prompts.DNAOutput{}, err.Error()
	}

	log = logger.WithInference(log, prompt.Task, a.generator.Provider(), a.generator.Model())
	log.Debug("inference request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt.User)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt.User, a.maxLogLen)),
	)

	text, err := a.generator.Generate(ctx, ai.Request{Task: prompt.Task, System: prompt.System, Prompt: prompt.User})
	if err != nil {
		log.Warn("inference failed", zap.Error(err))
		return prompts.DNAOutput{}, fmt.Sprintf("inference failed: %v", err)
	}

	log.Debug("inference response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, a.maxLogLen)),
	)

	outcome := extract.Parse[prompts.DNAOutput](text)
	if outcome.Fallback {
		log.Warn("unparsable model response", zap.String("reason", outcome.Reason))
		return prompts.DNAOutput{}, outcome.Reason
	}
	return outcome.Value, ""
}

func (a *Analyzer) record(outcome string) {
	if a.rec != nil {
		a.rec.Inference(prompts.TaskDNA, outcome)
	}
}
