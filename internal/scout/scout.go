// Package scout wires the devscout components into one service used by the CLI and the HTTP server.
package scout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/cache"
	"github.com/spigell/devscout/internal/compare"
	"github.com/spigell/devscout/internal/dna"
	"github.com/spigell/devscout/internal/github"
	"github.com/spigell/devscout/internal/interview"
	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/matching"
	"github.com/spigell/devscout/internal/metrics"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/profile"
	"github.com/spigell/devscout/internal/ratelimit"
	"github.com/spigell/devscout/internal/search"
	"github.com/spigell/devscout/internal/secrets"
	"github.com/spigell/devscout/internal/storage"
)

type Service struct {
	logger *zap.Logger

	cache      *cache.Cache
	gate       *ratelimit.Gate
	github     *github.Client
	analyzer   *profile.Analyzer
	matcher    *matching.Matcher
	comparator *compare.Comparator
	searcher   *search.Searcher
	dna        *dna.Analyzer
	interview  *interview.Generator
	repo       storage.Repo

	progress compare.ProgressFunc
}

type options struct {
	generator    ai.Generator
	hasGenerator bool
	progress     compare.ProgressFunc
}

type Option func(*options)

// WithGenerator replaces the configured AI provider. A nil generator disables inference.
func WithGenerator(g ai.Generator) Option {
	return func(o *options) {
		o.generator = g
		o.hasGenerator = true
	}
}

// WithProgress reports per-candidate stages of batch comparisons.
func WithProgress(fn compare.ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// New builds the service. rec may be nil.
func New(ctx context.Context, cfg Config, repo storage.Repo, log *zap.Logger, rec *metrics.Recorder, opts ...Option) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if repo == nil {
		repo = storage.NewMemoryRepo()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg = withDefaults(cfg)

	generator := o.generator
	if !o.hasGenerator {
		var err error
		generator, err = newGenerator(ctx, cfg.AI, logger.Component(log, "ai"))
		if err != nil {
			return nil, fmt.Errorf("configuring ai provider: %w", err)
		}
	}
	if generator == nil {
		log.Warn("ai inference is disabled, every analysis uses the heuristic fallback")
	}

	token, err := secrets.Load(secrets.Source{
		Name:     "github token",
		Value:    cfg.GitHub.Token,
		Env:      "GITHUB_TOKEN",
		File:     cfg.GitHub.TokenFile,
		Optional: true,
	})
	if err != nil {
		return nil, fmt.Errorf("loading github token: %w", err)
	}
	if token == "" {
		log.Info("no github token configured, unauthenticated quota applies")
	}

	c := cache.New(cfg.Cache.TTL, cache.WithRecorder(rec))
	gate := ratelimit.NewGate("github",
		ratelimit.WithReserve(cfg.GitHub.RateLimitReserve),
		ratelimit.WithMinInterval(cfg.GitHub.MinInterval),
		ratelimit.WithRecorder(rec),
	)

	ghOpts := []github.Option{
		github.WithToken(token),
		github.WithGate(gate),
		github.WithRawCache(c.Raw),
		github.WithRecorder(rec),
		github.WithTimeout(cfg.GitHub.Timeout),
		github.WithMaxRetries(cfg.GitHub.MaxRetries),
	}
	if cfg.GitHub.APIURL != "" {
		ghOpts = append(ghOpts, github.WithAPIURL(cfg.GitHub.APIURL))
	}
	if cfg.GitHub.UserAgent != "" {
		ghOpts = append(ghOpts, github.WithUserAgent(cfg.GitHub.UserAgent))
	}
	gh := github.New(logger.Component(log, "github"), ghOpts...)

	analyzer := profile.NewAnalyzer(gh, generator, c.Profiles, log,
		profile.WithRecorder(rec),
		profile.WithMaxLogLength(cfg.AI.MaxLogLength),
	)
	matcher := matching.New(generator, log,
		matching.WithRecorder(rec),
		matching.WithEnforcedBands(cfg.AI.EnforceRecommendationBands),
		matching.WithMaxLogLength(cfg.AI.MaxLogLength),
	)

	return &Service{
		logger:   log,
		cache:    c,
		gate:     gate,
		github:   gh,
		analyzer: analyzer,
		matcher:  matcher,
		comparator: compare.New(analyzer, matcher, log,
			compare.WithPacer(ratelimit.NewPacer(cfg.Compare.Delay)),
			compare.WithRecorder(rec),
		),
		searcher: search.New(gh, log,
			search.WithConcurrency(cfg.Search.EnrichConcurrency),
			search.WithDefaultPerPage(cfg.Search.PerPage),
		),
		dna: dna.NewAnalyzer(gh, gh, generator, c.DNA, log,
			dna.WithRecorder(rec),
			dna.WithMaxLogLength(cfg.AI.MaxLogLength),
		),
		interview: interview.New(generator, log,
			interview.WithRecorder(rec),
			interview.WithMaxLogLength(cfg.AI.MaxLogLength),
		),
		repo:     repo,
		progress: o.progress,
	}, nil
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.GitHub.Timeout <= 0 {
		cfg.GitHub.Timeout = def.GitHub.Timeout
	}
	if cfg.GitHub.MaxRetries < 0 {
		cfg.GitHub.MaxRetries = 0
	}
	if cfg.GitHub.RateLimitReserve < 0 {
		cfg.GitHub.RateLimitReserve = 0
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = def.Cache.TTL
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = def.AI.MaxTokens
	}
	if cfg.AI.MaxRetries < 0 {
		cfg.AI.MaxRetries = 0
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = def.AI.Timeout
	}
	if cfg.AI.MaxLogLength <= 0 {
		cfg.AI.MaxLogLength = def.AI.MaxLogLength
	}
	if cfg.Compare.Delay < 0 {
		cfg.Compare.Delay = 0
	}
	if cfg.Search.PerPage <= 0 {
		cfg.Search.PerPage = def.Search.PerPage
	}
	if cfg.Search.EnrichConcurrency <= 0 {
		cfg.Search.EnrichConcurrency = def.Search.EnrichConcurrency
	}
	return cfg
}

func (s *Service) AnalyzeProfile(ctx context.Context, username string) (*model.Profile, error) {
	return s.analyzer.Analyze(ctx, username)
}

func (s *Service) MatchJob(ctx context.Context, p *model.Profile, job string) (*model.MatchVerdict, error) {
	return s.matcher.Match(ctx, p, job)
}

func (s *Service) BatchCompare(ctx context.Context, usernames []string, job string) (*compare.Result, error) {
	return s.comparator.CompareAll(ctx, usernames, job, s.progress)
}

func (s *Service) SearchCandidates(ctx context.Context, criteria model.SearchCriteria) (*search.Result, error) {
	return s.searcher.Search(ctx, criteria)
}

func (s *Service) CodeDNA(ctx context.Context, username string) (*model.CodeDNA, error) {
	return s.dna.Analyze(ctx, username)
}

// InterviewQuestions analyzes the candidate and, when a job is given, targets the skills the
// match reports as missing.
func (s *Service) InterviewQuestions(ctx context.Context, username, job string) (*model.InterviewSet, error) {
	p, err := s.analyzer.Analyze(ctx, username)
	if err != nil {
		return nil, err
	}

	var gaps []string
	if strings.TrimSpace(job) != "" {
		verdict, err := s.matcher.Match(ctx, p, job)
		switch {
		case err == nil && verdict.AnalysisSource == model.SourceAI:
			gaps = verdict.MissingSkills
		case errors.Is(err, apperr.ErrRateLimited):
			return nil, err
		case err != nil:
			logger.WithUsername(s.logger, p.Username).Warn("skipping skill gaps for questions", zap.Error(err))
		}
	}

	return s.interview.Generate(ctx, p, job, gaps)
}

func (s *Service) CacheStatus() cache.Status {
	return s.cache.Status()
}

// ClearCache drops every entry for username, or the whole cache when username is blank.
func (s *Service) ClearCache(username string) {
	s.cache.Invalidate(username)
	if strings.TrimSpace(username) == "" {
		s.logger.Info("cache cleared")
		return
	}
	logger.WithUsername(s.logger, username).Info("cache entry invalidated")
}

func (s *Service) RateLimitStatus() ratelimit.State {
	return s.gate.Snapshot()
}

func (s *Service) SaveAnalysis(ctx context.Context, analysis model.SavedAnalysis) (model.SavedAnalysis, error) {
	return s.repo.Save(ctx, analysis)
}

func (s *Service) ListAnalyses(ctx context.Context) ([]model.SavedAnalysis, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetAnalysis(ctx context.Context, id int64) (model.SavedAnalysis, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) DeleteAnalysis(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
