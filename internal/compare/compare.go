// Package compare ranks a batch of candidates against one job description.
package compare

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/utils"
)

// MaxCandidates bounds a single batch.
const MaxCandidates = 20

const (
	reasonRateLimited = "skipped: rate limit reached earlier in batch"
	reasonCanceled    = "skipped: batch canceled"
)

// Progress stages reported to the callback.
const (
	StageAnalyzing = "analyzing"
	StageMatching  = "matching"
	StageComplete  = "complete"
	StageError     = "error"
	StageSkipped   = "skipped"
)

type Analyzer interface {
	Analyze(ctx context.Context, login string) (*model.Profile, error)
}

type Matcher interface {
	Match(ctx context.Context, profile *model.Profile, job string) (*model.MatchVerdict, error)
}

// Pacer spaces the candidates of a batch.
type Pacer interface {
	Wait(ctx context.Context) error
}

type Recorder interface {
	BatchCandidate(result string)
}

// ProgressFunc receives the stage of each candidate as the batch advances.
type ProgressFunc func(username, stage string)

type Result struct {
	Candidates    []model.CandidateRanking `json:"candidates"`
	Errors        []model.CandidateError   `json:"errors"`
	TotalAnalyzed int                      `json:"totalAnalyzed"`
	TotalFailed   int                      `json:"totalFailed"`
}

type Comparator struct {
	analyzer Analyzer
	matcher  Matcher
	pacer    Pacer
	rec      Recorder
	logger   *zap.Logger
}

type Option func(*Comparator)

func WithPacer(p Pacer) Option {
	return func(c *Comparator) { c.pacer = p }
}

func WithRecorder(rec Recorder) Option {
	return func(c *Comparator) { c.rec = rec }
}

func New(analyzer Analyzer, matcher Matcher, log *zap.Logger, opts ...Option) *Comparator {
	c := &Comparator{
		analyzer: analyzer,
		matcher:  matcher,
		logger:   logger.Component(log, "compare"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompareAll analyzes and matches every candidate in order. Failures stay local to their
// candidate, except a rate limit: once hit, the rest of the batch is skipped without upstream calls.
func (c *Comparator) CompareAll(ctx context.Context, usernames []string, job string, progress ProgressFunc) (*Result, error) {
	if len(usernames) > MaxCandidates {
		return nil, apperr.InvalidInput("at most %d usernames are allowed, got %d", MaxCandidates, len(usernames))
	}
	ids := utils.Dedupe(usernames)
	if len(ids) == 0 {
		return nil, apperr.InvalidInput("at least one username is required")
	}
	if strings.TrimSpace(job) == "" {
		return nil, apperr.InvalidInput("job description is required")
	}
	if progress == nil {
		progress = func(string, string) {}
	}

	res := &Result{
		Candidates: make([]model.CandidateRanking, 0, len(ids)),
		Errors:     []model.CandidateError{},
	}

	skipReason := ""
	for _, id := range ids {
		if skipReason == "" && ctx.Err() != nil {
			skipReason = reasonCanceled
		}
		if skipReason != "" {
			res.Errors = append(res.Errors, model.CandidateError{Username: id, Reason: skipReason, Skipped: true})
			progress(id, StageSkipped)
			c.record(StageSkipped)
			continue
		}

		ranking, err := c.compareOne(ctx, id, job, progress)
		if err != nil {
			log := logger.WithUsername(c.logger, id)
			switch {
			case errors.Is(err, apperr.ErrRateLimited):
				log.Warn("rate limit reached, skipping the rest of the batch", zap.Error(err))
				skipReason = reasonRateLimited
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				skipReason = reasonCanceled
			default:
				log.Warn("candidate failed", zap.Error(err))
			}

			res.Errors = append(res.Errors, model.CandidateError{Username: id, Reason: err.Error()})
			progress(id, StageError)
			c.record(StageError)
			continue
		}

		res.Candidates = append(res.Candidates, *ranking)
		progress(id, StageComplete)
		c.record(StageComplete)
	}

	Rank(res.Candidates)
	res.TotalAnalyzed = len(res.Candidates)
	res.TotalFailed = len(res.Errors)

	c.logger.Info("batch compared",
		zap.Int("requested", len(ids)),
		zap.Int("analyzed", res.TotalAnalyzed),
		zap.Int("failed", res.TotalFailed),
	)

	return res, nil
}

func (c *Comparator) compareOne(ctx context.Context, id, job string, progress ProgressFunc) (*model.CandidateRanking, error) {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	progress(id, StageAnalyzing)
	profile, err := c.analyzer.Analyze(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	progress(id, StageMatching)
	verdict, err := c.matcher.Match(ctx, profile, job)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	return &model.CandidateRanking{MatchVerdict: *verdict, Profile: profile}, nil
}

// Rank orders rankings by descending score, keeping input order on ties, and numbers them from 1.
func Rank(rankings []model.CandidateRanking) {
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].MatchScore > rankings[j].MatchScore
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
}

func (c *Comparator) record(result string) {
	if c.rec != nil {
		c.rec.BatchCandidate(result)
	}
}
