// Package search finds developer candidates through the GitHub user search.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/github"
	"github.com/spigell/devscout/internal/logger"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/utils"
)

const DefaultConcurrency = 4

// Client is the subset of the GitHub client used by the search.
type Client interface {
	SearchUsers(ctx context.Context, query string, perPage int) (*github.SearchResult, error)
	LookupUser(ctx context.Context, login string) (*model.User, error)
}

type Result struct {
	Candidates     []model.Candidate `json:"candidates"`
	Total          int               `json:"total"`
	TotalAvailable int               `json:"totalAvailable"`
}

type Searcher struct {
	client         Client
	logger         *zap.Logger
	concurrency    int
	defaultPerPage int
}

type Option func(*Searcher)

// WithConcurrency bounds the number of parallel user lookups.
func WithConcurrency(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithDefaultPerPage(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.defaultPerPage = n
		}
	}
}

func New(client Client, log *zap.Logger, opts ...Option) *Searcher {
	s := &Searcher{
		client:         client,
		logger:         logger.Component(log, "search"),
		concurrency:    DefaultConcurrency,
		defaultPerPage: github.DefaultSearchPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the query built from criteria and enriches every hit with its user record.
// A failed lookup leaves a partial candidate in place.
func (s *Searcher) Search(ctx context.Context, criteria model.SearchCriteria) (*Result, error) {
	criteria.Skills = utils.Dedupe(criteria.Skills)
	if len(criteria.Skills) == 0 {
		return nil, apperr.InvalidInput("at least one skill is required")
	}
	if criteria.PerPage <= 0 {
		criteria.PerPage = s.defaultPerPage
	}

	query := github.BuildQuery(criteria)
	s.logger.Debug("searching users", zap.String("query", query), zap.Int("per_page", criteria.PerPage))

	page, err := s.client.SearchUsers(ctx, query, criteria.PerPage)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.Candidate, len(page.Hits))
	for i, hit := range page.Hits {
		candidates[i] = model.Candidate{Username: hit.Login, Avatar: hit.AvatarURL}
	}

	// Lookup errors are kept per candidate so the group never cancels its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range candidates {
		c := &candidates[i]
		g.Go(func() error {
			user, err := s.client.LookupUser(gctx, c.Username)
			if err != nil {
				logger.WithUsername(s.logger, c.Username).Warn("failed to enrich candidate", zap.Error(err))
				return nil
			}
			enrich(c, user)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich candidates: %w", err)
	}

	return &Result{
		Candidates:     candidates,
		Total:          len(candidates),
		TotalAvailable: page.Total,
	}, nil
}

func enrich(c *model.Candidate, u *model.User) {
	c.Name = u.DisplayName()
	c.Bio = u.Bio
	c.Location = u.Location
	c.Repos = u.PublicRepos
	c.Followers = u.Followers
	if u.AvatarURL != "" {
		c.Avatar = u.AvatarURL
	}
	c.Enriched = true
}
