// Package github is a small client for the GitHub REST endpoints devscout reads from.
package github

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/cache"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/utils"
)

const (
	apiURL    = "https://api.github.com"
	userAgent = "spigell/devscout"
	accept    = "application/vnd.github+json"

	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 2
	backoffBase       = 500 * time.Millisecond
	backoffLimit      = 8 * time.Second

	// Repositories per profile fetch, sorted by last update.
	reposPerPage = 30
	// Commits sampled per repository.
	CommitsPerPage = 10
	// Search page size bounds.
	DefaultSearchPerPage = 30
	MaxSearchPerPage     = 100
)

var wait = utils.WaitFor

// Gate is consulted before every request and fed every response.
type Gate interface {
	Acquire(ctx context.Context) error
	Observe(h http.Header)
}

// Recorder receives per-request metrics.
type Recorder interface {
	UpstreamRequest(endpoint string, status int, elapsed time.Duration)
}

type Client struct {
	token      string
	logger     *zap.Logger
	gate       Gate
	raw        *cache.Store[*model.RawData]
	rec        Recorder
	maxRetries int

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithGate(g Gate) Option {
	return func(c *Client) { c.gate = g }
}

// WithRawCache makes FetchProfile and LookupUser consult store before the network.
func WithRawCache(store *cache.Store[*model.RawData]) Option {
	return func(c *Client) { c.raw = store }
}

func WithRecorder(rec Recorder) Option {
	return func(c *Client) { c.rec = rec }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// WithMaxRetries bounds retries of transient failures. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithAPIURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.APIURL = url
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.UserAgent = ua
		}
	}
}

func New(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		logger:     logger,
		maxRetries: defaultMaxRetries,
		APIURL:     apiURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rec == nil {
		c.rec = nopRecorder{}
	}
	return c
}

type nopRecorder struct{}

func (nopRecorder) UpstreamRequest(string, int, time.Duration) {}

// FetchProfile returns the user record and the 30 most recently updated repositories.
// A raw-cache hit bypasses the network and the quota entirely.
func (c *Client) FetchProfile(ctx context.Context, login string) (*model.RawData, error) {
	if raw, ok := c.cached(login); ok {
		c.logger.Debug("raw data served from cache", zap.String("username", login))
		return raw, nil
	}

	user, err := c.GetUser(ctx, login)
	if err != nil {
		return nil, err
	}

	repos, err := c.GetRepos(ctx, login)
	if err != nil {
		return nil, err
	}

	raw := &model.RawData{User: *user, Repos: repos}
	if c.raw != nil {
		c.raw.Set(login, raw)
	}

	return raw, nil
}

// LookupUser returns the user record, from the raw cache when it is warm.
func (c *Client) LookupUser(ctx context.Context, login string) (*model.User, error) {
	if raw, ok := c.cached(login); ok {
		user := raw.User
		return &user, nil
	}
	return c.GetUser(ctx, login)
}

func (c *Client) cached(login string) (*model.RawData, bool) {
	if c.raw == nil {
		return nil, false
	}
	return c.raw.Get(login)
}
