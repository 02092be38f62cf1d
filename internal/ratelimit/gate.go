// Package ratelimit tracks the GitHub quota and refuses calls that would exhaust it.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/spigell/devscout/internal/apperr"
)

const (
	// DefaultReserve is the number of requests kept back from the measured quota.
	DefaultReserve = 2

	headerRemaining = "X-Ratelimit-Remaining"
	headerReset     = "X-Ratelimit-Reset"
	headerLimit     = "X-Ratelimit-Limit"
)

// QuotaRecorder receives quota observations.
type QuotaRecorder interface {
	QuotaRemaining(remaining int)
}

// State is a point-in-time view of the gate.
type State struct {
	Known     bool      `json:"known"`
	Limit     int       `json:"limit,omitempty"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt,omitempty"`
	Reserve   int       `json:"reserve"`
	Open      bool      `json:"open"`
}

// Gate is the process-wide circuit breaker in front of GitHub.
type Gate struct {
	source  string
	reserve int
	now     func() time.Time
	spacing *rate.Limiter
	rec     QuotaRecorder

	mu        sync.Mutex
	known     bool
	limit     int
	remaining int
	resetAt   time.Time
}

type GateOption func(*Gate)

// WithReserve sets how many requests stay unused before the gate opens.
func WithReserve(n int) GateOption {
	return func(g *Gate) {
		if n >= 0 {
			g.reserve = n
		}
	}
}

// WithMinInterval spaces consecutive acquisitions by at least d.
func WithMinInterval(d time.Duration) GateOption {
	return func(g *Gate) {
		if d > 0 {
			g.spacing = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

func WithRecorder(rec QuotaRecorder) GateOption {
	return func(g *Gate) {
		g.rec = rec
	}
}

func NewGate(source string, opts ...GateOption) *Gate {
	g := &Gate{
		source:  source,
		reserve: DefaultReserve,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Acquire takes one permit. It fails fast with a rate-limit error while the known quota is at
// or below the reserve and the reset time has not passed.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	now := g.now()
	if g.known && !g.resetAt.IsZero() && !now.Before(g.resetAt) {
		// window rolled over; the next response will tell the real number
		g.known = false
	}
	if g.open(now) {
		wait := g.resetAt.Sub(now)
		g.mu.Unlock()
		return &apperr.RateLimitError{Source: g.source, RetryAfter: wait, Local: true}
	}
	if g.known {
		g.remaining--
	}
	g.mu.Unlock()

	if g.spacing != nil {
		return g.spacing.Wait(ctx)
	}
	return nil
}

// Observe overwrites the bookkeeping from GitHub rate-limit headers. Responses without them are ignored.
func (g *Gate) Observe(h http.Header) {
	remaining, ok := headerInt(h, headerRemaining)
	if !ok {
		return
	}

	g.mu.Lock()
	g.known = true
	g.remaining = remaining
	if reset, ok := headerInt(h, headerReset); ok {
		g.resetAt = time.Unix(int64(reset), 0)
	}
	if limit, ok := headerInt(h, headerLimit); ok {
		g.limit = limit
	}
	g.mu.Unlock()

	if g.rec != nil {
		g.rec.QuotaRemaining(remaining)
	}
}

// Update sets the bookkeeping directly.
func (g *Gate) Update(remaining int, resetAt time.Time) {
	g.mu.Lock()
	g.known = true
	g.remaining = remaining
	g.resetAt = resetAt
	g.mu.Unlock()

	if g.rec != nil {
		g.rec.QuotaRemaining(remaining)
	}
}

func (g *Gate) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	return State{
		Known:     g.known,
		Limit:     g.limit,
		Remaining: g.remaining,
		ResetAt:   g.resetAt,
		Reserve:   g.reserve,
		Open:      g.open(now),
	}
}

// open reports whether calls must be refused. Without a reset time the gate never opens:
// nothing could close it again. Callers hold g.mu.
func (g *Gate) open(now time.Time) bool {
	return g.known && g.remaining <= g.reserve && !g.resetAt.IsZero() && now.Before(g.resetAt)
}

func headerInt(h http.Header, key string) (int, bool) {
	raw := strings.TrimSpace(h.Get(key))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
