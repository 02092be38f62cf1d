package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/spigell/devscout/internal/apperr"
)

type quotaSpy struct{ last int }

func (q *quotaSpy) QuotaRemaining(n int) { q.last = n }

func headers(remaining int, reset time.Time) http.Header {
	h := http.Header{}
	h.Set("x-ratelimit-remaining", strconv.Itoa(remaining))
	h.Set("x-ratelimit-reset", strconv.FormatInt(reset.Unix(), 10))
	h.Set("x-ratelimit-limit", "60")
	return h
}

func TestGateOpensAtReserve(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	spy := &quotaSpy{}
	g := NewGate("github", WithClock(func() time.Time { return now }), WithRecorder(spy))

	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("unknown quota must not block: %v", err)
	}

	g.Observe(headers(3, now.Add(10*time.Minute)))
	if spy.last != 3 {
		t.Fatalf("expected recorder to see 3, got %d", spy.last)
	}

	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("expected permit while above reserve: %v", err)
	}

	err := g.Acquire(context.Background())
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}

	var rle *apperr.RateLimitError
	if !errors.As(err, &rle) || !rle.Local || rle.RetryAfter != 10*time.Minute {
		t.Fatalf("unexpected rate limit details: %+v", rle)
	}

	if state := g.Snapshot(); !state.Open || state.Remaining != 2 || state.Limit != 60 {
		t.Fatalf("unexpected snapshot: %+v", state)
	}
}

func TestGateClosesAfterReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := NewGate("github", WithReserve(0), WithClock(func() time.Time { return now }))

	g.Update(0, now.Add(time.Minute))
	if err := g.Acquire(context.Background()); err == nil {
		t.Fatalf("expected gate to be open")
	}

	now = now.Add(time.Minute)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("expected gate to close after reset: %v", err)
	}
}

func TestGateWithoutResetHeaderStaysClosed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := NewGate("github", WithClock(func() time.Time { return now }))

	h := http.Header{}
	h.Set("x-ratelimit-remaining", "1")
	g.Observe(h)

	for _, step := range []time.Duration{0, 2 * time.Hour} {
		now = now.Add(step)
		if err := g.Acquire(context.Background()); err != nil {
			t.Fatalf("after %s: expected call to pass without a reset time, got %v", step, err)
		}
		if state := g.Snapshot(); !state.Known || state.Open {
			t.Fatalf("after %s: unexpected state %+v", step, state)
		}
	}
}

func TestGateIgnoresHeadersWithoutQuota(t *testing.T) {
	g := NewGate("github")
	g.Observe(http.Header{"X-Ratelimit-Remaining": []string{"n/a"}})

	if g.Snapshot().Known {
		t.Fatalf("expected quota to stay unknown")
	}
}

func TestGateHonorsCanceledContext(t *testing.T) {
	g := NewGate("github")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPacerSpacesCalls(t *testing.T) {
	p := NewPacer(30 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("expected calls to be spaced, elapsed %s", elapsed)
	}

	var disabled *Pacer
	if err := disabled.Wait(context.Background()); err != nil {
		t.Fatalf("nil pacer must not block: %v", err)
	}
}
