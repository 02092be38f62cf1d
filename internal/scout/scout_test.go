package scout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/prompts"
)

type taskGenerator struct {
	mu        sync.Mutex
	responses map[string]string
	tasks     []string
}

func (g *taskGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, req.Task)
	if resp, ok := g.responses[req.Task]; ok {
		return resp, nil
	}
	return "", errors.New("provider unavailable")
}

func (g *taskGenerator) Provider() string { return "stub" }
func (g *taskGenerator) Model() string    { return "stub-model" }

func fakeGitHub(t *testing.T, userCalls *atomic.Int32) string {
	t.Helper()

	reset := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	quota := func(w http.ResponseWriter) {
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4000")
		w.Header().Set("X-RateLimit-Reset", reset)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, _ *http.Request) {
		userCalls.Add(1)
		quota(w)
		w.Write([]byte(`{"login":"octocat","name":"The Octocat","public_repos":2,"followers":12}`))
	})
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, _ *http.Request) {
		quota(w)
		w.Write([]byte(`[
			{"name":"svc","language":"Go","size":100,"pushed_at":"2024-03-01T00:00:00Z"},
			{"name":"ui","language":"TypeScript","size":50,"pushed_at":"2023-03-01T00:00:00Z"}
		]`))
	})
	mux.HandleFunc("/users/ghost", func(w http.ResponseWriter, _ *http.Request) {
		quota(w)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func newTestService(t *testing.T, gen ai.Generator) (*Service, *atomic.Int32) {
	t.Helper()

	calls := &atomic.Int32{}
	cfg := DefaultConfig()
	cfg.GitHub.APIURL = fakeGitHub(t, calls)
	cfg.GitHub.MaxRetries = 0
	cfg.Compare.Delay = 0

	svc, err := New(context.Background(), cfg, nil, zap.NewNop(), nil, WithGenerator(gen))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc, calls
}

func TestAnalyzeProfileCachesUntilCleared(t *testing.T) {
	svc, calls := newTestService(t, nil)
	ctx := context.Background()

	p, err := svc.AnalyzeProfile(ctx, "octocat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.AnalysisSource != model.SourceFallback || p.FallbackReason != "ai disabled" {
		t.Fatalf("expected fallback profile, got %+v", p)
	}
	if len(p.Skills) != 2 || p.Skills[0] != "Go" {
		t.Fatalf("unexpected skills: %v", p.Skills)
	}

	if _, err := svc.AnalyzeProfile(ctx, "OctoCat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream user call, got %d", calls.Load())
	}

	status := svc.CacheStatus()
	if status.RawEntries != 1 || status.ProfileEntries != 1 || status.TTLSeconds != 3600 {
		t.Fatalf("unexpected cache status: %+v", status)
	}

	svc.ClearCache("octocat")
	if _, err := svc.AnalyzeProfile(ctx, "octocat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected a refetch after invalidation, got %d calls", calls.Load())
	}

	svc.ClearCache("")
	if status := svc.CacheStatus(); status.RawEntries != 0 || status.ProfileEntries != 0 {
		t.Fatalf("expected an empty cache, got %+v", status)
	}
}

func TestRateLimitStatusFollowsHeaders(t *testing.T) {
	svc, _ := newTestService(t, nil)

	if state := svc.RateLimitStatus(); state.Known {
		t.Fatalf("expected unknown quota before any call, got %+v", state)
	}

	if _, err := svc.AnalyzeProfile(context.Background(), "octocat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := svc.RateLimitStatus()
	if !state.Known || state.Limit != 5000 || state.Remaining != 4000 || state.Open {
		t.Fatalf("unexpected rate limit state: %+v", state)
	}
}

func TestBatchCompareWithoutAI(t *testing.T) {
	svc, _ := newTestService(t, nil)

	res, err := svc.BatchCompare(context.Background(), []string{"octocat", "ghost"}, "Go backend engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.TotalAnalyzed != 1 || res.TotalFailed != 1 {
		t.Fatalf("unexpected totals: %+v", res)
	}
	ranked := res.Candidates[0]
	if ranked.Rank != 1 || ranked.MatchScore != 50 || ranked.AnalysisSource != model.SourceFallback {
		t.Fatalf("unexpected ranking: %+v", ranked)
	}
	if res.Errors[0].Username != "ghost" || res.Errors[0].Skipped {
		t.Fatalf("unexpected error entry: %+v", res.Errors[0])
	}
}

func TestInterviewQuestionsTargetGaps(t *testing.T) {
	gen := &taskGenerator{responses: map[string]string{
		prompts.TaskMatch: `{"match_score":70,"matching_skills":["Go"],"missing_skills":["Rust"],"strengths_for_role":[],"recommendation":"interview","reasoning":"ok"}`,
	}}
	svc, _ := newTestService(t, gen)

	set, err := svc.InterviewQuestions(context.Background(), "octocat", "Rust and Go engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.AnalysisSource != model.SourceFallback {
		t.Fatalf("expected template questions, got %+v", set)
	}
	expected := []string{"Rust", "Go", "TypeScript"}
	if len(set.Questions) != len(expected) {
		t.Fatalf("unexpected questions: %+v", set.Questions)
	}
	for i, skill := range expected {
		if set.Questions[i].Skill != skill {
			t.Fatalf("question %d: expected skill %q, got %q", i, skill, set.Questions[i].Skill)
		}
	}
}

func TestSavedAnalysesRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	p, err := svc.AnalyzeProfile(ctx, "octocat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := svc.SaveAnalysis(ctx, model.SavedAnalysis{Username: p.Username, Profile: p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, err := svc.ListAnalyses(ctx)
	if err != nil || len(list) != 1 || list[0].ID != saved.ID {
		t.Fatalf("unexpected list: %+v %v", list, err)
	}

	if err := svc.DeleteAnalysis(ctx, saved.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetAnalysis(ctx, saved.ID); err == nil {
		t.Fatalf("expected deleted analysis to be gone")
	}
}

func TestNewRejectsBadProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	tests := []struct {
		name string
		ai   AIConfig
	}{
		{name: "unknown provider", ai: AIConfig{Enabled: true, Provider: "llama", APIKey: "k"}},
		{name: "missing key", ai: AIConfig{Enabled: true, Provider: "claude"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.AI = tt.ai
			if _, err := New(context.Background(), cfg, nil, zap.NewNop(), nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNewWithDisabledAI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.Enabled = false

	svc, err := New(context.Background(), cfg, nil, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AnalyzeProfile(context.Background(), " "); err == nil {
		t.Fatalf("expected blank username to be rejected")
	}
}
