package profile

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/cache"
	"github.com/spigell/devscout/internal/model"
)

type stubFetcher struct {
	calls atomic.Int32
	delay time.Duration
	raw   *model.RawData
	err   error
}

func (s *stubFetcher) FetchProfile(_ context.Context, login string) (*model.RawData, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	raw := *s.raw
	raw.User.Login = login
	return &raw, nil
}

type stubGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	requests []ai.Request
}

func (s *stubGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.response, s.err
}

func (s *stubGenerator) Provider() string { return "stub" }
func (s *stubGenerator) Model() string    { return "stub-model" }

func sampleRaw() *model.RawData {
	return &model.RawData{
		User: model.User{Name: "The Octocat", PublicRepos: 8, Followers: 100, Location: "SF"},
		Repos: []model.Repo{
			{Name: "alpha", Language: "Go", Size: 300},
			{Name: "beta", Language: "TypeScript", Size: 100},
			{Name: "gamma", Language: "Go", Size: 50},
			{Name: "delta"},
		},
	}
}

func newAnalyzer(f Fetcher, g ai.Generator) *Analyzer {
	return NewAnalyzer(f, g, cache.NewStore[*model.Profile]("profile", time.Hour), zap.NewNop())
}

func TestAnalyzeUsesModelOutput(t *testing.T) {
	gen := &stubGenerator{response: "Here is the analysis:\n```json\n" + `{
		"skills": ["Go", "TypeScript", "go", "Kubernetes"],
		"proficiency_levels": {"Go": "Advanced", "TypeScript": "novice", "Kubernetes": "???"},
		"strengths": ["Backend APIs"],
		"experience_summary": "  Seasoned Go developer.  ",
		"notable_projects": ["alpha"]
	}` + "\n```"}

	p, err := newAnalyzer(&stubFetcher{raw: sampleRaw()}, gen).Analyze(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.AnalysisSource != model.SourceAI || p.FallbackReason != "" {
		t.Fatalf("expected ai source, got %s (%s)", p.AnalysisSource, p.FallbackReason)
	}
	if !reflect.DeepEqual(p.Skills, []string{"Go", "TypeScript", "Kubernetes"}) {
		t.Fatalf("unexpected skills %v", p.Skills)
	}
	expectLevels := map[string]string{"Go": "expert", "TypeScript": "beginner", "Kubernetes": "intermediate"}
	if !reflect.DeepEqual(p.ProficiencyLevels, expectLevels) {
		t.Fatalf("unexpected levels %v", p.ProficiencyLevels)
	}
	if p.ExperienceSummary != "Seasoned Go developer." || p.Name != "The Octocat" || p.Location != "SF" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if len(p.Languages) != 2 || p.Languages[0].Name != "Go" {
		t.Fatalf("unexpected languages %+v", p.Languages)
	}

	req := gen.requests[0]
	if req.Task != "skills" || req.System == "" || req.Prompt == "" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestAnalyzeNeverFailsOnModelProblems(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "empty", response: ""},
		{name: "prose", response: "I am unable to analyze this profile."},
		{name: "truncated", response: `{"skills": ["Go", "Ty`},
		{name: "wrong types", response: `{"skills": {"Go": 1}}`},
		{name: "provider error", err: apperr.Transient("claude", errors.New("overloaded"))},
		{name: "provider rate limit", err: &apperr.RateLimitError{Source: "claude"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{response: tt.response, err: tt.err}
			p, err := newAnalyzer(&stubFetcher{raw: sampleRaw()}, gen).Analyze(context.Background(), "octocat")
			if err != nil {
				t.Fatalf("analysis must not fail: %v", err)
			}
			assertFallback(t, p)
		})
	}
}

func TestAnalyzeWithoutGenerator(t *testing.T) {
	p, err := newAnalyzer(&stubFetcher{raw: sampleRaw()}, nil).Analyze(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertFallback(t, p)
	if p.FallbackReason != "ai disabled" {
		t.Fatalf("unexpected reason %q", p.FallbackReason)
	}
}

func assertFallback(t *testing.T, p *model.Profile) {
	t.Helper()

	if p.AnalysisSource != model.SourceFallback || p.FallbackReason == "" {
		t.Fatalf("expected fallback source with reason, got %s %q", p.AnalysisSource, p.FallbackReason)
	}
	if !reflect.DeepEqual(p.Skills, []string{"Go", "TypeScript"}) {
		t.Fatalf("unexpected fallback skills %v", p.Skills)
	}
	if p.ProficiencyLevels["Go"] != "intermediate" || p.ProficiencyLevels["TypeScript"] != "intermediate" {
		t.Fatalf("unexpected fallback levels %v", p.ProficiencyLevels)
	}
	if !reflect.DeepEqual(p.Strengths, []string{"Active GitHub contributor"}) {
		t.Fatalf("unexpected fallback strengths %v", p.Strengths)
	}
	if p.ExperienceSummary != "Developer with 8 repositories and expertise in Go." {
		t.Fatalf("unexpected fallback summary %q", p.ExperienceSummary)
	}
	if !reflect.DeepEqual(p.NotableProjects, []string{"alpha", "beta", "gamma"}) {
		t.Fatalf("unexpected fallback projects %v", p.NotableProjects)
	}
}

func TestFallbackWithoutLanguages(t *testing.T) {
	raw := &model.RawData{User: model.User{Login: "empty", PublicRepos: 0}}
	p := base(raw, nil)
	applyFallback(p, raw, nil, "ai disabled")

	if p.ExperienceSummary != "Developer with 0 repositories and expertise in software development." {
		t.Fatalf("unexpected summary %q", p.ExperienceSummary)
	}
	if p.Skills == nil || p.NotableProjects == nil || p.Languages == nil {
		t.Fatalf("collections must be non-nil: %+v", p)
	}
}

func TestAnalyzeCachesWithinTTL(t *testing.T) {
	fetcher := &stubFetcher{raw: sampleRaw()}
	gen := &stubGenerator{response: `{"skills": ["Go"]}`}
	store := cache.NewStore[*model.Profile]("profile", time.Hour)
	a := NewAnalyzer(fetcher, gen, store, zap.NewNop())

	first, err := a.Analyze(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Analyze(context.Background(), "OctoCat ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fetcher.calls.Load() != 1 || first != second {
		t.Fatalf("expected a single fetch, got %d", fetcher.calls.Load())
	}

	store.Delete("octocat")
	if _, err := a.Analyze(context.Background(), "octocat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls.Load() != 2 {
		t.Fatalf("expected a fresh fetch after invalidation, got %d", fetcher.calls.Load())
	}
}

func TestAnalyzeCollapsesConcurrentCalls(t *testing.T) {
	fetcher := &stubFetcher{raw: sampleRaw(), delay: 50 * time.Millisecond}
	a := newAnalyzer(fetcher, &stubGenerator{response: `{"skills": ["Go"]}`})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Analyze(context.Background(), "octocat"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if fetcher.calls.Load() != 1 {
		t.Fatalf("expected concurrent analyses to share one fetch, got %d", fetcher.calls.Load())
	}
}

type gatedFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedFetcher) FetchProfile(ctx context.Context, login string) (*model.RawData, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
	}
	raw := sampleRaw()
	raw.User.Login = login
	return raw, nil
}

func TestAnalyzeSurvivesFirstCallerCancel(t *testing.T) {
	fetcher := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
	a := newAnalyzer(fetcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := a.Analyze(ctx, "octocat")
		first <- err
	}()
	<-fetcher.started

	second := make(chan error, 1)
	go func() {
		_, err := a.Analyze(context.Background(), "octocat")
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the canceled caller to see context.Canceled, got %v", err)
	}

	close(fetcher.release)
	if err := <-second; err != nil {
		t.Fatalf("joined caller must not inherit the cancellation: %v", err)
	}
	if fetcher.calls.Load() != 1 {
		t.Fatalf("expected one shared fetch, got %d", fetcher.calls.Load())
	}
}

func TestAnalyzePropagatesFetchErrors(t *testing.T) {
	fetcher := &stubFetcher{err: apperr.NotFound("github users/ghost")}
	store := cache.NewStore[*model.Profile]("profile", time.Hour)
	a := NewAnalyzer(fetcher, &stubGenerator{}, store, zap.NewNop())

	_, err := a.Analyze(context.Background(), "ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("failures must not be cached")
	}

	if _, err := a.Analyze(context.Background(), "   "); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank username, got %v", err)
	}
}

func TestAnalyzeLogsFallback(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	a := NewAnalyzer(&stubFetcher{raw: sampleRaw()}, &stubGenerator{response: "nope"}, nil, zap.New(core))

	if _, err := a.Analyze(context.Background(), "octocat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := observed.FilterMessage("using fallback profile").All()
	if len(entries) != 1 {
		t.Fatalf("expected fallback log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["username"] != "octocat" {
		t.Fatalf("expected username field, got %v", entries[0].ContextMap())
	}
}

func TestNormalizeLevel(t *testing.T) {
	t.Parallel()

	for in, expect := range map[string]string{"Expert": "expert", " advanced ": "expert", "Basic": "beginner", "intermediate": "intermediate", "": "intermediate", "guru": "intermediate"} {
		if got := NormalizeLevel(in); got != expect {
			t.Fatalf("%q: expected %s, got %s", in, expect, got)
		}
	}
}
