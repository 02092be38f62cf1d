package dna

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/devscout/internal/extract"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/prompts"
	"github.com/spigell/devscout/internal/utils"
)

// Trait vocabulary. Model answers outside of it are replaced by the local estimate.
var (
	commitStyles        = []string{"Atomic", "Feature-based", "Mixed"}
	communicationStyles = []string{"Concise", "Detailed", "Visual"}
	documentationHabits = []string{"Extensive", "Moderate", "Minimal"}
	roles               = []string{"Mentor", "Contributor", "Solo Builder", "Architect"}
	reviewActivities    = []string{"Active Reviewer", "Occasional", "Rare"}
	codeStructures      = []string{"Functional", "OOP", "Hybrid"}
	testingApproaches   = []string{"TDD Advocate", "Pragmatic", "Minimal"}
	architectures       = []string{"Microservices", "Monolithic", "Modular"}
	complexityTrends    = []string{"Increasing", "Stable", "Exploring"}
)

const (
	conciseMessageLength = 60
	atomicSubjectLength  = 50
	progressionLanguages = 3
	defaultGrowthArea    = "General software development"
)

var (
	functionalLanguages = map[string]bool{
		"Haskell": true, "Elixir": true, "Erlang": true, "Clojure": true, "Scala": true,
		"OCaml": true, "F#": true, "Elm": true, "Lisp": true, "Racket": true,
	}
	objectLanguages = map[string]bool{
		"Java": true, "C#": true, "Kotlin": true, "Ruby": true, "C++": true, "Swift": true,
		"PHP": true, "Objective-C": true, "Dart": true,
	}
)

type repoStats struct {
	own          int
	forked       int
	described    int
	stars        int
	forks        int
	topics       map[string]bool
	languageSeen map[string]bool
}

func collect(repos []model.Repo) repoStats {
	s := repoStats{topics: map[string]bool{}, languageSeen: map[string]bool{}}
	for _, r := range repos {
		if r.Fork {
			s.forked++
			continue
		}
		s.own++
		if strings.TrimSpace(r.Description) != "" {
			s.described++
		}
		s.stars += r.Stars
		s.forks += r.Forks
		for _, t := range r.Topics {
			s.topics[strings.ToLower(t)] = true
		}
		if r.Language != "" {
			s.languageSeen[r.Language] = true
		}
	}
	return s
}

func (s repoStats) coverage() float64 {
	if s.own == 0 {
		return 0
	}
	return float64(s.described) / float64(s.own)
}

// Heuristics estimates the code DNA from local data only.
func Heuristics(raw *model.RawData, langs []model.Language, commits []model.Commit) *model.CodeDNA {
	stats := collect(raw.Repos)
	progression := languageProgression(raw.Repos)

	top := ""
	if len(langs) > 0 {
		top = langs[0].Name
	}

	growth := defaultGrowthArea
	if top != "" {
		growth = top
	}

	return &model.CodeDNA{
		Username: raw.User.Login,
		Personality: model.Personality{
			CommitStyle:         commitStyle(commits),
			CommunicationStyle:  communicationStyle(commits),
			DocumentationHabits: documentation(stats.coverage()),
		},
		Collaboration: model.Collaboration{
			Role:           role(raw.User.Followers, stats.forks),
			ReviewActivity: reviewActivity(stats.forked),
			PRQuality:      prQuality(stats),
		},
		TechnicalDNA: model.TechnicalDNA{
			CodeStructure:          codeStructure(top),
			TestingApproach:        testingApproach(stats),
			ArchitecturePreference: architecture(stats),
		},
		Evolution: model.Evolution{
			LanguageProgression: progression,
			ComplexityTrend:     complexityTrend(progression),
			PrimaryGrowthArea:   growth,
		},
		UniqueMarkers: markers(raw.User, stats),
	}
}

func subject(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(line)
}

func commitStyle(commits []model.Commit) string {
	if len(commits) == 0 {
		return "Mixed"
	}

	multiline, subjects := 0, 0
	for _, c := range commits {
		msg := strings.TrimSpace(c.Message)
		if strings.Contains(msg, "\n") {
			multiline++
		}
		subjects += len(subject(msg))
	}

	switch {
	case multiline*2 >= len(commits):
		return "Feature-based"
	case subjects/len(commits) <= atomicSubjectLength:
		return "Atomic"
	default:
		return "Mixed"
	}
}

func communicationStyle(commits []model.Commit) string {
	if len(commits) == 0 {
		return "Concise"
	}
	total := 0
	for _, c := range commits {
		total += len(strings.TrimSpace(c.Message))
	}
	if total/len(commits) < conciseMessageLength {
		return "Concise"
	}
	return "Detailed"
}

func documentation(coverage float64) string {
	switch {
	case coverage >= 0.75:
		return "Extensive"
	case coverage >= 0.4:
		return "Moderate"
	default:
		return "Minimal"
	}
}

func role(followers, forks int) string {
	switch {
	case followers >= 100 || forks >= 50:
		return "Mentor"
	case followers >= 10 || forks >= 5:
		return "Contributor"
	default:
		return "Solo Builder"
	}
}

func reviewActivity(forked int) string {
	switch {
	case forked >= 3:
		return "Active Reviewer"
	case forked >= 1:
		return "Occasional"
	default:
		return "Rare"
	}
}

func prQuality(s repoStats) int {
	score := 40 + int(s.coverage()*40) + s.stars/10
	return extract.ClampInt(score, 0, 100)
}

func codeStructure(language string) string {
	switch {
	case functionalLanguages[language]:
		return "Functional"
	case objectLanguages[language]:
		return "OOP"
	default:
		return "Hybrid"
	}
}

func testingApproach(s repoStats) string {
	switch {
	case s.topics["tdd"] || s.topics["bdd"]:
		return "TDD Advocate"
	case s.own == 0:
		return "Minimal"
	default:
		return "Pragmatic"
	}
}

func architecture(s repoStats) string {
	switch {
	case s.topics["microservices"] || s.topics["microservice"] || s.topics["kubernetes"]:
		return "Microservices"
	case len(s.languageSeen) >= 3:
		return "Modular"
	default:
		return "Monolithic"
	}
}

// languageProgression groups own repositories by creation year, most used languages first.
func languageProgression(repos []model.Repo) []model.YearLanguages {
	type tally struct {
		counts map[string]int
		order  []string
	}
	years := map[int]*tally{}

	for _, r := range repos {
		if r.Fork || r.Language == "" || r.CreatedAt.IsZero() {
			continue
		}
		y := r.CreatedAt.Year()
		t, ok := years[y]
		if !ok {
			t = &tally{counts: map[string]int{}}
			years[y] = t
		}
		if t.counts[r.Language] == 0 {
			t.order = append(t.order, r.Language)
		}
		t.counts[r.Language]++
	}

	out := make([]model.YearLanguages, 0, len(years))
	for y, t := range years {
		langs := append([]string(nil), t.order...)
		sort.SliceStable(langs, func(i, j int) bool {
			return t.counts[langs[i]] > t.counts[langs[j]]
		})
		if len(langs) > progressionLanguages {
			langs = langs[:progressionLanguages]
		}
		out = append(out, model.YearLanguages{Year: y, Languages: langs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func complexityTrend(progression []model.YearLanguages) string {
	if len(progression) < 2 {
		return "Stable"
	}

	seen := map[string]bool{}
	for _, y := range progression[:len(progression)-1] {
		for _, l := range y.Languages {
			seen[l] = true
		}
	}
	latest := progression[len(progression)-1]
	for _, l := range latest.Languages {
		if !seen[l] {
			return "Exploring"
		}
	}

	if len(latest.Languages) > len(progression[0].Languages) {
		return "Increasing"
	}
	return "Stable"
}

func markers(u model.User, s repoStats) []string {
	out := []string{}
	if n := len(s.languageSeen); n >= 4 {
		out = append(out, fmt.Sprintf("Polyglot across %d languages", n))
	}
	if s.stars >= 100 {
		out = append(out, fmt.Sprintf("%d stars across own repositories", s.stars))
	}
	if s.own > 0 && s.coverage() >= 0.75 {
		out = append(out, "Describes nearly every repository")
	}
	if u.Followers >= 100 {
		out = append(out, fmt.Sprintf("Followed by %d developers", u.Followers))
	}
	return out
}

func pick(value string, allowed []string, fallback string) string {
	value = strings.TrimSpace(value)
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return a
		}
	}
	return fallback
}

// merge takes the model's traits where they are in the vocabulary and the local estimate elsewhere.
func merge(out prompts.DNAOutput, local *model.CodeDNA) *model.CodeDNA {
	d := *local

	d.Personality = model.Personality{
		CommitStyle:         pick(out.Personality.CommitStyle, commitStyles, local.Personality.CommitStyle),
		CommunicationStyle:  pick(out.Personality.CommunicationStyle, communicationStyles, local.Personality.CommunicationStyle),
		DocumentationHabits: pick(out.Personality.DocumentationHabits, documentationHabits, local.Personality.DocumentationHabits),
	}
	d.Collaboration = model.Collaboration{
		Role:           pick(out.Collaboration.Role, roles, local.Collaboration.Role),
		ReviewActivity: pick(out.Collaboration.ReviewActivity, reviewActivities, local.Collaboration.ReviewActivity),
		PRQuality:      local.Collaboration.PRQuality,
	}
	if out.Collaboration.PRQuality > 0 {
		d.Collaboration.PRQuality = extract.ClampInt(out.Collaboration.PRQuality, 0, 100)
	}
	d.TechnicalDNA = model.TechnicalDNA{
		CodeStructure:          pick(out.TechnicalDNA.CodeStructure, codeStructures, local.TechnicalDNA.CodeStructure),
		TestingApproach:        pick(out.TechnicalDNA.TestingApproach, testingApproaches, local.TechnicalDNA.TestingApproach),
		ArchitecturePreference: pick(out.TechnicalDNA.ArchitecturePreference, architectures, local.TechnicalDNA.ArchitecturePreference),
	}

	if len(out.Evolution.LanguageProgression) > 0 {
		progression := make([]model.YearLanguages, 0, len(out.Evolution.LanguageProgression))
		for _, y := range out.Evolution.LanguageProgression {
			progression = append(progression, model.YearLanguages{Year: y.Year, Languages: utils.Dedupe(y.Languages)})
		}
		sort.SliceStable(progression, func(i, j int) bool { return progression[i].Year < progression[j].Year })
		d.Evolution.LanguageProgression = progression
	}
	d.Evolution.ComplexityTrend = pick(out.Evolution.ComplexityTrend, complexityTrends, local.Evolution.ComplexityTrend)
	if area := strings.TrimSpace(out.Evolution.PrimaryGrowthArea); area != "" {
		d.Evolution.PrimaryGrowthArea = area
	}

	if markers := utils.Dedupe(out.UniqueMarkers); len(markers) > 0 {
		d.UniqueMarkers = markers
	}

	return &d
}
