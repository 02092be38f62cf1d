// Package prompts assembles the system and task prompts of every model call.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/spigell/devscout/internal/model"
)

const (
	TaskSkills    = "skills"
	TaskMatch     = "match"
	TaskDNA       = "dna"
	TaskInterview = "interview"

	// Repositories shown to the model.
	topRepos = 10
)

//go:embed templates/*.md
var templates embed.FS

// Prompt is a single-turn request: a system instruction and one user message.
type Prompt struct {
	Task   string
	System string
	User   string
}

var schemas sync.Map

func schemaFor(task string, v any) (string, error) {
	if cached, ok := schemas.Load(task); ok {
		return cached.(string), nil
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	data, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
	if err != nil {
		return "", fmt.Errorf("schema for %s: %w", task, err)
	}

	schemas.Store(task, string(data))
	return string(data), nil
}

func render(task string, output any, payload any, vars map[string]string) (Prompt, error) {
	schema, err := schemaFor(task, output)
	if err != nil {
		return Prompt{}, err
	}
	if vars == nil {
		vars = map[string]string{}
	}
	vars["SCHEMA"] = schema

	system, err := templates.ReadFile("templates/" + task + "_system.md")
	if err != nil {
		return Prompt{}, fmt.Errorf("read %s system template: %w", task, err)
	}
	user, err := templates.ReadFile("templates/" + task + "_user.md")
	if err != nil {
		return Prompt{}, fmt.Errorf("read %s user template: %w", task, err)
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("marshal %s payload: %w", task, err)
	}

	sys := string(system)
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sys = strings.ReplaceAll(sys, "{{"+k+"}}", vars[k])
	}

	return Prompt{
		Task:   task,
		System: strings.TrimSpace(sys),
		User:   strings.TrimSpace(strings.ReplaceAll(string(user), "{{PAYLOAD}}", string(body))),
	}, nil
}

type userSummary struct {
	Login       string `json:"login"`
	Name        string `json:"name,omitempty"`
	Bio         string `json:"bio"`
	Location    string `json:"location,omitempty"`
	PublicRepos int    `json:"publicRepos"`
	Followers   int    `json:"followers"`
}

type repoSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	Language    string `json:"language"`
}

func summarizeUser(u model.User) userSummary {
	bio := u.Bio
	if strings.TrimSpace(bio) == "" {
		bio = "No bio"
	}
	return userSummary{
		Login:       u.Login,
		Name:        u.DisplayName(),
		Bio:         bio,
		Location:    u.Location,
		PublicRepos: u.PublicRepos,
		Followers:   u.Followers,
	}
}

// topRepositories returns the first repositories as shown to the model.
func topRepositories(repos []model.Repo) []repoSummary {
	if len(repos) > topRepos {
		repos = repos[:topRepos]
	}
	out := make([]repoSummary, 0, len(repos))
	for _, r := range repos {
		out = append(out, repoSummary{
			Name:        r.Name,
			Description: r.Description,
			Stars:       r.Stars,
			Forks:       r.Forks,
			Language:    r.Language,
		})
	}
	return out
}

// LanguageLine renders "Go: 61.2%, Python: 38.8%".
func LanguageLine(langs []model.Language) string {
	parts := make([]string, 0, len(langs))
	for _, l := range langs {
		parts = append(parts, l.Name+": "+strconv.FormatFloat(l.Percentage, 'f', 1, 64)+"%")
	}
	return strings.Join(parts, ", ")
}

// Skills builds the skill extraction prompt.
func Skills(raw *model.RawData, langs []model.Language) (Prompt, error) {
	if raw == nil {
		return Prompt{}, fmt.Errorf("raw data is required")
	}

	payload := struct {
		User            userSummary   `json:"user"`
		TopRepositories []repoSummary `json:"topRepositories"`
		Languages       string        `json:"languages"`
	}{
		User:            summarizeUser(raw.User),
		TopRepositories: topRepositories(raw.Repos),
		Languages:       LanguageLine(langs),
	}

	return render(TaskSkills, &SkillsOutput{}, payload, nil)
}

type candidateSummary struct {
	Skills            []string          `json:"skills"`
	ProficiencyLevels map[string]string `json:"proficiencyLevels"`
	Strengths         []string          `json:"strengths,omitempty"`
	ExperienceSummary string            `json:"experienceSummary,omitempty"`
}

func summarizeCandidate(p *model.Profile) candidateSummary {
	return candidateSummary{
		Skills:            p.Skills,
		ProficiencyLevels: p.ProficiencyLevels,
		Strengths:         p.Strengths,
		ExperienceSummary: p.ExperienceSummary,
	}
}

// Match builds the job matching prompt.
func Match(profile *model.Profile, job string) (Prompt, error) {
	if profile == nil {
		return Prompt{}, fmt.Errorf("profile is required")
	}

	payload := struct {
		Candidate      candidateSummary `json:"candidate"`
		JobDescription string           `json:"jobDescription"`
	}{
		Candidate:      summarizeCandidate(profile),
		JobDescription: strings.TrimSpace(job),
	}

	return render(TaskMatch, &MatchOutput{}, payload, nil)
}

type dnaRepo struct {
	Name           string   `json:"name"`
	Language       string   `json:"language,omitempty"`
	Created        int      `json:"created"`
	Stars          int      `json:"stars"`
	Forks          int      `json:"forks"`
	Fork           bool     `json:"fork,omitempty"`
	HasDescription bool     `json:"hasDescription"`
	Topics         []string `json:"topics,omitempty"`
}

// DNA builds the code DNA prompt from the repositories and sampled commit messages.
func DNA(raw *model.RawData, langs []model.Language, commits []model.Commit) (Prompt, error) {
	if raw == nil {
		return Prompt{}, fmt.Errorf("raw data is required")
	}

	repos := make([]dnaRepo, 0, len(raw.Repos))
	for _, r := range raw.Repos {
		repos = append(repos, dnaRepo{
			Name:           r.Name,
			Language:       r.Language,
			Created:        r.CreatedAt.Year(),
			Stars:          r.Stars,
			Forks:          r.Forks,
			Fork:           r.Fork,
			HasDescription: strings.TrimSpace(r.Description) != "",
			Topics:         r.Topics,
		})
	}

	messages := make([]string, 0, len(commits))
	for _, c := range commits {
		if msg := strings.TrimSpace(c.Message); msg != "" {
			messages = append(messages, msg)
		}
	}

	payload := struct {
		User         userSummary `json:"user"`
		Languages    string      `json:"languages"`
		Repositories []dnaRepo   `json:"repositories"`
		Commits      []string    `json:"commits"`
	}{
		User:         summarizeUser(raw.User),
		Languages:    LanguageLine(langs),
		Repositories: repos,
		Commits:      messages,
	}

	return render(TaskDNA, &DNAOutput{}, payload, nil)
}

// Interview builds the question generation prompt. gaps and job may be empty.
func Interview(profile *model.Profile, job string, gaps []string, limit int) (Prompt, error) {
	if profile == nil {
		return Prompt{}, fmt.Errorf("profile is required")
	}

	payload := struct {
		Candidate      candidateSummary `json:"candidate"`
		SkillGaps      []string         `json:"skillGaps,omitempty"`
		JobDescription string           `json:"jobDescription,omitempty"`
	}{
		Candidate:      summarizeCandidate(profile),
		SkillGaps:      gaps,
		JobDescription: strings.TrimSpace(job),
	}

	return render(TaskInterview, &InterviewOutput{}, payload, map[string]string{
		"MAX_QUESTIONS": strconv.Itoa(limit),
	})
}
