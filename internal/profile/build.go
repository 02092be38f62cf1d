package profile

import (
	"fmt"
	"strings"

	"github.com/spigell/devscout/internal/extract"
	"github.com/spigell/devscout/internal/languages"
	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/prompts"
	"github.com/spigell/devscout/internal/utils"
)

const (
	fallbackStrength = "Active GitHub contributor"
	defaultExpertise = "software development"
	fallbackProjects = 3
)

func base(raw *model.RawData, langs []model.Language) *model.Profile {
	return &model.Profile{
		Username:          raw.User.Login,
		Name:              raw.User.DisplayName(),
		Avatar:            raw.User.AvatarURL,
		Bio:               raw.User.Bio,
		Repos:             raw.User.PublicRepos,
		Followers:         raw.User.Followers,
		Location:          raw.User.Location,
		Languages:         extract.NonNil(langs),
		Skills:            []string{},
		ProficiencyLevels: map[string]string{},
		Strengths:         []string{},
		NotableProjects:   []string{},
	}
}

func applyOutput(p *model.Profile, out prompts.SkillsOutput) {
	p.Skills = utils.Dedupe(out.Skills)
	p.ProficiencyLevels = normalizeLevels(out.ProficiencyLevels)
	p.Strengths = utils.Dedupe(out.Strengths)
	p.ExperienceSummary = strings.TrimSpace(out.ExperienceSummary)
	p.NotableProjects = utils.Dedupe(out.NotableProjects)
	p.AnalysisSource = model.SourceAI
}

// applyFallback derives the profile from local data only.
func applyFallback(p *model.Profile, raw *model.RawData, langs []model.Language, reason string) {
	names := languages.Names(langs)

	levels := make(map[string]string, len(names))
	for _, name := range names {
		levels[name] = model.LevelIntermediate
	}

	expertise := defaultExpertise
	if len(names) > 0 {
		expertise = names[0]
	}

	projects := make([]string, 0, fallbackProjects)
	for i := 0; i < len(raw.Repos) && i < fallbackProjects; i++ {
		projects = append(projects, raw.Repos[i].Name)
	}

	p.Skills = names
	p.ProficiencyLevels = levels
	p.Strengths = []string{fallbackStrength}
	p.ExperienceSummary = fmt.Sprintf("Developer with %d repositories and expertise in %s.", raw.User.PublicRepos, expertise)
	p.NotableProjects = projects
	p.AnalysisSource = model.SourceFallback
	p.FallbackReason = reason
}

// NormalizeLevel maps free-form proficiency words onto the three tiers.
func NormalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "expert", "advanced", "senior", "master":
		return model.LevelExpert
	case "beginner", "novice", "basic", "junior", "learning":
		return model.LevelBeginner
	default:
		return model.LevelIntermediate
	}
}

func normalizeLevels(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for skill, level := range in {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		out[skill] = NormalizeLevel(level)
	}
	return out
}
