package interview

import (
	"fmt"
	"strings"

	"github.com/spigell/devscout/internal/model"
	"github.com/spigell/devscout/internal/utils"
)

type template struct {
	difficulty string
	category   string
	question   string
	followUp   string
}

var (
	gapTemplate = template{
		difficulty: DifficultyMedium,
		category:   CategoryConceptual,
		question:   "This role relies on %s. What do you know about it, and which of your past experience would help you get productive with it?",
		followUp:   "How would you plan your first two weeks of learning %s on the job?",
	}

	levelTemplates = map[string]template{
		model.LevelExpert: {
			difficulty: DifficultyHard,
			category:   CategoryScenario,
			question:   "A production system built with %s starts degrading under load. How do you investigate and fix it?",
			followUp:   "Which trade-offs of %s would you revisit if the system had to scale tenfold?",
		},
		model.LevelIntermediate: {
			difficulty: DifficultyMedium,
			category:   CategoryPractical,
			question:   "Walk through a recent project where you used %s. What problems did you hit and how did you solve them?",
			followUp:   "What would you do differently with %s next time?",
		},
		model.LevelBeginner: {
			difficulty: DifficultyEasy,
			category:   CategoryConceptual,
			question:   "Explain the core ideas of %s and when you would choose it.",
			followUp:   "What is the next thing you want to learn about %s?",
		},
	}
)

func (t template) render(skill string) model.InterviewQuestion {
	return model.InterviewQuestion{
		Skill:      skill,
		Question:   fmt.Sprintf(t.question, skill),
		Difficulty: t.difficulty,
		Category:   t.category,
		FollowUp:   fmt.Sprintf(t.followUp, skill),
	}
}

// Templates returns one deterministic question per skill: gaps first, then the candidate's top
// skills at their proficiency level, for at most five skills.
func Templates(profile *model.Profile, gaps []string) []model.InterviewQuestion {
	questions := make([]model.InterviewQuestion, 0, fallbackSkills)
	seen := map[string]bool{}

	for _, gap := range utils.Dedupe(gaps) {
		if len(questions) == fallbackSkills {
			return questions
		}
		seen[strings.ToLower(gap)] = true
		questions = append(questions, gapTemplate.render(gap))
	}

	for _, skill := range utils.Dedupe(profile.Skills) {
		if len(questions) == fallbackSkills {
			break
		}
		if seen[strings.ToLower(skill)] {
			continue
		}
		seen[strings.ToLower(skill)] = true

		t, ok := levelTemplates[profile.ProficiencyLevels[skill]]
		if !ok {
			t = levelTemplates[model.LevelIntermediate]
		}
		questions = append(questions, t.render(skill))
	}

	return questions
}
