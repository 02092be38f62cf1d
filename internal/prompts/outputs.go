package prompts

// The structs below describe the JSON a model is asked to return. Their schemas are embedded in
// the system prompts and the same types are used to decode the answers.

type SkillsOutput struct {
	Skills            []string          `json:"skills" jsonschema:"description=Technical skills: languages, frameworks, tools, domains"`
	ProficiencyLevels map[string]string `json:"proficiency_levels" jsonschema:"description=Skill to one of expert, intermediate, beginner"`
	Strengths         []string          `json:"strengths"`
	ExperienceSummary string            `json:"experience_summary" jsonschema:"description=Two or three sentences"`
	NotableProjects   []string          `json:"notable_projects" jsonschema:"description=Repository names"`
}

type MatchOutput struct {
	MatchScore       int      `json:"match_score" jsonschema:"minimum=0,maximum=100"`
	MatchingSkills   []string `json:"matching_skills"`
	MissingSkills    []string `json:"missing_skills"`
	StrengthsForRole []string `json:"strengths_for_role"`
	Recommendation   string   `json:"recommendation" jsonschema:"enum=hire,enum=interview,enum=pass"`
	Reasoning        string   `json:"reasoning" jsonschema:"description=Two or three sentences"`
}

type DNAOutput struct {
	Personality struct {
		CommitStyle         string `json:"commit_style" jsonschema:"enum=Atomic,enum=Feature-based,enum=Mixed"`
		CommunicationStyle  string `json:"communication_style" jsonschema:"enum=Concise,enum=Detailed,enum=Visual"`
		DocumentationHabits string `json:"documentation_habits" jsonschema:"enum=Extensive,enum=Moderate,enum=Minimal"`
	} `json:"personality"`
	Collaboration struct {
		Role           string `json:"role" jsonschema:"enum=Mentor,enum=Contributor,enum=Solo Builder,enum=Architect"`
		ReviewActivity string `json:"review_activity" jsonschema:"enum=Active Reviewer,enum=Occasional,enum=Rare"`
		PRQuality      int    `json:"pr_quality" jsonschema:"minimum=0,maximum=100"`
	} `json:"collaboration"`
	TechnicalDNA struct {
		CodeStructure          string `json:"code_structure" jsonschema:"enum=Functional,enum=OOP,enum=Hybrid"`
		TestingApproach        string `json:"testing_approach" jsonschema:"enum=TDD Advocate,enum=Pragmatic,enum=Minimal"`
		ArchitecturePreference string `json:"architecture_preference" jsonschema:"enum=Microservices,enum=Monolithic,enum=Modular"`
	} `json:"technical_dna"`
	Evolution struct {
		LanguageProgression []struct {
			Year      int      `json:"year"`
			Languages []string `json:"languages"`
		} `json:"language_progression"`
		ComplexityTrend   string `json:"complexity_trend" jsonschema:"enum=Increasing,enum=Stable,enum=Exploring"`
		PrimaryGrowthArea string `json:"primary_growth_area"`
	} `json:"evolution"`
	UniqueMarkers []string `json:"unique_markers"`
}

type InterviewOutput struct {
	Questions []struct {
		Skill      string `json:"skill"`
		Question   string `json:"question"`
		Difficulty string `json:"difficulty" jsonschema:"enum=easy,enum=medium,enum=hard"`
		Category   string `json:"category" jsonschema:"enum=conceptual,enum=practical,enum=scenario"`
		FollowUp   string `json:"follow_up,omitempty"`
	} `json:"questions"`
}
