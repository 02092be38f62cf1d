package model

import "time"

// Source labels where an AI-derived object came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Proficiency tiers.
const (
	LevelExpert       = "expert"
	LevelIntermediate = "intermediate"
	LevelBeginner     = "beginner"
)

// Recommendation tiers of a match verdict.
const (
	RecommendHire      = "hire"
	RecommendInterview = "interview"
	RecommendPass      = "pass"
)

type Language struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// Profile is the analyzed view of a candidate. It must not be mutated once returned.
type Profile struct {
	Username          string            `json:"username"`
	Name              string            `json:"name"`
	Avatar            string            `json:"avatar"`
	Bio               string            `json:"bio"`
	Repos             int               `json:"repos"`
	Followers         int               `json:"followers"`
	Location          string            `json:"location,omitempty"`
	Languages         []Language        `json:"languages"`
	Skills            []string          `json:"skills"`
	ProficiencyLevels map[string]string `json:"proficiencyLevels"`
	ExperienceSummary string            `json:"experienceSummary"`
	Strengths         []string          `json:"strengths"`
	NotableProjects   []string          `json:"notableProjects"`
	AnalysisSource    Source            `json:"analysisSource"`
	FallbackReason    string            `json:"fallbackReason,omitempty"`
	AnalyzedAt        time.Time         `json:"analyzedAt"`
}

type MatchVerdict struct {
	MatchScore       int      `json:"matchScore"`
	MatchingSkills   []string `json:"matchingSkills"`
	MissingSkills    []string `json:"missingSkills"`
	StrengthsForRole []string `json:"strengthsForRole"`
	Recommendation   string   `json:"recommendation"`
	Reasoning        string   `json:"reasoning"`
	AnalysisSource   Source   `json:"analysisSource"`
	FallbackReason   string   `json:"fallbackReason,omitempty"`
}

// CandidateRanking is a profile with its verdict and its position within a batch.
type CandidateRanking struct {
	MatchVerdict
	Profile *Profile `json:"profile"`
	Rank    int      `json:"rank"`
}

// CandidateError records why a candidate of a batch has no ranking.
type CandidateError struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
	Skipped  bool   `json:"skipped"`
}

type CodeDNA struct {
	Username       string        `json:"username"`
	Personality    Personality   `json:"personality"`
	Collaboration  Collaboration `json:"collaboration"`
	TechnicalDNA   TechnicalDNA  `json:"technicalDNA"`
	Evolution      Evolution     `json:"evolution"`
	UniqueMarkers  []string      `json:"uniqueMarkers"`
	AnalysisSource Source        `json:"analysisSource"`
	FallbackReason string        `json:"fallbackReason,omitempty"`
	AnalyzedAt     time.Time     `json:"analyzedAt"`
}

type Personality struct {
	CommitStyle         string `json:"commitStyle"`
	CommunicationStyle  string `json:"communicationStyle"`
	DocumentationHabits string `json:"documentationHabits"`
}

type Collaboration struct {
	Role           string `json:"role"`
	ReviewActivity string `json:"reviewActivity"`
	PRQuality      int    `json:"prQuality"`
}

type TechnicalDNA struct {
	CodeStructure          string `json:"codeStructure"`
	TestingApproach        string `json:"testingApproach"`
	ArchitecturePreference string `json:"architecturePreference"`
}

type Evolution struct {
	LanguageProgression []YearLanguages `json:"languageProgression"`
	ComplexityTrend     string          `json:"complexityTrend"`
	PrimaryGrowthArea   string          `json:"primaryGrowthArea"`
}

type YearLanguages struct {
	Year      int      `json:"year"`
	Languages []string `json:"languages"`
}

type InterviewQuestion struct {
	Skill      string `json:"skill"`
	Question   string `json:"question"`
	Difficulty string `json:"difficulty"`
	Category   string `json:"category"`
	FollowUp   string `json:"followUp,omitempty"`
}

// InterviewSet is the result of question generation.
type InterviewSet struct {
	Username       string              `json:"username"`
	Questions      []InterviewQuestion `json:"questions"`
	AnalysisSource Source              `json:"analysisSource"`
	FallbackReason string              `json:"fallbackReason,omitempty"`
}
