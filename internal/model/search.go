package model

import "time"

// SearchCriteria filters the candidate search. Zero values mean "no constraint".
type SearchCriteria struct {
	Skills       []string `json:"skills"`
	Location     string   `json:"location,omitempty"`
	MinRepos     int      `json:"minRepos,omitempty"`
	MinFollowers int      `json:"minFollowers,omitempty"`
	PerPage      int      `json:"perPage,omitempty"`
}

type Candidate struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
	Repos     int    `json:"repos"`
	Followers int    `json:"followers"`
	Enriched  bool   `json:"enriched"`
}

// SavedAnalysis is a snapshot written to the record store on demand.
type SavedAnalysis struct {
	ID             int64         `json:"id"`
	Username       string        `json:"username"`
	Profile        *Profile      `json:"profileData"`
	Match          *MatchVerdict `json:"matchData,omitempty"`
	JobDescription string        `json:"jobDescription,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}
