// Package model contains the data types passed between devscout components.
package model

import "time"

// RawData is the upstream view of a candidate: the user record and the recently updated repositories.
type RawData struct {
	User  User   `json:"user"`
	Repos []Repo `json:"repos"`
}

type User struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	URL         string    `json:"url"`
	Bio         string    `json:"bio"`
	Location    string    `json:"location"`
	Company     string    `json:"company"`
	Blog        string    `json:"blog"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayName falls back to the login when the user has no name set.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}

type Repo struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	Language    string    `json:"language"`
	Size        int       `json:"size"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Fork        bool      `json:"fork"`
	Topics      []string  `json:"topics"`
	CreatedAt   time.Time `json:"created_at"`
	PushedAt    time.Time `json:"pushed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Commit is the subset of a commit listing used for code DNA sampling.
type Commit struct {
	SHA     string    `json:"sha"`
	Repo    string    `json:"repo"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// SearchHit is a raw item of the user search endpoint.
type SearchHit struct {
	Login     string  `mapstructure:"login"`
	AvatarURL string  `mapstructure:"avatar_url"`
	URL       string  `mapstructure:"url"`
	HTMLURL   string  `mapstructure:"html_url"`
	Type      string  `mapstructure:"type"`
	Score     float64 `mapstructure:"score"`
}
