package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/model"
)

func (c *Client) GetUser(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperr.InvalidInput("username is required")
	}

	var user model.User
	if err := c.getJSON(ctx, "user", "/users/"+url.PathEscape(login), nil, &user); err != nil {
		return nil, fmt.Errorf("get user %s: %w", login, err)
	}

	return &user, nil
}

// GetRepos lists the user's repositories, most recently updated first.
func (c *Client) GetRepos(ctx context.Context, login string) ([]model.Repo, error) {
	q := url.Values{}
	q.Set("sort", "updated")
	q.Set("per_page", strconv.Itoa(reposPerPage))

	var repos []model.Repo
	if err := c.getJSON(ctx, "repos", "/users/"+url.PathEscape(login)+"/repos", q, &repos); err != nil {
		return nil, fmt.Errorf("get repos of %s: %w", login, err)
	}

	if repos == nil {
		repos = []model.Repo{}
	}

	return repos, nil
}

type commitItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// GetCommits lists commits of owner/repo authored by author.
func (c *Client) GetCommits(ctx context.Context, owner, repo, author string, perPage int) ([]model.Commit, error) {
	if perPage <= 0 {
		perPage = CommitsPerPage
	}

	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	if author != "" {
		q.Set("author", author)
	}

	var items []commitItem
	path := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/commits"
	if err := c.getJSON(ctx, "commits", path, q, &items); err != nil {
		return nil, fmt.Errorf("get commits of %s/%s: %w", owner, repo, err)
	}

	commits := make([]model.Commit, 0, len(items))
	for _, item := range items {
		commit := model.Commit{
			SHA:     item.SHA,
			Repo:    repo,
			Message: item.Commit.Message,
		}
		if date, err := parseTime(item.Commit.Author.Date); err == nil {
			commit.Date = date
		}
		commits = append(commits, commit)
	}

	return commits, nil
}
