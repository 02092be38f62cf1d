package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/model"
)

const searchUsersPath = "/search/users"

type searchResponse struct {
	TotalCount        int              `json:"total_count"`
	IncompleteResults bool             `json:"incomplete_results"`
	Items             []map[string]any `json:"items"`
}

// SearchResult is one page of the user search.
type SearchResult struct {
	Total int
	Hits  []model.SearchHit
}

// SearchUsers runs a user search query and returns the first page.
func (c *Client) SearchUsers(ctx context.Context, query string, perPage int) (*SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("per_page", strconv.Itoa(clampPerPage(perPage)))

	var response searchResponse
	if err := c.getJSON(ctx, "search_users", searchUsersPath, q, &response); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	c.logger.Debug("got search response from github",
		zap.Int("total", response.TotalCount),
		zap.Int("items", len(response.Items)),
		zap.Bool("incomplete", response.IncompleteResults),
	)

	hits := make([]model.SearchHit, 0, len(response.Items))
	for _, item := range response.Items {
		var hit model.SearchHit
		if err := mapstructure.Decode(item, &hit); err != nil {
			return nil, fmt.Errorf("decode search item: %w", err)
		}
		hits = append(hits, hit)
	}

	return &SearchResult{Total: response.TotalCount, Hits: hits}, nil
}

// BuildQuery renders criteria in GitHub user search syntax.
func BuildQuery(criteria model.SearchCriteria) string {
	var parts []string
	for _, skill := range criteria.Skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			parts = append(parts, skill)
		}
	}

	if loc := strings.TrimSpace(criteria.Location); loc != "" {
		if strings.ContainsAny(loc, " \t") {
			loc = strconv.Quote(loc)
		}
		parts = append(parts, "location:"+loc)
	}

	if criteria.MinRepos > 0 {
		parts = append(parts, fmt.Sprintf("repos:>=%d", criteria.MinRepos))
	}

	if criteria.MinFollowers > 0 {
		parts = append(parts, fmt.Sprintf("followers:>=%d", criteria.MinFollowers))
	}

	return strings.Join(parts, " ")
}

func clampPerPage(n int) int {
	switch {
	case n <= 0:
		return DefaultSearchPerPage
	case n > MaxSearchPerPage:
		return MaxSearchPerPage
	default:
		return n
	}
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}
