// Package storage persists saved analyses, in memory or in Postgres.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/devscout/internal/apperr"
	"github.com/spigell/devscout/internal/model"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned for unknown analysis ids.
var ErrNotFound = fmt.Errorf("saved analysis: %w", apperr.ErrNotFound)

// Repo defines persistence operations for saved analyses.
type Repo interface {
	// Save stores the analysis and returns it with its id and creation time.
	Save(ctx context.Context, analysis model.SavedAnalysis) (model.SavedAnalysis, error)
	// List returns analyses newest first.
	List(ctx context.Context) ([]model.SavedAnalysis, error)
	Get(ctx context.Context, id int64) (model.SavedAnalysis, error)
	Delete(ctx context.Context, id int64) error
}

// Validate checks an analysis before it is stored.
func Validate(analysis model.SavedAnalysis) error {
	if strings.TrimSpace(analysis.Username) == "" {
		return apperr.InvalidInput("username is required")
	}
	if analysis.Profile == nil {
		return apperr.InvalidInput("profile data is required")
	}
	return nil
}
