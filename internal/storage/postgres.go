package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"

	"github.com/spigell/devscout/internal/model"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var openDB = sql.Open

// Connect opens the Postgres pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Save(ctx context.Context, analysis model.SavedAnalysis) (model.SavedAnalysis, error) {
	if err := Validate(analysis); err != nil {
		return model.SavedAnalysis{}, err
	}

	const query = `
INSERT INTO saved_analyses (username, profile_data, match_data, job_description)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

	profile, err := json.Marshal(analysis.Profile)
	if err != nil {
		return model.SavedAnalysis{}, fmt.Errorf("marshal profile: %w", err)
	}
	match, err := marshalJSONB(analysis.Match)
	if err != nil {
		return model.SavedAnalysis{}, fmt.Errorf("marshal match: %w", err)
	}

	err = r.DB.QueryRowContext(ctx, query,
		analysis.Username,
		profile,
		match,
		nullString(analysis.JobDescription),
	).Scan(&analysis.ID, &analysis.CreatedAt)
	if err != nil {
		return model.SavedAnalysis{}, fmt.Errorf("insert saved analysis: %w", err)
	}
	return analysis, nil
}

const selectColumns = `SELECT id, username, profile_data, match_data, job_description, created_at FROM saved_analyses`

func (r *PGRepo) List(ctx context.Context) ([]model.SavedAnalysis, error) {
	rows, err := r.DB.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list saved analyses: %w", err)
	}
	defer rows.Close()

	out := []model.SavedAnalysis{}
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list saved analyses: %w", err)
	}
	return out, nil
}

func (r *PGRepo) Get(ctx context.Context, id int64) (model.SavedAnalysis, error) {
	a, err := scan(r.DB.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.SavedAnalysis{}, ErrNotFound
	}
	return a, err
}

func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM saved_analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete saved analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved analysis: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (model.SavedAnalysis, error) {
	var (
		a       model.SavedAnalysis
		profile []byte
		match   []byte
		job     sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Username, &profile, &match, &job, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SavedAnalysis{}, err
		}
		return model.SavedAnalysis{}, fmt.Errorf("scan saved analysis: %w", err)
	}

	a.Profile = &model.Profile{}
	if err := json.Unmarshal(profile, a.Profile); err != nil {
		return model.SavedAnalysis{}, fmt.Errorf("decode profile data: %w", err)
	}
	if len(match) > 0 {
		a.Match = &model.MatchVerdict{}
		if err := json.Unmarshal(match, a.Match); err != nil {
			return model.SavedAnalysis{}, fmt.Errorf("decode match data: %w", err)
		}
	}
	a.JobDescription = job.String
	return a, nil
}

func marshalJSONB(v *model.MatchVerdict) (any, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
