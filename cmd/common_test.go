package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/storage"
)

func TestReadJob(t *testing.T) {
	file := filepath.Join(t.TempDir(), "job.txt")
	if err := os.WriteFile(file, []byte("Senior Go engineer"), 0o600); err != nil {
		t.Fatalf("writing job file: %v", err)
	}

	tests := []struct {
		name   string
		args   []string
		expect string
		err    bool
	}{
		{name: "inline", args: []string{"--job", "Rust developer"}, expect: "Rust developer"},
		{name: "file wins", args: []string{"--job", "ignored", "--job-file", file}, expect: "Senior Go engineer"},
		{name: "missing file", args: []string{"--job-file", filepath.Join(t.TempDir(), "nope")}, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			addJobFlags(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parsing flags: %v", err)
			}

			job, err := readJob(cmd)
			if tt.err {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil || job != tt.expect {
				t.Fatalf("expected %q, got %q (%v)", tt.expect, job, err)
			}
		})
	}
}

func TestOpenRepo(t *testing.T) {
	repo, closeRepo, err := openRepo(context.Background(), StorageConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeRepo()
	if _, ok := repo.(*storage.MemoryRepo); !ok {
		t.Fatalf("expected memory repo by default, got %T", repo)
	}

	if _, _, err := openRepo(context.Background(), StorageConfig{Driver: "sqlite"}, zap.NewNop()); err == nil {
		t.Fatalf("expected unsupported driver error")
	}

	t.Setenv("DATABASE_URL", "")
	if _, _, err := openRepo(context.Background(), StorageConfig{Driver: "postgres"}, zap.NewNop()); err == nil {
		t.Fatalf("expected missing database url error")
	}
}
