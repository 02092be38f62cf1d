package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "token")
	if err := os.WriteFile(file, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	t.Setenv("DEVSCOUT_TEST_TOKEN", " from-env ")

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{name: "file wins", src: Source{File: file, Env: "DEVSCOUT_TEST_TOKEN", Value: "inline"}, expect: "from-file"},
		{name: "env over inline", src: Source{Env: "DEVSCOUT_TEST_TOKEN", Value: "inline"}, expect: "from-env"},
		{name: "inline", src: Source{Env: "DEVSCOUT_UNSET_TOKEN", Value: " inline "}, expect: "inline"},
		{name: "optional empty", src: Source{Optional: true}, expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("   "), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := Load(Source{Name: "github token"}); err == nil || !strings.Contains(err.Error(), "github token is not configured") {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := Load(Source{Name: "api key", File: empty}); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := Load(Source{File: filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
