package languages

import (
	"math"
	"reflect"
	"testing"

	"github.com/spigell/devscout/internal/model"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	repos := []model.Repo{
		{Name: "a", Language: "Go", Size: 300},
		{Name: "b", Language: "Python", Size: 100},
		{Name: "c", Language: "", Size: 1000},
		{Name: "d", Language: "Go", Size: 100},
		{Name: "e", Language: "Zig", Size: 0},
		{Name: "f", Language: "Rust", Size: 100},
	}

	got := Calculate(repos)

	names := Names(got)
	expectNames := []string{"Go", "Python", "Rust", "Zig"}
	if !reflect.DeepEqual(names, expectNames) {
		t.Fatalf("expected order %v, got %v", expectNames, names)
	}

	total := 0.0
	for i, l := range got {
		total += l.Percentage
		if i > 0 && l.Percentage > got[i-1].Percentage {
			t.Fatalf("distribution not descending at %d: %+v", i, got)
		}
	}
	if total > 100.000001 {
		t.Fatalf("percentages exceed 100: %v", total)
	}

	if math.Abs(got[0].Percentage-400.0/601.0*100) > 1e-9 {
		t.Fatalf("unexpected Go percentage %v", got[0].Percentage)
	}
	if got[0].Color != "#00add8" || got[3].Color != DefaultColor {
		t.Fatalf("unexpected colors: %+v", got)
	}
}

func TestCalculateTruncatesToSix(t *testing.T) {
	t.Parallel()

	var repos []model.Repo
	for _, lang := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		repos = append(repos, model.Repo{Language: lang, Size: 10})
	}

	got := Calculate(repos)
	if len(got) != MaxLanguages {
		t.Fatalf("expected %d languages, got %d", MaxLanguages, len(got))
	}
	if !reflect.DeepEqual(Names(got), []string{"A", "B", "C", "D", "E", "F"}) {
		t.Fatalf("ties must keep encounter order: %v", Names(got))
	}
}

func TestCalculateEmpty(t *testing.T) {
	t.Parallel()

	if got := Calculate(nil); len(got) != 0 || got == nil {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if got := Calculate([]model.Repo{{Name: "docs"}}); len(got) != 0 {
		t.Fatalf("repos without language must be ignored: %+v", got)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	t.Parallel()

	repos := []model.Repo{{Language: "Go", Size: 3}, {Language: "C", Size: 3}, {Language: "Go"}}
	first := Calculate(repos)
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(first, Calculate(repos)) {
			t.Fatalf("output differs between runs")
		}
	}
}
