// Package languages turns a repository list into a weighted language distribution.
package languages

import (
	"sort"

	"github.com/spigell/devscout/internal/model"
)

const (
	// MaxLanguages caps the distribution length.
	MaxLanguages = 6
	// DefaultColor is used for languages missing from the palette.
	DefaultColor = "#6b7280"
)

var palette = map[string]string{
	"JavaScript": "#f7df1e",
	"TypeScript": "#3178c6",
	"Python":     "#3776ab",
	"Java":       "#b07219",
	"Go":         "#00add8",
	"Rust":       "#dea584",
	"C":          "#555555",
	"C++":        "#f34b7d",
	"C#":         "#178600",
	"Ruby":       "#701516",
	"PHP":        "#4f5d95",
	"Swift":      "#f05138",
	"Kotlin":     "#a97bff",
	"Scala":      "#c22d40",
	"Shell":      "#89e051",
	"HTML":       "#e34f26",
	"CSS":        "#264de4",
	"Vue":        "#41b883",
	"Dart":       "#00b4ab",
	"Elixir":     "#6e4a7e",
}

// Color returns the display color of a language.
func Color(name string) string {
	if c, ok := palette[name]; ok {
		return c
	}
	return DefaultColor
}

type weight struct {
	name  string
	value int
}

// Calculate weights each language by the summed size of its repositories, an empty repository
// counting as 1. Repositories without a language are ignored. Ties keep first-encounter order.
func Calculate(repos []model.Repo) []model.Language {
	index := make(map[string]int)
	var weights []weight
	total := 0

	for _, repo := range repos {
		if repo.Language == "" {
			continue
		}
		size := repo.Size
		if size <= 0 {
			size = 1
		}
		total += size

		i, ok := index[repo.Language]
		if !ok {
			i = len(weights)
			index[repo.Language] = i
			weights = append(weights, weight{name: repo.Language})
		}
		weights[i].value += size
	}

	sort.SliceStable(weights, func(i, j int) bool {
		return weights[i].value > weights[j].value
	})

	if len(weights) > MaxLanguages {
		weights = weights[:MaxLanguages]
	}

	result := make([]model.Language, 0, len(weights))
	for _, w := range weights {
		result = append(result, model.Language{
			Name:       w.name,
			Percentage: float64(w.value) / float64(total) * 100,
			Color:      Color(w.name),
		})
	}

	return result
}

// Names returns the language names in distribution order.
func Names(langs []model.Language) []string {
	names := make([]string, 0, len(langs))
	for _, l := range langs {
		names = append(names, l.Name)
	}
	return names
}
