package core

import (
	"strings"

	"golang.org/x/text/cases"

	"flicks/internal/models"
)

// FilterByGenre keeps the movies whose free-text genre contains genre,
// compared case-insensitively. "All" and "" return the list unchanged.
func FilterByGenre(movies []models.MovieDetails, genre string) []models.MovieDetails {
	if genre == "" || genre == models.GenreAll {
		return movies
	}

	fold := cases.Fold()
	needle := fold.String(genre)
	filtered := make([]models.MovieDetails, 0, len(movies))
	for _, movie := range movies {
		if strings.Contains(fold.String(movie.Genre), needle) {
			filtered = append(filtered, movie)
		}
	}
	return filtered
}

// Dedupe keeps the first occurrence of every id, preserving order.
func Dedupe(movies []models.MovieDetails) []models.MovieDetails {
	return dedupeBy(movies, func(m models.MovieDetails) string { return m.ID })
}

func dedupeBy[T any](items []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		key := id(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
