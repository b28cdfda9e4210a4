package models

import "strings"

// NoImage is the provider's sentinel for a missing poster.
const NoImage = "N/A"

// PlaceholderPoster is shown in place of a missing poster.
const PlaceholderPoster = "https://via.placeholder.com/300x450?text=No+Poster"

// GenreAll is the filter value that matches every movie.
const GenreAll = "All"

// Genres is the fixed list offered by the genre filter bar.
var Genres = []string{
	"Action",
	"Adventure",
	"Animation",
	"Comedy",
	"Crime",
	"Documentary",
	"Drama",
	"Family",
	"Fantasy",
	"History",
	"Horror",
	"Music",
	"Mystery",
	"Romance",
	"Science Fiction",
	"Thriller",
	"War",
	"Western",
}

// IsGenre reports whether g is GenreAll or one of Genres.
func IsGenre(g string) bool {
	if g == GenreAll {
		return true
	}
	for _, known := range Genres {
		if known == g {
			return true
		}
	}
	return false
}

// MovieSummary is one search hit.
type MovieSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"poster_url"`
	Year      string `json:"year"`
	Genre     string `json:"genre,omitempty"`
}

// MovieDetails is the full record for one movie. Values are never mutated
// after a lookup; a new lookup produces a new value.
type MovieDetails struct {
	MovieSummary

	Rating     string `json:"rating,omitempty"`
	Plot       string `json:"plot,omitempty"`
	Director   string `json:"director,omitempty"`
	Writer     string `json:"writer,omitempty"`
	Actors     string `json:"actors,omitempty"`
	Runtime    string `json:"runtime,omitempty"`
	Language   string `json:"language,omitempty"`
	Country    string `json:"country,omitempty"`
	Awards     string `json:"awards,omitempty"`
	BoxOffice  string `json:"box_office,omitempty"`
	Production string `json:"production,omitempty"`
	Website    string `json:"website,omitempty"`
	TrailerID  string `json:"trailer_id,omitempty"`
}

// FromSummary lifts a search hit into a details value with only the summary
// fields populated.
func FromSummary(s MovieSummary) MovieDetails {
	return MovieDetails{MovieSummary: s}
}

// Poster returns the poster URL, or the placeholder for the provider sentinel.
func (m MovieSummary) Poster() string {
	if m.PosterURL == "" || m.PosterURL == NoImage {
		return PlaceholderPoster
	}
	return m.PosterURL
}

// GenreList splits the free-text genre field into chips.
func (m MovieSummary) GenreList() []string {
	if m.Genre == "" || m.Genre == NoImage {
		return nil
	}
	return strings.Split(m.Genre, ", ")
}

// WithTrailer returns a copy of m carrying the given trailer id.
func (m MovieDetails) WithTrailer(videoID string) MovieDetails {
	m.TrailerID = videoID
	return m
}
