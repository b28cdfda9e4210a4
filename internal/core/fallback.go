package core

import "flicks/internal/models"

var fallbackMovies = []models.MovieDetails{
	{
		MovieSummary: models.MovieSummary{
			ID:        "tt0111161",
			Title:     "The Shawshank Redemption",
			PosterURL: "https://m.media-amazon.com/images/M/MV5BNDE3ODcxYzMtY2YzZC00NmNlLWJiNDMtZDViZWM2MzIxZDYwXkEyXkFqcGdeQXVyNjAwNDUxODI@._V1_SX300.jpg",
			Year:      "1994",
			Genre:     "Drama",
		},
		Rating:   "9.3",
		Plot:     "Two imprisoned men bond over a number of years, finding solace and eventual redemption through acts of common decency.",
		Director: "Frank Darabont",
		Actors:   "Tim Robbins, Morgan Freeman",
		Runtime:  "142 min",
	},
	{
		MovieSummary: models.MovieSummary{
			ID:        "tt0110912",
			Title:     "Pulp Fiction",
			PosterURL: "https://m.media-amazon.com/images/M/MV5BNGNhMDIzZTUtNTBlZi00MTRlLWFjM2ItYzViMjE3YzI5MjljXkEyXkFqcGdeQXVyNzkwMjQ5NzM@._V1_SX300.jpg",
			Year:      "1994",
			Genre:     "Crime, Drama",
		},
		Rating:   "8.9",
		Plot:     "The lives of two mob hitmen, a boxer, a gangster and his wife, and a pair of diner bandits intertwine in four tales of violence and redemption.",
		Director: "Quentin Tarantino",
		Actors:   "John Travolta, Uma Thurman",
		Runtime:  "154 min",
	},
	{
		MovieSummary: models.MovieSummary{
			ID:        "tt0068646",
			Title:     "The Godfather",
			PosterURL: "https://m.media-amazon.com/images/M/MV5BM2MyNjYxNmUtYTAwNi00MTYxLWJmNWYtYzZlODY3ZTk3OTFlXkEyXkFqcGdeQXVyNzkwMjQ5NzM@._V1_SX300.jpg",
			Year:      "1972",
			Genre:     "Crime, Drama",
		},
		Rating:   "9.2",
		Plot:     "The aging patriarch of an organized crime dynasty transfers control of his clandestine empire to his reluctant son.",
		Director: "Francis Ford Coppola",
		Actors:   "Marlon Brando, Al Pacino",
		Runtime:  "175 min",
	},
}

// FallbackMovies returns a copy of the static degraded-mode list.
func FallbackMovies() []models.MovieDetails {
	return append([]models.MovieDetails(nil), fallbackMovies...)
}
