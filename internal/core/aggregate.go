package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"flicks/internal/clients/metadata"
	"flicks/internal/models"
)

var (
	// ErrNoMovies means a flow finished without a single movie to show.
	ErrNoMovies = errors.New("no movies found")
	// ErrUnknownGenre is returned for a genre outside the fixed list.
	ErrUnknownGenre = errors.New("unknown genre")
)

type termResult struct {
	movies []models.MovieSummary
	err    error
}

// BuildTrending searches every trending seed term concurrently and keeps
// the first match of each, optionally resolved to full details. When no
// term yields anything the static list is returned with degraded set.
func (m *Manager) BuildTrending(ctx context.Context) ([]models.MovieDetails, bool) {
	meta, _, flows := m.clients()

	mapper := iter.Mapper[string, *models.MovieDetails]{MaxGoroutines: flows.maxConcurrency}
	picks := mapper.Map(flows.trendingTerms, func(term *string) *models.MovieDetails {
		results, err := meta.SearchByTerm(ctx, *term)
		if err != nil || len(results) == 0 {
			m.logger.Debug("Trending term yielded nothing", "term", *term, "error", err)
			return nil
		}
		movie := models.FromSummary(results[0])
		if !flows.resolveTrending {
			return &movie
		}
		details, err := meta.GetDetails(ctx, movie.ID, metadata.PlotShort)
		if err != nil {
			m.logger.Warn("Failed to resolve trending movie, keeping summary", "id", movie.ID, "error", err)
			return &movie
		}
		return details
	})

	var movies []models.MovieDetails
	for _, pick := range picks {
		if pick != nil {
			movies = append(movies, *pick)
		}
	}
	movies = Dedupe(movies)

	if len(movies) == 0 {
		m.logger.Warn("No trending movies from provider, using fallback data")
		return FallbackMovies(), true
	}
	return movies, false
}

// Browse builds the browsable list for a genre. "All" searches the generic
// seed terms, any other genre is its own sole term. Each term is capped,
// every hit is resolved to short-plot details, and the concatenation is
// deduplicated by id. An empty outcome is an error, never substituted.
func (m *Manager) Browse(ctx context.Context, genre string) ([]models.MovieDetails, error) {
	meta, _, flows := m.clients()

	terms := flows.genericTerms
	if genre != models.GenreAll {
		if !models.IsGenre(genre) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownGenre, genre)
		}
		terms = []string{genre}
	}

	searches := iter.Mapper[string, termResult]{MaxGoroutines: flows.maxConcurrency}
	perTerm := searches.Map(terms, func(term *string) termResult {
		results, err := meta.SearchByTerm(ctx, *term)
		if err != nil {
			m.logger.Debug("Browse term failed", "term", *term, "error", err)
			return termResult{err: err}
		}
		if len(results) > flows.perTermLimit {
			results = results[:flows.perTermLimit]
		}
		return termResult{movies: results}
	})

	var (
		summaries []models.MovieSummary
		transport error
	)
	for _, res := range perTerm {
		summaries = append(summaries, res.movies...)
		if res.err != nil && transport == nil && !isProviderAnswer(res.err) {
			transport = res.err
		}
	}
	summaries = dedupeBy(summaries, func(s models.MovieSummary) string { return s.ID })

	movies := m.resolveAll(ctx, meta, summaries, flows.maxConcurrency)
	if len(movies) > 0 {
		return movies, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if transport != nil && len(summaries) == 0 {
		return nil, fmt.Errorf("failed to fetch movies: %w", transport)
	}
	return nil, fmt.Errorf("%w for %s", ErrNoMovies, genre)
}

// Search runs a title search and resolves every match to short-plot
// details. Matches that fail to resolve are dropped. A provider refusal
// is returned as-is so its message can be shown.
func (m *Manager) Search(ctx context.Context, query string) ([]models.MovieDetails, error) {
	meta, _, flows := m.clients()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoMovies
	}

	results, err := meta.SearchByTerm(ctx, query)
	if err != nil {
		if isProviderAnswer(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}

	movies := m.resolveAll(ctx, meta, dedupeBy(results, func(s models.MovieSummary) string { return s.ID }), flows.maxConcurrency)
	if len(movies) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrNoMovies
	}
	return movies, nil
}

// Movie fetches full-plot details for id and looks up a trailer for its
// title. A missing trailer is not an error.
func (m *Manager) Movie(ctx context.Context, id string) (*models.MovieDetails, error) {
	meta, finder, _ := m.clients()

	details, err := meta.GetDetails(ctx, id, metadata.PlotFull)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movie details: %w", err)
	}

	if videoID, ok := finder.FindTrailer(ctx, details.Title); ok {
		withTrailer := details.WithTrailer(videoID)
		details = &withTrailer
	}
	return details, nil
}

// resolveAll looks up short-plot details for every summary concurrently,
// keeping input order and dropping failures.
func (m *Manager) resolveAll(ctx context.Context, meta metadata.Client, summaries []models.MovieSummary, limit int) []models.MovieDetails {
	mapper := iter.Mapper[models.MovieSummary, *models.MovieDetails]{MaxGoroutines: limit}
	resolved := mapper.Map(summaries, func(s *models.MovieSummary) *models.MovieDetails {
		details, err := meta.GetDetails(ctx, s.ID, metadata.PlotShort)
		if err != nil {
			m.logger.Debug("Dropping unresolved movie", "id", s.ID, "error", err)
			return nil
		}
		return details
	})

	movies := make([]models.MovieDetails, 0, len(resolved))
	for _, details := range resolved {
		if details != nil {
			movies = append(movies, *details)
		}
	}
	return movies
}

// isProviderAnswer reports whether err is a well-formed "no match" reply
// rather than a transport or decoding failure.
func isProviderAnswer(err error) bool {
	var perr *metadata.ProviderError
	return errors.As(err, &perr) || errors.Is(err, metadata.ErrNoResults)
}
