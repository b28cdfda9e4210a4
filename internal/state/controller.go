package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flicks/internal/clients/metadata"
	"flicks/internal/core"
	"flicks/internal/models"
	"flicks/internal/utils"
)

const (
	msgBrowseFailed = "Failed to fetch movies. Please try again later."
	msgSearchFailed = "Failed to search movies. Please try again later."
	msgSearchEmpty  = "No movies found"
	msgDetailFailed = "Failed to fetch movie details. Please try again later."
)

// Catalog is the data side of the view: trending, browse, search and
// movie detail flows.
type Catalog interface {
	Trending(ctx context.Context) *core.TrendingSnapshot
	Browse(ctx context.Context, genre string) ([]models.MovieDetails, error)
	Search(ctx context.Context, query string) ([]models.MovieDetails, error)
	Movie(ctx context.Context, id string) (*models.MovieDetails, error)
}

// Controller runs view actions against a session. Actions block until their
// flow finishes and return the snapshot as it stands afterwards.
type Controller struct {
	catalog Catalog
	logger  *utils.Logger
}

func NewController(catalog Catalog, logger *utils.Logger) *Controller {
	return &Controller{catalog: catalog, logger: logger}
}

// Load fetches trending and the browsable list for the session's genre.
func (c *Controller) Load(ctx context.Context, s *Session) State {
	return c.browse(ctx, s, s.Snapshot().Genre)
}

func (c *Controller) SelectGenre(ctx context.Context, s *Session, genre string) (State, error) {
	if genre != models.GenreAll && !models.IsGenre(genre) {
		return s.Snapshot(), fmt.Errorf("%w: %s", core.ErrUnknownGenre, genre)
	}
	return c.browse(ctx, s, genre), nil
}

func (c *Controller) browse(ctx context.Context, s *Session, genre string) State {
	flowCtx, gen := s.begin(ctx, flowBrowse, func(st *State) {
		st.Status = StatusLoading
		st.Genre = genre
		st.Error = ""
	})

	trending := c.catalog.Trending(flowCtx)
	movies, err := c.catalog.Browse(flowCtx, genre)

	kept := s.commit(flowBrowse, gen, func(st *State) {
		st.Trending = trending.Movies
		st.Degraded = trending.Degraded
		if err != nil {
			st.Status = StatusError
			st.Movies = nil
			st.Error = browseMessage(err, genre)
			return
		}
		st.Status = StatusReady
		st.Movies = movies
	})
	if !kept {
		c.logger.Debug("Discarding superseded browse", "session", s.ID, "genre", genre)
	} else if err != nil {
		c.logger.Warn("Browse failed", "session", s.ID, "genre", genre, "error", err)
	}
	return s.Snapshot()
}

// Search runs a title search. A blank query clears the search instead.
func (c *Controller) Search(ctx context.Context, s *Session, query string) State {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.ClearSearch(s)
	}

	flowCtx, gen := s.begin(ctx, flowSearch, func(st *State) {
		st.Search = Search{Query: query, Status: SearchRunning}
	})

	movies, err := c.catalog.Search(flowCtx, query)

	kept := s.commit(flowSearch, gen, func(st *State) {
		if err != nil {
			st.Search = Search{Query: query, Status: SearchError, Error: searchMessage(err)}
			return
		}
		st.Search = Search{Query: query, Status: SearchReady, Results: movies}
	})
	if !kept {
		c.logger.Debug("Discarding superseded search", "session", s.ID, "query", query)
	}
	return s.Snapshot()
}

func (c *Controller) ClearSearch(s *Session) State {
	s.abandon(flowSearch, func(st *State) {
		st.Search = Search{Status: SearchIdle}
	})
	return s.Snapshot()
}

// OpenMovie loads full details and a trailer for id. Lists are untouched;
// a failure only sets the detail error.
func (c *Controller) OpenMovie(ctx context.Context, s *Session, id string) State {
	flowCtx, gen := s.begin(ctx, flowDetail, func(st *State) {
		st.Detail = DetailStatus{Loading: true}
	})

	details, err := c.catalog.Movie(flowCtx, id)

	kept := s.commit(flowDetail, gen, func(st *State) {
		if err != nil {
			st.Selected = nil
			st.Detail = DetailStatus{Error: msgDetailFailed}
			return
		}
		st.Selected = details
		st.Detail = DetailStatus{}
	})
	if kept && err != nil {
		c.logger.Warn("Movie details failed", "session", s.ID, "id", id, "error", err)
	}
	return s.Snapshot()
}

func (c *Controller) CloseMovie(s *Session) State {
	s.abandon(flowDetail, func(st *State) {
		st.Selected = nil
		st.Detail = DetailStatus{}
	})
	return s.Snapshot()
}

func (c *Controller) ToggleFavorite(s *Session, id string) State {
	return s.update(func(st *State) {
		st.Favorites = toggle(st.Favorites, id)
	})
}

func browseMessage(err error, genre string) string {
	if errors.Is(err, core.ErrNoMovies) {
		return fmt.Sprintf("No movies found for %s.", genre)
	}
	return msgBrowseFailed
}

func searchMessage(err error) string {
	if msg := metadata.ProviderMessage(err); msg != "" {
		return msg
	}
	if errors.Is(err, core.ErrNoMovies) || errors.Is(err, metadata.ErrNoResults) {
		return msgSearchEmpty
	}
	return msgSearchFailed
}
