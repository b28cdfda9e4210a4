package state

import (
	"time"

	"flicks/internal/core"
	"flicks/internal/models"
)

// Status of the main browse screen.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

type SearchStatus string

const (
	SearchIdle    SearchStatus = "idle"
	SearchRunning SearchStatus = "searching"
	SearchReady   SearchStatus = "ready"
	SearchError   SearchStatus = "error"
)

type Search struct {
	Query   string                `json:"query"`
	Status  SearchStatus          `json:"status"`
	Results []models.MovieDetails `json:"results"`
	Error   string                `json:"error,omitempty"`
}

// State is an immutable snapshot of one session's view. Transitions build a
// new snapshot and replace whole fields; slices are never written in place.
type State struct {
	Status    Status                `json:"status"`
	Genre     string                `json:"genre"`
	Movies    []models.MovieDetails `json:"movies"`
	Trending  []models.MovieDetails `json:"trending"`
	Degraded  bool                  `json:"degraded"`
	Error     string                `json:"error,omitempty"`
	Search    Search                `json:"search"`
	Selected  *models.MovieDetails  `json:"selected,omitempty"`
	Detail    DetailStatus          `json:"detail"`
	Favorites []string              `json:"favorites"`
	UpdatedAt time.Time             `json:"updated_at"`
}

type DetailStatus struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

func initialState() State {
	return State{
		Status:    StatusIdle,
		Genre:     models.GenreAll,
		Search:    Search{Status: SearchIdle},
		Favorites: []string{},
		UpdatedAt: time.Now(),
	}
}

// Filtered is the browsable list narrowed to the selected genre.
func Filtered(s State) []models.MovieDetails {
	return core.FilterByGenre(s.Movies, s.Genre)
}

// ShowSearch reports whether the search sub-flow owns the main display.
func ShowSearch(s State) bool {
	return s.Search.Status == SearchRunning || len(s.Search.Results) > 0
}

func IsFavorite(s State, id string) bool {
	for _, fav := range s.Favorites {
		if fav == id {
			return true
		}
	}
	return false
}

// FavoriteMovies resolves the favorite ids, in the order they were added,
// against every movie the session currently holds. Ids with no movie in
// the pool are skipped.
func FavoriteMovies(s State) []models.MovieDetails {
	pool := make(map[string]models.MovieDetails)
	remember := func(movies []models.MovieDetails) {
		for _, m := range movies {
			if _, ok := pool[m.ID]; !ok {
				pool[m.ID] = m
			}
		}
	}
	remember(s.Movies)
	remember(s.Trending)
	remember(s.Search.Results)
	if s.Selected != nil {
		remember([]models.MovieDetails{*s.Selected})
	}

	favorites := make([]models.MovieDetails, 0, len(s.Favorites))
	for _, id := range s.Favorites {
		if m, ok := pool[id]; ok {
			favorites = append(favorites, m)
		}
	}
	return favorites
}

func toggle(ids []string, id string) []string {
	next := make([]string, 0, len(ids)+1)
	removed := false
	for _, existing := range ids {
		if existing == id {
			removed = true
			continue
		}
		next = append(next, existing)
	}
	if !removed {
		next = append(next, id)
	}
	return next
}
