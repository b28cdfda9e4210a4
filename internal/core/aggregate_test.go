package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flicks/internal/clients/metadata"
	"flicks/internal/config"
	"flicks/internal/models"
	"flicks/internal/utils"
)

var errTransport = errors.New("dial tcp: connection refused")

type fakeMetadata struct {
	mu        sync.Mutex
	searches  map[string][]models.MovieSummary
	searchErr map[string]error
	details   map[string]models.MovieDetails
	detailErr error
	detailIDs []string
	plots     []metadata.Plot
}

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{
		searches:  map[string][]models.MovieSummary{},
		searchErr: map[string]error{},
		details:   map[string]models.MovieDetails{},
	}
}

func (f *fakeMetadata) SearchByTerm(ctx context.Context, term string) ([]models.MovieSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.searchErr[term]; ok {
		return nil, err
	}
	results, ok := f.searches[term]
	if !ok {
		return nil, &metadata.ProviderError{Message: "Movie not found!", Err: metadata.ErrNoResults}
	}
	return results, nil
}

func (f *fakeMetadata) GetDetails(ctx context.Context, id string, plot metadata.Plot) (*models.MovieDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailIDs = append(f.detailIDs, id)
	f.plots = append(f.plots, plot)
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	details, ok := f.details[id]
	if !ok {
		return nil, &metadata.ProviderError{Message: "Incorrect IMDb ID.", Err: metadata.ErrNotFound}
	}
	return &details, nil
}

func (f *fakeMetadata) add(term string, movies ...models.MovieDetails) {
	for _, movie := range movies {
		f.searches[term] = append(f.searches[term], movie.MovieSummary)
		f.details[movie.ID] = movie
	}
}

type fakeSearcher map[string]string

func (f fakeSearcher) SearchVideo(ctx context.Context, query string) (string, error) {
	return f[query], nil
}

func movie(id, title, genre string) models.MovieDetails {
	return models.MovieDetails{
		MovieSummary: models.MovieSummary{ID: id, Title: title, Year: "2020", Genre: genre, PosterURL: models.NoImage},
		Plot:         title + " plot",
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Mode = config.ModeDevelopment
	cfg.Flows.TrendingTerms = []string{"avengers", "inception", "interstellar", "joker", "dune"}
	cfg.Flows.GenericTerms = []string{"star", "love"}
	cfg.Flows.PerTermLimit = 2
	cfg.Flows.ResolveTrending = true
	cfg.Flows.MaxConcurrency = 4
	cfg.Scheduler.TrendingRefresh = "@every 30m"
	return cfg
}

func newTestManager(meta *fakeMetadata, videos fakeSearcher) *Manager {
	if videos == nil {
		videos = fakeSearcher{}
	}
	return NewManagerWithClients(testConfig(), meta, videos, utils.Discard())
}

func TestBuildTrendingFallsBackWhenEveryTermFails(t *testing.T) {
	meta := newFakeMetadata()
	for _, term := range testConfig().Flows.TrendingTerms {
		meta.searchErr[term] = errTransport
	}

	movies, degraded := newTestManager(meta, nil).BuildTrending(context.Background())

	assert.True(t, degraded)
	assert.Equal(t, FallbackMovies(), movies)
	require.Len(t, movies, 3)
	assert.Equal(t, "tt0111161", movies[0].ID)
}

func TestBuildTrendingKeepsSeedOrderAndDedupes(t *testing.T) {
	meta := newFakeMetadata()
	meta.add("avengers", movie("tt0848228", "The Avengers", "Action, Sci-Fi"), movie("tt4154796", "Avengers: Endgame", "Action"))
	meta.add("inception", movie("tt1375666", "Inception", "Action, Sci-Fi"))
	meta.add("interstellar", movie("tt0848228", "The Avengers", "Action, Sci-Fi"))
	meta.searchErr["joker"] = errTransport
	meta.add("dune", movie("tt1160419", "Dune", "Adventure, Drama"))

	movies, degraded := newTestManager(meta, nil).BuildTrending(context.Background())

	assert.False(t, degraded)
	ids := make([]string, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"tt0848228", "tt1375666", "tt1160419"}, ids)
	assert.Equal(t, "Inception plot", movies[1].Plot)
}

func TestBuildTrendingKeepsSummaryWhenResolutionFails(t *testing.T) {
	meta := newFakeMetadata()
	meta.add("dune", movie("tt1160419", "Dune", "Adventure"))
	meta.detailErr = errTransport

	movies, degraded := newTestManager(meta, nil).BuildTrending(context.Background())

	assert.False(t, degraded)
	require.Len(t, movies, 1)
	assert.Equal(t, "Dune", movies[0].Title)
	assert.Empty(t, movies[0].Plot)
}

func TestTrendingSnapshotIsShared(t *testing.T) {
	meta := newFakeMetadata()
	meta.add("dune", movie("tt1160419", "Dune", "Adventure"))
	m := newTestManager(meta, nil)

	first := m.Trending(context.Background())
	second := m.Trending(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, 1, m.GetSystemStatus().TrendingCount)

	m.ApplyConfig(testConfig())
	assert.Nil(t, m.trending.peek())
}

func TestBrowseAllUsesGenericTerms(t *testing.T) {
	meta := newFakeMetadata()
	meta.add("star", movie("tt0076759", "Star Wars", "Action, Adventure"), movie("tt0796366", "Star Trek", "Action"), movie("tt0000003", "Third Star", "Drama"))
	meta.add("love", movie("tt0796366", "Star Trek", "Action"), movie("tt0314331", "Love Actually", "Comedy, Romance"))

	movies, err := newTestManager(meta, nil).Browse(context.Background(), models.GenreAll)
	require.NoError(t, err)

	ids := make([]string, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	// third "star" hit is past the per-term cap, the repeated Star Trek is dropped
	assert.Equal(t, []string{"tt0076759", "tt0796366", "tt0314331"}, ids)
	for _, plot := range meta.plots {
		assert.Equal(t, metadata.PlotShort, plot)
	}
}

func TestBrowseGenreSearchesGenreName(t *testing.T) {
	meta := newFakeMetadata()
	meta.add("Western", movie("tt0060196", "The Good, the Bad and the Ugly", "Adventure, Western"))

	movies, err := newTestManager(meta, nil).Browse(context.Background(), "Western")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "tt0060196", movies[0].ID)
}

func TestBrowseEmptyIsAnError(t *testing.T) {
	meta := newFakeMetadata()

	_, err := newTestManager(meta, nil).Browse(context.Background(), "Horror")
	assert.ErrorIs(t, err, ErrNoMovies)
}

func TestBrowseTransportFailure(t *testing.T) {
	meta := newFakeMetadata()
	meta.searchErr["star"] = errTransport
	meta.searchErr["love"] = errTransport

	_, err := newTestManager(meta, nil).Browse(context.Background(), models.GenreAll)
	require.Error(t, err)
	assert.ErrorIs(t, err, errTransport)
	assert.NotErrorIs(t, err, ErrNoMovies)
}

func TestBrowseUnknownGenre(t *testing.T) {
	_, err := newTestManager(newFakeMetadata(), nil).Browse(context.Background(), "Musicals")
	assert.ErrorIs(t, err, ErrUnknownGenre)
}

func TestSearchDune(t *testing.T) {
	meta := newFakeMetadata()
	meta.add("dune", movie("tt1160419", "Dune", "Action, Adventure, Drama"))

	movies, err := newTestManager(meta, nil).Search(context.Background(), "dune")
	require.NoError(t, err)

	assert.Equal(t, []string{"tt1160419"}, meta.detailIDs)
	require.Len(t, movies, 1)
	assert.Equal(t, "Dune", movies[0].Title)
}

func TestSearchProviderMessage(t *testing.T) {
	meta := newFakeMetadata()

	movies, err := newTestManager(meta, nil).Search(context.Background(), "zzzzqx")

	assert.Empty(t, movies)
	assert.ErrorIs(t, err, metadata.ErrNoResults)
	assert.Equal(t, "Movie not found!", metadata.ProviderMessage(err))
}

func TestSearchDropsUnresolvedMatches(t *testing.T) {
	meta := newFakeMetadata()
	meta.add("heat", movie("tt0113277", "Heat", "Crime"))
	meta.searches["heat"] = append(meta.searches["heat"], models.MovieSummary{ID: "tt9999999", Title: "Ghost"})

	movies, err := newTestManager(meta, nil).Search(context.Background(), "heat")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "tt0113277", movies[0].ID)
}

func TestSearchNothingResolved(t *testing.T) {
	meta := newFakeMetadata()
	meta.searches["heat"] = []models.MovieSummary{{ID: "tt9999999", Title: "Ghost"}}

	_, err := newTestManager(meta, nil).Search(context.Background(), "heat")
	assert.ErrorIs(t, err, ErrNoMovies)
}

func TestMovieWithTrailer(t *testing.T) {
	meta := newFakeMetadata()
	meta.add("dune", movie("tt1160419", "Dune", "Adventure"))
	videos := fakeSearcher{"Dune movie trailer": "n9xhJrPXop4"}

	details, err := newTestManager(meta, videos).Movie(context.Background(), "tt1160419")
	require.NoError(t, err)

	assert.Equal(t, "n9xhJrPXop4", details.TrailerID)
	assert.Equal(t, []metadata.Plot{metadata.PlotFull}, meta.plots)
}

func TestMovieWithoutTrailer(t *testing.T) {
	meta := newFakeMetadata()
	meta.add("dune", movie("tt1160419", "Dune", "Adventure"))

	details, err := newTestManager(meta, nil).Movie(context.Background(), "tt1160419")
	require.NoError(t, err)
	assert.Empty(t, details.TrailerID)
}

func TestMovieDetailFailure(t *testing.T) {
	_, err := newTestManager(newFakeMetadata(), nil).Movie(context.Background(), "tt0000000")
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

type recordingNotifier struct {
	mu        sync.Mutex
	degraded  int
	recovered []int
}

func (n *recordingNotifier) NotifyDegraded(reason string) {
	n.mu.Lock()
	n.degraded++
	n.mu.Unlock()
}

func (n *recordingNotifier) NotifyRecovered(movies int) {
	n.mu.Lock()
	n.recovered = append(n.recovered, movies)
	n.mu.Unlock()
}

func (n *recordingNotifier) Test() error { return nil }

func TestTrendingNotifiesOnTransitions(t *testing.T) {
	meta := newFakeMetadata()
	for _, term := range testConfig().Flows.TrendingTerms {
		meta.searchErr[term] = errTransport
	}
	m := newTestManager(meta, nil)
	n := &recordingNotifier{}
	m.SetNotifier(n)

	m.rebuildTrending(context.Background())
	m.rebuildTrending(context.Background())
	assert.Equal(t, 1, n.degraded)
	assert.Empty(t, n.recovered)

	meta.mu.Lock()
	delete(meta.searchErr, "dune")
	meta.mu.Unlock()
	meta.add("dune", movie("tt1160419", "Dune", "Adventure"))

	snap := m.rebuildTrending(context.Background())
	assert.False(t, snap.Degraded)
	assert.Equal(t, 1, n.degraded)
	assert.Equal(t, []int{1}, n.recovered)
}

func TestTestNotifierWithoutNotifier(t *testing.T) {
	m := newTestManager(newFakeMetadata(), nil)
	assert.Error(t, m.TestNotifier())

	m.SetNotifier(&recordingNotifier{})
	assert.NoError(t, m.TestNotifier())
}

func TestDegradedTrendingIsRetriedAfterWindow(t *testing.T) {
	meta := newFakeMetadata()
	for _, term := range testConfig().Flows.TrendingTerms {
		meta.searchErr[term] = errTransport
	}
	m := newTestManager(meta, nil)

	first := m.Trending(context.Background())
	require.True(t, first.Degraded)

	meta.mu.Lock()
	delete(meta.searchErr, "dune")
	meta.mu.Unlock()
	meta.add("dune", movie("tt1160419", "Dune", "Adventure"))

	// still inside the retry window
	assert.Same(t, first, m.Trending(context.Background()))

	first.BuiltAt = time.Now().Add(-degradedRetry)
	second := m.Trending(context.Background())
	assert.False(t, second.Degraded)
	assert.Same(t, second, m.Trending(context.Background()))
}

// gatedMetadata holds every search until release is closed.
type gatedMetadata struct {
	*fakeMetadata
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedMetadata) SearchByTerm(ctx context.Context, term string) ([]models.MovieSummary, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return g.fakeMetadata.SearchByTerm(ctx, term)
}

func TestTrendingBuildStartedBeforeInvalidateIsDiscarded(t *testing.T) {
	inner := newFakeMetadata()
	inner.add("dune", movie("tt1160419", "Dune", "Adventure"))
	meta := &gatedMetadata{fakeMetadata: inner, started: make(chan struct{}), release: make(chan struct{})}
	m := NewManagerWithClients(testConfig(), meta, fakeSearcher{}, utils.Discard())

	done := make(chan *TrendingSnapshot)
	go func() { done <- m.rebuildTrending(context.Background()) }()

	<-meta.started
	m.trending.invalidate()
	close(meta.release)

	stale := <-done
	assert.Len(t, stale.Movies, 1)
	assert.Nil(t, m.trending.peek())

	fresh := m.Trending(context.Background())
	assert.NotSame(t, stale, fresh)
	assert.Same(t, fresh, m.trending.peek())
}
