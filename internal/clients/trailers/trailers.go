package trailers

import (
	"context"
	"fmt"
	"net/url"

	"flicks/internal/utils"
)

// Searcher finds the top video for a free-text query.
type Searcher interface {
	SearchVideo(ctx context.Context, query string) (string, error)
}

// Finder resolves a movie title to a trailer video id.
type Finder struct {
	searcher Searcher
	logger   *utils.Logger
}

func NewFinder(searcher Searcher, logger *utils.Logger) *Finder {
	return &Finder{searcher: searcher, logger: logger}
}

// FindTrailer queries "<title> official trailer", then "<title> movie trailer".
// A transport error ends the lookup with no result; it is logged, never returned.
func (f *Finder) FindTrailer(ctx context.Context, title string) (string, bool) {
	if f.searcher == nil || title == "" {
		return "", false
	}
	if e, ok := f.searcher.(interface{ Enabled() bool }); ok && !e.Enabled() {
		f.logger.Debug("trailer lookup skipped, no video API key", "title", title)
		return "", false
	}

	for _, query := range []string{title + " official trailer", title + " movie trailer"} {
		videoID, err := f.searcher.SearchVideo(ctx, query)
		if err != nil {
			f.logger.Warn("trailer search failed", "query", query, "error", err)
			return "", false
		}
		if videoID != "" {
			f.logger.Debug("trailer found", "title", title, "video_id", videoID)
			return videoID, true
		}
	}

	f.logger.Debug("no trailer found", "title", title)
	return "", false
}

// EmbedURL is the frame source for a trailer.
func EmbedURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s?autoplay=0", videoID)
}

// SearchURL is the external fallback link shown when no trailer was found.
func SearchURL(title string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(title+" official trailer")
}
