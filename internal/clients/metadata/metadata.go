package metadata

import (
	"context"
	"errors"
	"fmt"

	"flicks/internal/models"
)

// Plot selects the plot length returned by a detail lookup.
type Plot string

const (
	PlotShort Plot = "short"
	PlotFull  Plot = "full"
)

// Client is the interface for the movie metadata provider.
type Client interface {
	SearchByTerm(ctx context.Context, term string) ([]models.MovieSummary, error)
	GetDetails(ctx context.Context, id string, plot Plot) (*models.MovieDetails, error)
}

var (
	// ErrNoResults means the provider answered but matched nothing.
	ErrNoResults = errors.New("no results")
	// ErrNotFound means a detail lookup matched no movie.
	ErrNotFound = errors.New("movie not found")
)

// ProviderError carries the message of a provider-reported failure
// (a well-formed response with Response "False").
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("metadata request failed with status: %d", e.StatusCode)
}

// ProviderMessage returns the provider's own error message carried by err, if any.
func ProviderMessage(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return ""
}
