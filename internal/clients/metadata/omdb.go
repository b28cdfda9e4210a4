package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"flicks/internal/models"
	"flicks/internal/utils"
)

// DefaultOMDbURL is the provider's public endpoint.
const DefaultOMDbURL = "https://www.omdbapi.com/"

type OMDbClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type omdbMovie struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type omdbSearchResponse struct {
	Search       []omdbMovie `json:"Search"`
	TotalResults string      `json:"totalResults"`
	Response     string      `json:"Response"`
	Error        string      `json:"Error"`
}

type omdbDetailResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
	BoxOffice  string `json:"BoxOffice"`
	Production string `json:"Production"`
	Website    string `json:"Website"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// NewOMDbClient creates a client for baseURL, which is either the provider
// itself or a same-origin proxy path that forwards to it.
func NewOMDbClient(baseURL, apiKey string, timeout time.Duration) *OMDbClient {
	if baseURL == "" {
		baseURL = DefaultOMDbURL
	}
	return &OMDbClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetTransport replaces the round tripper used for provider calls.
func (c *OMDbClient) SetTransport(rt http.RoundTripper) {
	c.httpClient.Transport = rt
}

func (c *OMDbClient) sendRequest(ctx context.Context, params url.Values, target interface{}) error {
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create OMDb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query OMDb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: c.baseURL, StatusCode: resp.StatusCode}
	}

	return utils.DecodeJSON(resp, target)
}

// SearchByTerm returns the provider's matches for term, in provider order.
func (c *OMDbClient) SearchByTerm(ctx context.Context, term string) ([]models.MovieSummary, error) {
	params := url.Values{}
	params.Set("s", term)
	params.Set("type", "movie")

	var searchResp omdbSearchResponse
	if err := c.sendRequest(ctx, params, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to search OMDb for '%s': %w", term, err)
	}

	if searchResp.Response != "True" {
		return nil, &ProviderError{Message: searchResp.Error, Err: ErrNoResults}
	}
	if len(searchResp.Search) == 0 {
		return nil, ErrNoResults
	}

	results := make([]models.MovieSummary, 0, len(searchResp.Search))
	for _, m := range searchResp.Search {
		if m.ImdbID == "" {
			continue
		}
		results = append(results, models.MovieSummary{
			ID:        m.ImdbID,
			Title:     m.Title,
			PosterURL: m.Poster,
			Year:      m.Year,
		})
	}
	return results, nil
}

// GetDetails looks up one movie by its provider id.
func (c *OMDbClient) GetDetails(ctx context.Context, id string, plot Plot) (*models.MovieDetails, error) {
	if plot == "" {
		plot = PlotShort
	}
	params := url.Values{}
	params.Set("i", id)
	params.Set("plot", string(plot))

	var detail omdbDetailResponse
	if err := c.sendRequest(ctx, params, &detail); err != nil {
		return nil, fmt.Errorf("failed to get OMDb details for %s: %w", id, err)
	}

	if detail.Response != "True" {
		return nil, &ProviderError{Message: detail.Error, Err: ErrNotFound}
	}

	return &models.MovieDetails{
		MovieSummary: models.MovieSummary{
			ID:        detail.ImdbID,
			Title:     detail.Title,
			PosterURL: detail.Poster,
			Year:      detail.Year,
			Genre:     detail.Genre,
		},
		Rating:     detail.ImdbRating,
		Plot:       detail.Plot,
		Director:   detail.Director,
		Writer:     detail.Writer,
		Actors:     detail.Actors,
		Runtime:    detail.Runtime,
		Language:   detail.Language,
		Country:    detail.Country,
		Awards:     detail.Awards,
		BoxOffice:  detail.BoxOffice,
		Production: detail.Production,
		Website:    detail.Website,
	}, nil
}
