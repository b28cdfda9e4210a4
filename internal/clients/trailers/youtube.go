package trailers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"flicks/internal/utils"
)

// DefaultYouTubeURL is the video provider's search endpoint.
const DefaultYouTubeURL = "https://www.googleapis.com/youtube/v3/search"

type YouTubeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

func NewYouTubeClient(baseURL, apiKey string, timeout time.Duration) *YouTubeClient {
	if baseURL == "" {
		baseURL = DefaultYouTubeURL
	}
	return &YouTubeClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetTransport replaces the round tripper used for provider calls.
func (c *YouTubeClient) SetTransport(rt http.RoundTripper) {
	c.httpClient.Transport = rt
}

// Enabled reports whether the client has a key to search with.
func (c *YouTubeClient) Enabled() bool {
	return c.apiKey != ""
}

// SearchVideo returns the id of the top video for query, or "" when the
// provider found nothing.
func (c *YouTubeClient) SearchVideo(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("key", c.apiKey)
	params.Set("type", "video")
	params.Set("maxResults", "1")

	searchURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create YouTube request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to search YouTube: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("YouTube search failed with status: %d", resp.StatusCode)
	}

	var searchResp youtubeSearchResponse
	if err := utils.DecodeJSON(resp, &searchResp); err != nil {
		return "", fmt.Errorf("failed to decode YouTube response: %w", err)
	}

	if len(searchResp.Items) == 0 {
		return "", nil
	}
	return searchResp.Items[0].ID.VideoID, nil
}
