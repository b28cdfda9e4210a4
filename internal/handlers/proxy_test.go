package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"flicks/internal/config"
	"flicks/internal/utils"
)

func proxyConfig(omdbURL, ytURL string) func() *config.Config {
	cfg := &config.Config{}
	cfg.Metadata.OMDb.BaseURL = omdbURL
	cfg.Metadata.OMDb.APIKey = "server-key"
	cfg.Trailers.YouTube.BaseURL = ytURL
	cfg.Trailers.YouTube.APIKey = "yt-server-key"
	return func() *config.Config { return cfg }
}

func TestProxyInjectsMissingKey(t *testing.T) {
	var gotKey, gotSearch string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("apikey")
		gotSearch = r.URL.Query().Get("s")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"Response":"True","Search":[]}`))
	}))
	defer upstream.Close()

	p := NewProxyHandler(proxyConfig(upstream.URL+"/", ""), NewIPRateLimiter(rate.Inf, 1), nil, "", utils.Discard())

	rec := httptest.NewRecorder()
	p.OMDb(rec, httptest.NewRequest(http.MethodGet, "/api/omdb/?s=dune&type=movie", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "server-key", gotKey)
	assert.Equal(t, "dune", gotSearch)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rec.Body)
	assert.JSONEq(t, `{"Response":"True","Search":[]}`, string(body))
}

func TestProxyKeepsCallerKey(t *testing.T) {
	var gotKey string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer upstream.Close()

	p := NewProxyHandler(proxyConfig("", upstream.URL), NewIPRateLimiter(rate.Inf, 1), nil, "", utils.Discard())

	rec := httptest.NewRecorder()
	p.YouTube(rec, httptest.NewRequest(http.MethodGet, "/api/youtube/search?q=dune&key=caller-key", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "caller-key", gotKey)
}

func TestProxyRateLimitsPerIP(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	p := NewProxyHandler(proxyConfig(upstream.URL, ""), NewIPRateLimiter(rate.Every(time.Hour), 2), nil, "", utils.Discard())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/omdb/?i=tt1", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		p.OMDb(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/api/omdb/?i=tt1", nil)
	other.RemoteAddr = "198.51.100.1:5555"
	rec := httptest.NewRecorder()
	p.OMDb(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProxyInternalTokenSkipsLimit(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(utils.InternalHeader))
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	p := NewProxyHandler(proxyConfig(upstream.URL, ""), NewIPRateLimiter(rate.Every(time.Hour), 1), nil, "secret", utils.Discard())

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/omdb/?i=tt1", nil)
		req.RemoteAddr = "127.0.0.1:40000"
		if token != "" {
			req.Header.Set(utils.InternalHeader, token)
		}
		rec := httptest.NewRecorder()
		p.OMDb(rec, req)
		return rec.Code
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, send("secret"))
	}
	assert.Equal(t, http.StatusOK, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send("guess"))
}

func TestProxyIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	p := NewProxyHandler(proxyConfig(upstream.URL, ""), NewIPRateLimiter(rate.Every(time.Hour), 1), nil, "", utils.Discard())

	codes := make([]int, 0, 3)
	for _, fwd := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/omdb/?i=tt1", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		p.OMDb(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestProxyUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	p := NewProxyHandler(proxyConfig(url, ""), NewIPRateLimiter(rate.Inf, 1), nil, "", utils.Discard())

	rec := httptest.NewRecorder()
	p.OMDb(rec, httptest.NewRequest(http.MethodGet, "/api/omdb/?s=dune", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "service unavailable")
}

func TestLimiterPrune(t *testing.T) {
	rl := NewIPRateLimiter(rate.Inf, 1)
	rl.Allow("203.0.113.7")

	rl.Prune(time.Now())
	assert.Len(t, rl.limiters, 1)

	rl.Prune(time.Now().Add(time.Hour))
	assert.Empty(t, rl.limiters)
}
