package handlers

import (
	"crypto/subtle"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"flicks/internal/config"
	"flicks/internal/utils"
)

const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
	}
}

func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()
	return entry.limiter.Allow()
}

// Prune evicts limiters not used for a while.
func (rl *IPRateLimiter) Prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterIdle {
			delete(rl.limiters, ip)
		}
	}
}

// ProxyHandler forwards the same-origin provider paths to the real
// providers, adding the configured key when the caller left it out.
// Requests carrying the server's internal token skip the rate limit.
type ProxyHandler struct {
	config        func() *config.Config
	limiter       *IPRateLimiter
	trusted       []*net.IPNet
	internalToken string
	client        *http.Client
	logger        *utils.Logger
}

func NewProxyHandler(cfg func() *config.Config, limiter *IPRateLimiter, trusted []*net.IPNet, internalToken string, logger *utils.Logger) *ProxyHandler {
	return &ProxyHandler{
		config:        cfg,
		limiter:       limiter,
		trusted:       trusted,
		internalToken: internalToken,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

func (p *ProxyHandler) isInternal(r *http.Request) bool {
	if p.internalToken == "" {
		return false
	}
	got := r.Header.Get(utils.InternalHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(p.internalToken)) == 1
}

func (p *ProxyHandler) OMDb(w http.ResponseWriter, r *http.Request) {
	cfg := p.config()
	p.forward(w, r, cfg.Metadata.OMDb.BaseURL, "apikey", cfg.Metadata.OMDb.APIKey)
}

func (p *ProxyHandler) YouTube(w http.ResponseWriter, r *http.Request) {
	cfg := p.config()
	p.forward(w, r, cfg.Trailers.YouTube.BaseURL, "key", cfg.Trailers.YouTube.APIKey)
}

func (p *ProxyHandler) forward(w http.ResponseWriter, r *http.Request, baseURL, keyParam, key string) {
	ip := utils.ClientIP(r, p.trusted)
	if !p.isInternal(r) && !p.limiter.Allow(ip) {
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	target, err := url.Parse(baseURL)
	if err != nil {
		p.logger.Error("Invalid upstream URL", "url", baseURL, "error", err)
		respondError(w, http.StatusBadGateway, "invalid upstream")
		return
	}
	query := r.URL.Query()
	if query.Get(keyParam) == "" && key != "" {
		query.Set(keyParam, key)
	}
	target.RawQuery = query.Encode()

	p.logger.Debug("proxying request", "from", r.URL.Path, "to", target.Host+target.Path, "ip", ip)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to create proxy request")
		return
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Forwarded-For", ip)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("Proxy request failed", "host", target.Host, "error", err)
		respondError(w, http.StatusBadGateway, fmt.Sprintf("service unavailable: %s", target.Host))
		return
	}
	defer resp.Body.Close()

	for _, header := range []string{"Content-Type", "Cache-Control"} {
		if v := resp.Header.Get(header); v != "" {
			w.Header().Set(header, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.logger.Warn("Proxy response copy failed", "error", err)
	}
}
