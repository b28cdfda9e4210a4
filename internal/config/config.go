package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"flicks/internal/utils"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"

	DefaultOMDbKey = "4a3b711b"
)

type Config struct {
	App struct {
		Port      int    `yaml:"port"`
		DataPath  string `yaml:"data_path"`
		Debug     bool   `yaml:"debug"`
		Mode      string `yaml:"mode"` // 'development' or 'production'
		PublicURL string `yaml:"public_url"`
	} `yaml:"app"`

	Metadata struct {
		OMDb struct {
			APIKey    string `yaml:"api_key"`
			BaseURL   string `yaml:"base_url"`
			ProxyPath string `yaml:"proxy_path"`
		} `yaml:"omdb"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"metadata"`

	Trailers struct {
		YouTube struct {
			// Empty disables trailer lookup; the detail modal shows the search link.
			APIKey    string `yaml:"api_key"`
			BaseURL   string `yaml:"base_url"`
			ProxyPath string `yaml:"proxy_path"`
		} `yaml:"youtube"`
	} `yaml:"trailers"`

	Flows struct {
		TrendingTerms   []string `yaml:"trending_terms"`
		GenericTerms    []string `yaml:"generic_terms"`
		PerTermLimit    int      `yaml:"per_term_limit"`
		ResolveTrending bool     `yaml:"resolve_trending"`
		MaxConcurrency  int      `yaml:"max_concurrency"`
	} `yaml:"flows"`

	Scheduler struct {
		TrendingRefresh string `yaml:"trending_refresh"`
		SessionPrune    string `yaml:"session_prune"`
	} `yaml:"scheduler"`

	Sessions struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"sessions"`

	Proxy struct {
		RatePerSecond  float64  `yaml:"rate_per_second"`
		Burst          int      `yaml:"burst"`
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"proxy"`

	Notifications struct {
		Pushbullet struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"pushbullet"`
	} `yaml:"notifications"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// A .env next to the config file is optional; real environment wins.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.App.Port = 8081
	cfg.App.DataPath = "./data"
	cfg.App.Debug = false
	cfg.App.Mode = ModeDevelopment

	cfg.Metadata.OMDb.APIKey = DefaultOMDbKey
	cfg.Metadata.OMDb.BaseURL = "https://www.omdbapi.com/"
	cfg.Metadata.OMDb.ProxyPath = "/api/omdb/"
	cfg.Metadata.Timeout = 10 * time.Second

	cfg.Trailers.YouTube.BaseURL = "https://www.googleapis.com/youtube/v3/search"
	cfg.Trailers.YouTube.ProxyPath = "/api/youtube/search"

	cfg.Flows.TrendingTerms = []string{"avengers", "inception", "interstellar", "joker", "dune"}
	cfg.Flows.GenericTerms = []string{"star", "love", "war", "night", "world"}
	cfg.Flows.PerTermLimit = 5
	cfg.Flows.ResolveTrending = true
	cfg.Flows.MaxConcurrency = 8

	cfg.Scheduler.TrendingRefresh = "@every 30m"
	cfg.Scheduler.SessionPrune = "@every 10m"

	cfg.Sessions.TTL = 2 * time.Hour

	cfg.Proxy.RatePerSecond = 20
	cfg.Proxy.Burst = 50
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("OMDB_API_KEY"); v != "" {
		cfg.Metadata.OMDb.APIKey = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		cfg.Trailers.YouTube.APIKey = v
	}
	if v := os.Getenv("PUSHBULLET_API_KEY"); v != "" {
		cfg.Notifications.Pushbullet.APIKey = v
	}
	if v := os.Getenv("FLICKS_TRUSTED_PROXIES"); v != "" {
		cfg.Proxy.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("FLICKS_MODE"); v != "" {
		cfg.App.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("FLICKS_PUBLIC_URL"); v != "" {
		cfg.App.PublicURL = v
	}
	if v := os.Getenv("FLICKS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FLICKS_PORT %q: %w", v, err)
		}
		cfg.App.Port = port
	}
	if v := os.Getenv("FLICKS_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FLICKS_DEBUG %q: %w", v, err)
		}
		cfg.App.Debug = debug
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.App.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		return fmt.Errorf("unsupported mode: %s", c.App.Mode)
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.App.Port)
	}
	if c.Flows.PerTermLimit <= 0 {
		return fmt.Errorf("flows.per_term_limit must be positive")
	}
	if c.Flows.MaxConcurrency <= 0 {
		return fmt.Errorf("flows.max_concurrency must be positive")
	}
	if len(c.Flows.GenericTerms) == 0 {
		return fmt.Errorf("flows.generic_terms must not be empty")
	}
	if c.Proxy.RatePerSecond <= 0 || c.Proxy.Burst <= 0 {
		return fmt.Errorf("proxy rate limit must be positive")
	}
	if _, err := utils.ParseTrustedProxies(c.Proxy.TrustedProxies); err != nil {
		return err
	}
	return nil
}

// OMDbURL is the endpoint the metadata client calls: the provider itself in
// development, the same-origin proxy path in production.
func (c *Config) OMDbURL() string {
	if c.App.Mode == ModeProduction {
		return c.PublicBase() + c.Metadata.OMDb.ProxyPath
	}
	return c.Metadata.OMDb.BaseURL
}

func (c *Config) YouTubeURL() string {
	if c.App.Mode == ModeProduction {
		return c.PublicBase() + c.Trailers.YouTube.ProxyPath
	}
	return c.Trailers.YouTube.BaseURL
}

// PublicBase falls back to the local listener when no public URL is set.
func (c *Config) PublicBase() string {
	if c.App.PublicURL != "" {
		return strings.TrimRight(c.App.PublicURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.App.Port)
}
