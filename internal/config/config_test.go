package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flicks/internal/utils"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"OMDB_API_KEY", "YOUTUBE_API_KEY", "FLICKS_MODE", "FLICKS_PORT", "FLICKS_PUBLIC_URL", "FLICKS_DEBUG", "PUSHBULLET_API_KEY", "FLICKS_TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, ModeDevelopment, cfg.App.Mode)
	assert.Equal(t, DefaultOMDbKey, cfg.Metadata.OMDb.APIKey)
	assert.Empty(t, cfg.Trailers.YouTube.APIKey)
	assert.Equal(t, []string{"avengers", "inception", "interstellar", "joker", "dune"}, cfg.Flows.TrendingTerms)
	assert.Equal(t, 5, cfg.Flows.PerTermLimit)
	assert.True(t, cfg.Flows.ResolveTrending)
	assert.Equal(t, 2*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, "https://www.omdbapi.com/", cfg.OMDbURL())
}

func TestLoadYAMLAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 9000
  public_url: https://flicks.example.com/
metadata:
  timeout: 3s
flows:
  generic_terms: [space]
  per_term_limit: 2
notifications:
  pushbullet:
    api_key: yaml-pb
`), 0o644))

	t.Setenv("OMDB_API_KEY", "env-key")
	t.Setenv("FLICKS_MODE", "PRODUCTION")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, 3*time.Second, cfg.Metadata.Timeout)
	assert.Equal(t, []string{"space"}, cfg.Flows.GenericTerms)
	assert.Equal(t, "env-key", cfg.Metadata.OMDb.APIKey)
	assert.Equal(t, ModeProduction, cfg.App.Mode)
	assert.Equal(t, "https://flicks.example.com/api/omdb/", cfg.OMDbURL())
	assert.Equal(t, "https://flicks.example.com/api/youtube/search", cfg.YouTubeURL())
	assert.Equal(t, "yaml-pb", cfg.Notifications.Pushbullet.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("YOUTUBE_API_KEY")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("YOUTUBE_API_KEY=from-dotenv\n"), 0o644))

	cfg, err := Load(filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Trailers.YouTube.APIKey)
	os.Unsetenv("YOUTUBE_API_KEY")
}

func TestProductionWithoutPublicURLUsesListener(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLICKS_MODE", "production")
	t.Setenv("FLICKS_PORT", "8090")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8090/api/omdb/", cfg.OMDbURL())
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	t.Setenv("FLICKS_MODE", "staging")
	_, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	assert.ErrorContains(t, err, "unsupported mode")

	t.Setenv("FLICKS_MODE", "")
	t.Setenv("FLICKS_PORT", "not-a-port")
	_, err = Load(filepath.Join(t.TempDir(), "config.yml"))
	assert.ErrorContains(t, err, "invalid FLICKS_PORT")

	t.Setenv("FLICKS_PORT", "")
	t.Setenv("FLICKS_TRUSTED_PROXIES", "10.0.0.0/8,nginx")
	_, err = Load(filepath.Join(t.TempDir(), "config.yml"))
	assert.ErrorContains(t, err, "invalid trusted proxy")

	t.Setenv("FLICKS_TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Proxy.TrustedProxies)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 9000\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, utils.Discard(), func(cfg *Config) { changes <- cfg }))

	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 9001\n"), 0o644))

	select {
	case cfg := <-changes:
		assert.Equal(t, 9001, cfg.App.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}
