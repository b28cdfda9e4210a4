package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"flicks/internal/clients/metadata"
	"flicks/internal/clients/notifications"
	"flicks/internal/clients/trailers"
	"flicks/internal/config"
	"flicks/internal/utils"
)

// flowSettings is the slice of config the aggregation flows read.
type flowSettings struct {
	trendingTerms   []string
	genericTerms    []string
	perTermLimit    int
	resolveTrending bool
	maxConcurrency  int
}

func newFlowSettings(cfg *config.Config) flowSettings {
	return flowSettings{
		trendingTerms:   append([]string(nil), cfg.Flows.TrendingTerms...),
		genericTerms:    append([]string(nil), cfg.Flows.GenericTerms...),
		perTermLimit:    cfg.Flows.PerTermLimit,
		resolveTrending: cfg.Flows.ResolveTrending,
		maxConcurrency:  cfg.Flows.MaxConcurrency,
	}
}

type Manager struct {
	mu        sync.RWMutex
	config    *config.Config
	metadata  metadata.Client
	trailers  *trailers.Finder
	flows     flowSettings
	logger    *utils.Logger
	scheduler *cron.Cron
	trending  *trendingCache
	notifier  notifications.Notifier

	// sent by our own clients to the same-origin proxy
	internalToken string
}

// NewManager wires the OMDb and YouTube clients for the configured mode.
func NewManager(cfg *config.Config, logger *utils.Logger) *Manager {
	token := uuid.NewString()
	meta, searcher := providersFor(cfg, token)
	m := NewManagerWithClients(cfg, meta, searcher, logger)
	m.notifier = notifierFor(cfg, logger)
	m.internalToken = token
	return m
}

// NewManagerWithClients is NewManager with caller-supplied providers.
func NewManagerWithClients(cfg *config.Config, meta metadata.Client, searcher trailers.Searcher, logger *utils.Logger) *Manager {
	return &Manager{
		config:    cfg,
		metadata:  meta,
		trailers:  trailers.NewFinder(searcher, logger.Named("trailers")),
		flows:     newFlowSettings(cfg),
		logger:    logger,
		scheduler: cron.New(),
		trending:  &trendingCache{},
	}
}

// providersFor builds the provider clients. In production they call the
// proxy paths and carry the internal token so the proxy does not rate
// limit the server's own fan-out.
func providersFor(cfg *config.Config, token string) (metadata.Client, trailers.Searcher) {
	meta := metadata.NewOMDbClient(cfg.OMDbURL(), cfg.Metadata.OMDb.APIKey, cfg.Metadata.Timeout)
	searcher := trailers.NewYouTubeClient(cfg.YouTubeURL(), cfg.Trailers.YouTube.APIKey, cfg.Metadata.Timeout)
	if cfg.App.Mode == config.ModeProduction && token != "" {
		meta.SetTransport(&utils.InternalTransport{Token: token})
		searcher.SetTransport(&utils.InternalTransport{Token: token})
	}
	return meta, searcher
}

// InternalToken identifies proxy requests sent by this process. Empty for
// managers built with caller-supplied clients.
func (m *Manager) InternalToken() string {
	return m.internalToken
}

func notifierFor(cfg *config.Config, logger *utils.Logger) notifications.Notifier {
	if cfg.Notifications.Pushbullet.APIKey == "" {
		return nil
	}
	return notifications.NewPushbulletClient(cfg.Notifications.Pushbullet.APIKey, logger.Named("pushbullet"))
}

// SetNotifier replaces the notifier told about degraded trending data.
// A nil notifier disables alerts.
func (m *Manager) SetNotifier(n notifications.Notifier) {
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

func (m *Manager) currentNotifier() notifications.Notifier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notifier
}

// TestNotifier checks the configured notifier's credentials.
func (m *Manager) TestNotifier() error {
	n := m.currentNotifier()
	if n == nil {
		return fmt.Errorf("no notifier configured")
	}
	return n.Test()
}

// ApplyConfig swaps providers and flow settings for a reloaded config.
// The trending snapshot is dropped and rebuilt on next use.
func (m *Manager) ApplyConfig(cfg *config.Config) {
	meta, searcher := providersFor(cfg, m.internalToken)

	m.mu.Lock()
	m.config = cfg
	m.metadata = meta
	m.trailers = trailers.NewFinder(searcher, m.logger.Named("trailers"))
	m.flows = newFlowSettings(cfg)
	m.notifier = notifierFor(cfg, m.logger)
	m.mu.Unlock()

	m.trending.invalidate()
	m.logger.Info("Providers reconfigured", "mode", cfg.App.Mode, "omdb", cfg.OMDbURL())
}

func (m *Manager) Config() *config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *Manager) clients() (metadata.Client, *trailers.Finder, flowSettings) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata, m.trailers, m.flows
}

// AddJob registers fn on the scheduler under a cron spec.
func (m *Manager) AddJob(spec string, fn func()) error {
	if _, err := m.scheduler.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

func (m *Manager) StartScheduler() error {
	cfg := m.Config()
	if err := m.AddJob(cfg.Scheduler.TrendingRefresh, m.refreshTrending); err != nil {
		return err
	}
	m.scheduler.Start()
	m.logger.Info("Scheduler started", "trending_refresh", cfg.Scheduler.TrendingRefresh)
	return nil
}

func (m *Manager) Stop() {
	if m.scheduler != nil {
		<-m.scheduler.Stop().Done()
	}
}

type Status struct {
	Mode             string    `json:"mode"`
	TrailersEnabled  bool      `json:"trailers_enabled"`
	TrendingCount    int       `json:"trending_count"`
	TrendingDegraded bool      `json:"trending_degraded"`
	TrendingBuiltAt  time.Time `json:"trending_built_at,omitempty"`
}

func (m *Manager) GetSystemStatus() Status {
	cfg := m.Config()
	status := Status{
		Mode:            cfg.App.Mode,
		TrailersEnabled: cfg.Trailers.YouTube.APIKey != "",
	}
	if snap := m.trending.peek(); snap != nil {
		status.TrendingCount = len(snap.Movies)
		status.TrendingDegraded = snap.Degraded
		status.TrendingBuiltAt = snap.BuiltAt
	}
	return status
}
