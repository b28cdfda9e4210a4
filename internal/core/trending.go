package core

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"flicks/internal/models"
)

// degradedRetry is how long a fallback snapshot is served before the next
// caller tries the provider again.
const degradedRetry = time.Minute

// TrendingSnapshot is the trending list shared by every session.
type TrendingSnapshot struct {
	Movies   []models.MovieDetails
	Degraded bool
	BuiltAt  time.Time
}

type trendingCache struct {
	mu      sync.Mutex
	current *TrendingSnapshot
	gen     uint64
	group   singleflight.Group

	// survives invalidate so alerts fire on transitions only
	wasDegraded bool
}

func (c *trendingCache) peek() *TrendingSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// fresh is the snapshot to serve without rebuilding, or nil.
func (c *trendingCache) fresh(now time.Time) *TrendingSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	if c.current.Degraded && now.Sub(c.current.BuiltAt) >= degradedRetry {
		return nil
	}
	return c.current
}

func (c *trendingCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// storeIf keeps snap only if no invalidate happened since gen was read.
// A kept snap's degraded flag is compared with the previous kept one.
func (c *trendingCache) storeIf(gen uint64, snap *TrendingSnapshot) (stored, changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false, false
	}
	c.current = snap
	changed = c.wasDegraded != snap.Degraded
	c.wasDegraded = snap.Degraded
	return true, changed
}

func (c *trendingCache) invalidate() {
	c.mu.Lock()
	c.gen++
	c.current = nil
	c.mu.Unlock()
}

// Trending returns the current snapshot, building it on first use and
// retrying the provider once a fallback snapshot has aged.
// Concurrent callers share a single build.
func (m *Manager) Trending(ctx context.Context) *TrendingSnapshot {
	if snap := m.trending.fresh(time.Now()); snap != nil {
		return snap
	}
	return m.rebuildTrending(ctx)
}

func (m *Manager) rebuildTrending(ctx context.Context) *TrendingSnapshot {
	// Shared by every waiter, so detached from the first caller's cancellation.
	buildCtx := context.WithoutCancel(ctx)
	gen := m.trending.generation()
	v, _, _ := m.trending.group.Do("trending-"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		movies, degraded := m.BuildTrending(buildCtx)
		snap := &TrendingSnapshot{Movies: movies, Degraded: degraded, BuiltAt: time.Now()}
		stored, changed := m.trending.storeIf(gen, snap)
		if !stored {
			m.logger.Debug("Discarding trending build from before a reconfigure")
		}
		if changed {
			m.notifyTrending(snap)
		}
		return snap, nil
	})
	return v.(*TrendingSnapshot)
}

func (m *Manager) refreshTrending() {
	snap := m.rebuildTrending(context.Background())
	m.logger.Info("Trending refreshed", "movies", len(snap.Movies), "degraded", snap.Degraded)
}

func (m *Manager) notifyTrending(snap *TrendingSnapshot) {
	n := m.currentNotifier()
	if snap.Degraded {
		m.logger.Warn("Trending degraded, serving fallback movies")
	} else {
		m.logger.Info("Trending recovered", "movies", len(snap.Movies))
	}
	if n == nil {
		return
	}
	if snap.Degraded {
		n.NotifyDegraded("no trending movies could be resolved")
	} else {
		n.NotifyRecovered(len(snap.Movies))
	}
}
