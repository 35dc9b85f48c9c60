// Package cache memoizes schedule grids per identity with a freshness
// policy, coalesced refreshes and a stale-then-store fallback chain.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/internal/metrics"
	"github.com/Liyanipatel27/attendance-new/pkg/interfaces"
	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

// Config carries the cache policy knobs.
type Config struct {
	MaxAge          time.Duration // staleness threshold for served grids
	RefreshInterval time.Duration // background refresh period
	FetchTimeout    time.Duration // per-fetch bound; expiry counts as source unavailable
	Size            int           // LRU capacity (identities)
}

// entry is one cached week grid. The grid is never mutated after publish;
// replacement swaps the whole entry.
type entry struct {
	grid      *types.ScheduleGrid
	fetchedAt time.Time
}

// fetch tracks an in-flight refresh so concurrent requests for the same
// identity await one underlying fetch instead of duplicating it.
type fetch struct {
	done chan struct{}
	grid *types.ScheduleGrid
	err  error
}

// Cache implements interfaces.GridCache over a primary (sheet) provider and
// a fallback (relational store) provider.
type Cache struct {
	primary  interfaces.ScheduleSource
	fallback interfaces.ScheduleSource
	cfg      Config
	logger   zerolog.Logger

	mu       sync.Mutex
	grids    *lru.Cache[string, *entry]
	inflight map[string]*fetch

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a grid cache. fallback may be nil, in which case a primary
// failure with no stale grid is terminal.
func New(primary, fallback interfaces.ScheduleSource, cfg Config, logger zerolog.Logger) (*Cache, error) {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 30 * time.Second
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 30 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.Size <= 0 {
		cfg.Size = 128
	}
	grids, err := lru.New[string, *entry](cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("creating grid cache: %w", err)
	}
	return &Cache{
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		logger:   logger.With().Str("component", "sheet_cache").Logger(),
		grids:    grids,
		inflight: make(map[string]*fetch),
		stopCh:   make(chan struct{}),
	}, nil
}

// GetGrid returns the week grid for identity narrowed to day (empty day
// means the full week). A fresh cached grid is served directly; otherwise a
// coalesced fetch runs, falling back to the stale grid and then to the
// relational store when the primary source is unreachable.
func (c *Cache) GetGrid(ctx context.Context, identity, day string) (*types.ScheduleGrid, error) {
	c.mu.Lock()
	if e, ok := c.grids.Get(identity); ok && time.Since(e.fetchedAt) <= c.cfg.MaxAge {
		c.mu.Unlock()
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return view(e.grid, day)
	}
	f := c.startFetch(identity)
	c.mu.Unlock()
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, fmt.Errorf("awaiting grid for %q: %v: %w", identity, ctx.Err(), types.ErrSourceUnavailable)
	}
	if f.err != nil {
		return nil, f.err
	}
	return view(f.grid, day)
}

// Invalidate drops the cached grid for identity; the next request fetches.
func (c *Cache) Invalidate(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grids.Remove(identity)
}

// RefreshAll refreshes every cached identity, coalescing with any request
// traffic already in flight.
func (c *Cache) RefreshAll(ctx context.Context) {
	c.mu.Lock()
	keys := c.grids.Keys()
	fetches := make([]*fetch, 0, len(keys))
	for _, identity := range keys {
		fetches = append(fetches, c.startFetch(identity))
	}
	c.mu.Unlock()

	for _, f := range fetches {
		select {
		case <-f.done:
		case <-ctx.Done():
			return
		}
	}
}

// Start launches the background refresh loop so steady readers see
// near-real-time data without paying fetch latency per request.
func (c *Cache) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("cache refresh loop already running")
	}
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.refreshLoop(ctx)
	return nil
}

// Stop halts the background refresh loop.
func (c *Cache) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Cache) refreshLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.RefreshAll(ctx)
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// startFetch returns the fetch currently in flight for identity, starting
// one when none exists. Callers must hold c.mu.
func (c *Cache) startFetch(identity string) *fetch {
	if f, ok := c.inflight[identity]; ok {
		return f
	}
	f := &fetch{done: make(chan struct{})}
	c.inflight[identity] = f
	go c.runFetch(identity, f)
	return f
}

// runFetch executes the provider chain for one identity and publishes the
// result. The fetch context is detached from any single caller so coalesced
// waiters are not cancelled by the first caller going away.
func (c *Cache) runFetch(identity string, f *fetch) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.FetchTimeout)
	grid, cacheable, err := c.fetchChain(ctx, identity)
	cancel()

	c.mu.Lock()
	if err == nil && cacheable {
		// Copy-then-swap: the grid was fully parsed and validated before
		// this point, so readers never observe a partial update.
		c.grids.Add(identity, &entry{grid: grid, fetchedAt: grid.FetchedAt})
	}
	delete(c.inflight, identity)
	c.mu.Unlock()

	f.grid, f.err = grid, err
	close(f.done)
}

// fetchChain runs the fallback chain once: primary, then the stale cached
// grid, then the relational store. ErrNotFound propagates without fallback
// so callers can distinguish "identity unknown" from "source down".
func (c *Cache) fetchChain(ctx context.Context, identity string) (*types.ScheduleGrid, bool, error) {
	grid, err := c.primary.FetchGrid(ctx, identity, "")
	if err == nil {
		return grid, true, nil
	}
	if errors.Is(err, types.ErrNotFound) {
		return nil, false, err
	}

	c.logger.Warn().Err(err).Str("identity", identity).Msg("primary source failed")

	c.mu.Lock()
	stale, ok := c.grids.Get(identity)
	c.mu.Unlock()
	if ok {
		metrics.CacheFallbacks.WithLabelValues("stale").Inc()
		return stale.grid, false, nil
	}

	if c.fallback == nil {
		return nil, false, fmt.Errorf("grid for %q: %w", identity, types.ErrResolutionUnavailable)
	}
	grid, err = c.fallback.FetchGrid(ctx, identity, "")
	if err == nil {
		metrics.CacheFallbacks.WithLabelValues("store").Inc()
		// One-shot view: fallback grids are served but never cached, so
		// recovery of the primary source is retried on the next request.
		return grid, false, nil
	}
	if errors.Is(err, types.ErrNotFound) {
		return nil, false, err
	}
	c.logger.Error().Err(err).Str("identity", identity).Msg("fallback source failed")
	return nil, false, fmt.Errorf("grid for %q: %w", identity, types.ErrResolutionUnavailable)
}

// view narrows a week grid to one day. The grid is shared, not copied; it
// is immutable after publish.
func view(grid *types.ScheduleGrid, day string) (*types.ScheduleGrid, error) {
	if day == "" {
		return grid, nil
	}
	cells, ok := grid.DayRow(day)
	if !ok {
		return nil, fmt.Errorf("grid for %q has no row for %q: %w", grid.Identity, day, types.ErrNotFound)
	}
	canonical, _ := types.CanonicalDay(day)
	return &types.ScheduleGrid{
		Identity:  grid.Identity,
		Header:    grid.Header,
		Days:      map[string][]string{canonical: cells},
		FetchedAt: grid.FetchedAt,
	}, nil
}
