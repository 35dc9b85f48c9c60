package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/pkg/interfaces"
	"github.com/Liyanipatel27/attendance-new/pkg/types"
)

// mockSource counts fetches and serves a configurable grid or error.
type mockSource struct {
	mu      sync.Mutex
	calls   int32
	grid    *types.ScheduleGrid
	err     error
	block   chan struct{} // when set, FetchGrid waits on it
}

func (m *mockSource) FetchGrid(ctx context.Context, identity, day string) (*types.ScheduleGrid, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	grid := *m.grid
	grid.Identity = identity
	grid.FetchedAt = time.Now()
	return &grid, nil
}

func (m *mockSource) callCount() int {
	return int(atomic.LoadInt32(&m.calls))
}

func (m *mockSource) setErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func weekGrid() *types.ScheduleGrid {
	return &types.ScheduleGrid{
		Header: []string{"9:00 AM - 10:00 AM"},
		Days: map[string][]string{
			"Monday":  {"Math\nA\nR1"},
			"Tuesday": {"OS\nB\nR2"},
		},
	}
}

func newTestCache(t *testing.T, primary, fallback *mockSource, cfg Config) *Cache {
	t.Helper()
	// A typed nil must not become a non-nil interface value.
	var fb interfaces.ScheduleSource
	if fallback != nil {
		fb = fallback
	}
	c, err := New(primary, fb, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGetGridCachesWithinMaxAge(t *testing.T) {
	primary := &mockSource{grid: weekGrid()}
	c := newTestCache(t, primary, nil, Config{MaxAge: time.Minute})

	for i := 0; i < 3; i++ {
		grid, err := c.GetGrid(context.Background(), "CE-5", "")
		if err != nil {
			t.Fatalf("GetGrid: %v", err)
		}
		if grid.Identity != "CE-5" {
			t.Errorf("identity = %q", grid.Identity)
		}
	}
	if got := primary.callCount(); got != 1 {
		t.Errorf("primary fetched %d times within max age, want 1", got)
	}
}

func TestGetGridDayView(t *testing.T) {
	primary := &mockSource{grid: weekGrid()}
	c := newTestCache(t, primary, nil, Config{MaxAge: time.Minute})

	grid, err := c.GetGrid(context.Background(), "CE-5", "monday")
	if err != nil {
		t.Fatalf("GetGrid: %v", err)
	}
	if len(grid.Days) != 1 {
		t.Fatalf("day view has %d rows, want 1", len(grid.Days))
	}
	row, ok := grid.Days["Monday"]
	if !ok || row[0] != "Math\nA\nR1" {
		t.Errorf("monday row = %v, %v", row, ok)
	}

	// A day the week grid does not carry is not found.
	if _, err := c.GetGrid(context.Background(), "CE-5", "Sunday"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("missing day: got %v, want ErrNotFound", err)
	}
}

func TestGetGridStaleFallback(t *testing.T) {
	primary := &mockSource{grid: weekGrid()}
	c := newTestCache(t, primary, nil, Config{MaxAge: time.Nanosecond})

	if _, err := c.GetGrid(context.Background(), "CE-5", ""); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}

	// Primary goes down; the stale grid keeps serving.
	primary.setErr(fmt.Errorf("quota: %w", types.ErrSourceUnavailable))
	grid, err := c.GetGrid(context.Background(), "CE-5", "")
	if err != nil {
		t.Fatalf("expected stale grid, got error %v", err)
	}
	if grid.Identity != "CE-5" {
		t.Errorf("identity = %q", grid.Identity)
	}
}

func TestGetGridStoreFallback(t *testing.T) {
	primary := &mockSource{grid: weekGrid(), err: fmt.Errorf("down: %w", types.ErrSourceUnavailable)}
	fallback := &mockSource{grid: weekGrid()}
	c := newTestCache(t, primary, fallback, Config{MaxAge: time.Minute})

	grid, err := c.GetGrid(context.Background(), "CE-5", "")
	if err != nil {
		t.Fatalf("expected store fallback, got error %v", err)
	}
	if grid.Identity != "CE-5" {
		t.Errorf("identity = %q", grid.Identity)
	}
	if fallback.callCount() != 1 {
		t.Errorf("fallback fetched %d times, want 1", fallback.callCount())
	}

	// Fallback grids are one-shot, never cached: the next request walks the
	// chain again.
	if _, err := c.GetGrid(context.Background(), "CE-5", ""); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if fallback.callCount() != 2 {
		t.Errorf("fallback fetched %d times after second request, want 2", fallback.callCount())
	}
}

func TestGetGridNotFoundDoesNotFallBack(t *testing.T) {
	primary := &mockSource{err: fmt.Errorf("no tab: %w", types.ErrNotFound)}
	fallback := &mockSource{grid: weekGrid()}
	c := newTestCache(t, primary, fallback, Config{MaxAge: time.Minute})

	_, err := c.GetGrid(context.Background(), "ghost", "")
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if fallback.callCount() != 0 {
		t.Errorf("fallback consulted %d times for a not-found identity, want 0", fallback.callCount())
	}
}

func TestGetGridBothSourcesDown(t *testing.T) {
	primary := &mockSource{err: fmt.Errorf("down: %w", types.ErrSourceUnavailable)}
	fallback := &mockSource{err: fmt.Errorf("db locked: %w", types.ErrSourceUnavailable)}
	c := newTestCache(t, primary, fallback, Config{MaxAge: time.Minute})

	_, err := c.GetGrid(context.Background(), "CE-5", "")
	if !errors.Is(err, types.ErrResolutionUnavailable) {
		t.Errorf("got %v, want ErrResolutionUnavailable", err)
	}
}

func TestGetGridCoalescesConcurrentFetches(t *testing.T) {
	gate := make(chan struct{})
	primary := &mockSource{grid: weekGrid(), block: gate}
	c := newTestCache(t, primary, nil, Config{MaxAge: time.Minute})

	const goroutines = 8
	var wg sync.WaitGroup
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetGrid(context.Background(), "CE-5", "")
		}(i)
	}

	// Let all callers queue on the single in-flight fetch, then release it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goroutine %d: %v", i, err)
		}
	}
	if got := primary.callCount(); got != 1 {
		t.Errorf("primary fetched %d times for %d concurrent callers, want 1", got, goroutines)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	primary := &mockSource{grid: weekGrid()}
	c := newTestCache(t, primary, nil, Config{MaxAge: time.Minute})

	if _, err := c.GetGrid(context.Background(), "CE-5", ""); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	c.Invalidate("CE-5")
	if _, err := c.GetGrid(context.Background(), "CE-5", ""); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if got := primary.callCount(); got != 2 {
		t.Errorf("primary fetched %d times across an invalidation, want 2", got)
	}
}

func TestRefreshAllRefreshesCachedIdentities(t *testing.T) {
	primary := &mockSource{grid: weekGrid()}
	c := newTestCache(t, primary, nil, Config{MaxAge: time.Hour})

	if _, err := c.GetGrid(context.Background(), "CE-5", ""); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}
	if _, err := c.GetGrid(context.Background(), "CE-7", ""); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}

	c.RefreshAll(context.Background())
	if got := primary.callCount(); got != 4 {
		t.Errorf("primary fetched %d times after RefreshAll, want 4", got)
	}
}
