package culture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingResearcher struct {
	calls   int32
	delay   time.Duration
	fail    atomic.Bool
	release chan struct{}
}

func (r *countingResearcher) Research(ctx context.Context, culture string) (common.CulturalFacts, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.release != nil {
		<-r.release
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.fail.Load() {
		return common.CulturalFacts{}, common.ErrCollaboratorUnavailable.Wrap(errors.New("research down"))
	}
	return sampleFacts(culture), nil
}

func (r *countingResearcher) Calls() int {
	return int(atomic.LoadInt32(&r.calls))
}

func sampleFacts(culture string) common.CulturalFacts {
	return common.CulturalFacts{
		StapleDishes:   []common.StapleDish{{Name: culture + " Staple", Description: "everyday dish"}},
		KeyIngredients: []string{"rice", "ginger"},
		CookingStyles:  []string{"steaming"},
	}
}

func newTestCache(r Researcher, clock *fakeClock) (*Cache, *MemoryStore) {
	store := NewMemoryStore(100)
	return NewCache(store, r, Options{
		TTL:             48 * time.Hour,
		ResearchTimeout: time.Second,
		RetryBackoff:    time.Minute,
		Now:             clock.Now,
	}), store
}

func TestGetCoalescesConcurrentRefreshes(t *testing.T) {
	r := &countingResearcher{release: make(chan struct{})}
	cache, _ := newTestCache(r, newFakeClock())

	const callers = 20
	var wg sync.WaitGroup
	results := make([]map[string]common.CulturalFactRecord, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Get(context.Background(), "u1", []string{"chinese"})
		}(i)
	}

	// 等所有呼叫者進入同一個刷新
	time.Sleep(50 * time.Millisecond)
	close(r.release)
	wg.Wait()

	assert.Equal(t, 1, r.Calls())
	for _, res := range results {
		require.Contains(t, res, "Chinese")
		assert.Equal(t, "Chinese Staple", res["Chinese"].Facts.StapleDishes[0].Name)
		assert.False(t, res["Chinese"].Stale)
	}
}

func TestGetServesFreshRecordWithoutResearch(t *testing.T) {
	r := &countingResearcher{}
	clock := newFakeClock()
	cache, _ := newTestCache(r, clock)

	cache.Get(context.Background(), "u1", []string{"Italian"})
	clock.Advance(47 * time.Hour)
	res := cache.Get(context.Background(), "u1", []string{"italian"})

	assert.Equal(t, 1, r.Calls())
	require.Contains(t, res, "Italian")
	assert.True(t, res["Italian"].IsFresh(clock.Now()))
}

func TestGetFallsBackToStaleRecord(t *testing.T) {
	r := &countingResearcher{}
	clock := newFakeClock()
	cache, _ := newTestCache(r, clock)

	first := cache.Get(context.Background(), "u1", []string{"Thai"})
	require.Contains(t, first, "Thai")

	clock.Advance(49 * time.Hour)
	r.fail.Store(true)
	res := cache.Get(context.Background(), "u1", []string{"Thai"})
	require.Contains(t, res, "Thai")
	assert.True(t, res["Thai"].Stale)
	assert.Equal(t, first["Thai"].Facts, res["Thai"].Facts)
	assert.Equal(t, 2, r.Calls())

	// 退避期間內不再調用研究協作者
	res = cache.Get(context.Background(), "u1", []string{"Thai"})
	assert.True(t, res["Thai"].Stale)
	assert.Equal(t, 2, r.Calls())
	assert.Equal(t, 1, cache.Stats(context.Background()).PendingRetry)

	// 退避期過後由背景重試恢復
	clock.Advance(2 * time.Minute)
	r.fail.Store(false)
	assert.Equal(t, 1, cache.RetryPending(context.Background()))
	res = cache.Get(context.Background(), "u1", []string{"Thai"})
	assert.False(t, res["Thai"].Stale)
	assert.Equal(t, 0, cache.Stats(context.Background()).PendingRetry)
}

func TestGetOmitsCultureWithoutData(t *testing.T) {
	r := &countingResearcher{}
	r.fail.Store(true)
	cache, _ := newTestCache(r, newFakeClock())

	res := cache.Get(context.Background(), "u1", []string{"Korean", "Greek"})
	assert.Empty(t, res)
	assert.Equal(t, 2, r.Calls())
}

func TestGetTreatsEmptyFactsAsFailure(t *testing.T) {
	r := ResearcherFunc(func(ctx context.Context, culture string) (common.CulturalFacts, error) {
		return common.CulturalFacts{}, nil
	})
	cache, store := newTestCache(r, newFakeClock())

	res := cache.Get(context.Background(), "u1", []string{"French"})
	assert.Empty(t, res)
	assert.Equal(t, 0, store.Stats(context.Background()).Entries)
}

func TestInvalidateForcesRefresh(t *testing.T) {
	r := &countingResearcher{}
	cache, store := newTestCache(r, newFakeClock())
	ctx := context.Background()

	cache.Get(ctx, "u1", []string{"Mexican", "Indian"})
	cache.Get(ctx, "u2", []string{"Mexican"})
	require.Equal(t, 3, r.Calls())

	n, err := cache.Invalidate(ctx, "u1", "mexican")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cache.Get(ctx, "u1", []string{"Mexican", "Indian"})
	assert.Equal(t, 4, r.Calls())

	n, err = cache.Invalidate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, store.Stats(ctx).Entries)
}

func TestInvalidateDuringRefreshDoesNotWriteBack(t *testing.T) {
	r := &countingResearcher{release: make(chan struct{})}
	cache, store := newTestCache(r, newFakeClock())
	ctx := context.Background()

	done := make(chan map[string]common.CulturalFactRecord)
	go func() { done <- cache.Get(ctx, "u1", []string{"Greek"}) }()

	time.Sleep(20 * time.Millisecond)
	_, err := cache.Invalidate(ctx, "u1")
	require.NoError(t, err)
	close(r.release)

	res := <-done
	assert.Contains(t, res, "Greek")
	assert.Equal(t, 0, store.Stats(ctx).Entries)
}

func TestCleanupRemovesOldRecords(t *testing.T) {
	r := &countingResearcher{}
	clock := newFakeClock()
	cache, store := newTestCache(r, clock)
	ctx := context.Background()

	cache.Get(ctx, "u1", []string{"Japanese"})
	clock.Advance(100 * time.Hour)
	cache.Get(ctx, "u1", []string{"Vietnamese"})
	clock.Advance(100 * time.Hour)

	n, err := cache.Cleanup(ctx, 168*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Stats(ctx).Entries)

	_, found, err := store.Load(ctx, "u1", "Vietnamese")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCallerCancellationDoesNotAbortRefresh(t *testing.T) {
	r := &countingResearcher{release: make(chan struct{})}
	cache, store := newTestCache(r, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan map[string]common.CulturalFactRecord)
	go func() { done <- cache.Get(ctx, "u1", []string{"Spanish"}) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.Empty(t, <-done)

	close(r.release)
	assert.Eventually(t, func() bool {
		return store.Stats(context.Background()).Entries == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStoreEvictsLeastUsed(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()
	rec := func(culture string) common.CulturalFactRecord {
		return common.CulturalFactRecord{UserID: "u1", Culture: culture, Facts: sampleFacts(culture), FetchedAt: time.Now(), TTLHours: 1}
	}

	require.NoError(t, store.Save(ctx, rec("A")))
	require.NoError(t, store.Save(ctx, rec("B")))
	_, _, _ = store.Load(ctx, "u1", "A")
	require.NoError(t, store.Save(ctx, rec("C")))

	_, foundA, _ := store.Load(ctx, "u1", "A")
	_, foundB, _ := store.Load(ctx, "u1", "B")
	assert.True(t, foundA)
	assert.False(t, foundB)
	assert.EqualValues(t, 1, store.Stats(ctx).Evictions)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Middle Eastern", Normalize("  middle   eastern "))
	assert.Equal(t, []string{"Chinese", "Italian"}, NormalizeList([]string{"chinese", "Chinese", "", "ITALIAN"}))
}

func TestJanitorSweepsAndRetries(t *testing.T) {
	r := &countingResearcher{}
	clock := newFakeClock()
	cache, store := newTestCache(r, clock)
	ctx := context.Background()

	cache.Get(ctx, "u1", []string{"Korean"})
	clock.Advance(49 * time.Hour)
	r.fail.Store(true)
	cache.Get(ctx, "u1", []string{"Korean"})
	require.Equal(t, 1, cache.Stats(ctx).PendingRetry)

	clock.Advance(200 * time.Hour)
	r.fail.Store(false)

	j := StartJanitor(cache, 10*time.Millisecond, 168*time.Hour)
	defer j.Stop()

	assert.Eventually(t, func() bool {
		return cache.Stats(ctx).PendingRetry == 0 && store.Stats(ctx).Entries == 1
	}, time.Second, 10*time.Millisecond)

	j.Stop()
	j.Stop()
}

type sweepCountingStore struct {
	*MemoryStore
	closed      atomic.Bool
	sweeps      atomic.Int32
	afterClosed atomic.Int32
}

func (s *sweepCountingStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	s.sweeps.Add(1)
	if s.closed.Load() {
		s.afterClosed.Add(1)
	}
	return s.MemoryStore.Sweep(ctx, olderThan)
}

func (s *sweepCountingStore) Close() error {
	s.closed.Store(true)
	return s.MemoryStore.Close()
}

func TestJanitorStopBeforeCacheClose(t *testing.T) {
	store := &sweepCountingStore{MemoryStore: NewMemoryStore(10)}
	cache := NewCache(store, &countingResearcher{}, Options{TTL: time.Hour, RetryBackoff: time.Minute})

	j := StartJanitor(cache, 5*time.Millisecond, time.Hour)
	require.Eventually(t, func() bool { return store.sweeps.Load() > 0 }, time.Second, 5*time.Millisecond)

	j.Stop()
	require.NoError(t, cache.Close())
	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 0, store.afterClosed.Load())
}
