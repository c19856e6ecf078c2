package culture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"meal-planner/internal/infrastructure/metrics"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Researcher 文化研究協作者
type Researcher interface {
	Research(ctx context.Context, culture string) (common.CulturalFacts, error)
}

// ResearcherFunc 以函數實作 Researcher
type ResearcherFunc func(ctx context.Context, culture string) (common.CulturalFacts, error)

// Research 調用函數本身
func (f ResearcherFunc) Research(ctx context.Context, culture string) (common.CulturalFacts, error) {
	return f(ctx, culture)
}

// Options 快取設定
type Options struct {
	TTL             time.Duration
	ResearchTimeout time.Duration
	RetryBackoff    time.Duration
	Now             func() time.Time
}

// Stats 快取統計
type Stats struct {
	Store        StoreStats `json:"store"`
	PendingRetry int        `json:"pending_retry"`
}

type retryEntry struct {
	userID  string
	culture string
	at      time.Time
}

// Cache 以 (userID, culture) 為鍵的文化資料快取，同一鍵的並發刷新只會調用一次研究協作者
type Cache struct {
	store      Store
	researcher Researcher
	opts       Options
	group      singleflight.Group

	mu          sync.Mutex
	retries     map[string]retryEntry
	generations map[string]uint64
}

// NewCache 創建快取
func NewCache(store Store, researcher Researcher, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = 48 * time.Hour
	}
	if opts.ResearchTimeout <= 0 {
		opts.ResearchTimeout = 20 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		store:       store,
		researcher:  researcher,
		opts:        opts,
		retries:     make(map[string]retryEntry),
		generations: make(map[string]uint64),
	}
}

// Get 取得每個文化的資料；刷新失敗時沿用舊資料並標記 Stale，完全沒有資料的文化直接省略
func (c *Cache) Get(ctx context.Context, userID string, cultures []string) map[string]common.CulturalFactRecord {
	cultures = NormalizeList(cultures)
	results := make([]*common.CulturalFactRecord, len(cultures))

	var g errgroup.Group
	for i, culture := range cultures {
		i, culture := i, culture
		g.Go(func() error {
			if rec, ok := c.lookup(ctx, userID, culture); ok {
				results[i] = &rec
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]common.CulturalFactRecord, len(cultures))
	for i, rec := range results {
		if rec != nil {
			out[cultures[i]] = *rec
		}
	}
	return out
}

func (c *Cache) lookup(ctx context.Context, userID, culture string) (common.CulturalFactRecord, bool) {
	now := c.opts.Now()
	rec, found, err := c.store.Load(ctx, userID, culture)
	if err != nil {
		common.LogWarn("讀取文化資料失敗", zap.String("user_id", userID), zap.String("culture", culture), zap.Error(err))
		found = false
	}
	if found && rec.IsFresh(now) {
		metrics.CultureLookups.WithLabelValues("fresh").Inc()
		rec.Stale = false
		return rec, true
	}
	if found && c.backingOff(userID, culture, now) {
		metrics.CultureLookups.WithLabelValues("stale").Inc()
		rec.Stale = true
		return rec, true
	}

	gen := c.generation(userID)
	key := fmt.Sprintf("%s\x1f%d\x1f%s", userID, gen, culture)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// 不受單一呼叫者取消影響
		return c.refresh(context.WithoutCancel(ctx), userID, culture, gen)
	})

	select {
	case res := <-ch:
		if res.Err == nil {
			metrics.CultureLookups.WithLabelValues("refreshed").Inc()
			return res.Val.(common.CulturalFactRecord), true
		}
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}

	if found {
		c.scheduleRetry(userID, culture, now)
		metrics.CultureLookups.WithLabelValues("stale").Inc()
		common.LogWarn("文化資料刷新失敗，沿用舊資料",
			zap.String("user_id", userID),
			zap.String("culture", culture),
			zap.Error(err),
		)
		rec.Stale = true
		return rec, true
	}
	metrics.CultureLookups.WithLabelValues("miss").Inc()
	common.LogWarn("無法取得文化資料，略過此文化",
		zap.String("user_id", userID),
		zap.String("culture", culture),
		zap.Error(err),
	)
	return common.CulturalFactRecord{}, false
}

// refresh 調用研究協作者並寫回；期間若被 Invalidate 則不寫回
func (c *Cache) refresh(ctx context.Context, userID, culture string, gen uint64) (common.CulturalFactRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ResearchTimeout)
	defer cancel()

	facts, err := c.researcher.Research(ctx, culture)
	if err == nil && facts.IsEmpty() {
		err = common.ErrMalformedResponse.Wrap(fmt.Errorf("no cultural facts for %s", culture))
	}
	if err != nil {
		metrics.ResearchCalls.WithLabelValues("error").Inc()
		return common.CulturalFactRecord{}, err
	}
	metrics.ResearchCalls.WithLabelValues("ok").Inc()

	rec := common.CulturalFactRecord{
		UserID:    userID,
		Culture:   culture,
		Facts:     facts,
		FetchedAt: c.opts.Now(),
		TTLHours:  c.opts.TTL.Hours(),
	}
	if c.generation(userID) != gen {
		common.LogInfo("文化資料已在刷新期間失效，不寫回",
			zap.String("user_id", userID),
			zap.String("culture", culture),
		)
		return rec, nil
	}
	if err := c.store.Save(ctx, rec); err != nil {
		common.LogWarn("寫入文化資料失敗", zap.String("user_id", userID), zap.String("culture", culture), zap.Error(err))
	}
	c.clearRetry(userID, culture)
	return rec, nil
}

// Invalidate 刪除使用者的文化資料；cultures 為空時刪除全部
func (c *Cache) Invalidate(ctx context.Context, userID string, cultures ...string) (int, error) {
	cultures = NormalizeList(cultures)

	c.mu.Lock()
	c.generations[userID]++
	for key, r := range c.retries {
		if r.userID != userID {
			continue
		}
		if len(cultures) == 0 || contains(cultures, r.culture) {
			delete(c.retries, key)
		}
	}
	c.mu.Unlock()

	n, err := c.store.Delete(ctx, userID, cultures)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate cultural facts: %w", err)
	}
	metrics.CultureEvictions.WithLabelValues("invalidated").Add(float64(n))
	common.LogInfo("文化資料已失效",
		zap.String("user_id", userID),
		zap.Strings("cultures", cultures),
		zap.Int("count", n),
	)
	return n, nil
}

// Cleanup 刪除超過 maxAge 的紀錄
func (c *Cache) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := c.store.Sweep(ctx, c.opts.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	metrics.CultureEvictions.WithLabelValues("expired").Add(float64(n))
	return n, nil
}

// RetryPending 重新刷新退避期已過的文化，返回成功數量
func (c *Cache) RetryPending(ctx context.Context) int {
	now := c.opts.Now()
	c.mu.Lock()
	var due []retryEntry
	for _, r := range c.retries {
		if !now.Before(r.at) {
			due = append(due, r)
		}
	}
	c.mu.Unlock()

	refreshed := 0
	for _, r := range due {
		gen := c.generation(r.userID)
		key := fmt.Sprintf("%s\x1f%d\x1f%s", r.userID, gen, r.culture)
		_, err, _ := c.group.Do(key, func() (interface{}, error) {
			return c.refresh(ctx, r.userID, r.culture, gen)
		})
		if err != nil {
			c.scheduleRetry(r.userID, r.culture, now)
			continue
		}
		refreshed++
	}
	return refreshed
}

// Stats 快取統計
func (c *Cache) Stats(ctx context.Context) Stats {
	c.mu.Lock()
	pending := len(c.retries)
	c.mu.Unlock()
	return Stats{Store: c.store.Stats(ctx), PendingRetry: pending}
}

// Close 關閉底層儲存
func (c *Cache) Close() error {
	return c.store.Close()
}

func (c *Cache) generation(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID]
}

func (c *Cache) backingOff(userID, culture string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.retries[recordKey(userID, culture)]
	return ok && now.Before(r.at)
}

func (c *Cache) scheduleRetry(userID, culture string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries[recordKey(userID, culture)] = retryEntry{
		userID:  userID,
		culture: culture,
		at:      now.Add(c.opts.RetryBackoff),
	}
}

func (c *Cache) clearRetry(userID, culture string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.retries, recordKey(userID, culture))
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
