package culture

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 行程內的紀錄儲存，達到上限時以 LRU 淘汰
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]*memoryEntry
	maxEntries int
	stats      memoryStats
}

// memoryEntry 存取統計以 atomic 更新，讀取只需讀鎖
type memoryEntry struct {
	record      common.CulturalFactRecord
	lastAccess  atomic.Int64
	accessCount atomic.Int64
}

type memoryStats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	errors    atomic.Int64
}

// NewMemoryStore 創建記憶體儲存；maxEntries <= 0 表示不限
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]*memoryEntry),
		maxEntries: maxEntries,
	}
}

// Load 讀取紀錄
func (s *MemoryStore) Load(ctx context.Context, userID, culture string) (common.CulturalFactRecord, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[recordKey(userID, culture)]
	s.mu.RUnlock()

	if !ok {
		s.stats.misses.Add(1)
		return common.CulturalFactRecord{}, false, nil
	}
	entry.lastAccess.Store(time.Now().UnixNano())
	entry.accessCount.Add(1)
	s.stats.hits.Add(1)
	return entry.record, true, nil
}

// Save 寫入紀錄，必要時淘汰最少使用的項目
func (s *MemoryStore) Save(ctx context.Context, rec common.CulturalFactRecord) error {
	key := recordKey(rec.UserID, rec.Culture)
	rec.Stale = false

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictLRU()
		if len(s.entries) >= s.maxEntries {
			s.stats.errors.Add(1)
			common.LogWarn("文化快取已滿", zap.Int("目前容量", len(s.entries)))
			return common.ErrCacheFull
		}
	}

	entry := &memoryEntry{record: rec}
	entry.lastAccess.Store(time.Now().UnixNano())
	s.entries[key] = entry
	return nil
}

// Delete 刪除使用者的指定文化紀錄
func (s *MemoryStore) Delete(ctx context.Context, userID string, cultures []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	if len(cultures) == 0 {
		prefix := recordKey(userID, "")
		for key := range s.entries {
			if strings.HasPrefix(key, prefix) {
				delete(s.entries, key)
				count++
			}
		}
		return count, nil
	}
	for _, c := range cultures {
		key := recordKey(userID, c)
		if _, ok := s.entries[key]; ok {
			delete(s.entries, key)
			count++
		}
	}
	return count, nil
}

// Sweep 先以讀鎖收集過舊的鍵，再短暫持有寫鎖刪除，不阻塞讀取
func (s *MemoryStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.RLock()
	var expired []string
	for key, entry := range s.entries {
		if entry.record.FetchedAt.Before(olderThan) {
			expired = append(expired, key)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return 0, nil
	}

	count := 0
	s.mu.Lock()
	for _, key := range expired {
		// 收集後可能已被刷新
		if entry, ok := s.entries[key]; ok && entry.record.FetchedAt.Before(olderThan) {
			delete(s.entries, key)
			count++
		}
	}
	remaining := len(s.entries)
	s.mu.Unlock()

	s.stats.evictions.Add(int64(count))
	common.LogInfo("已清理過舊的文化資料",
		zap.Int("count", count),
		zap.Int("remaining_size", remaining),
	)
	return count, nil
}

// evictLRU 淘汰存取次數最少、最久未使用的項目；呼叫端須持有寫鎖
func (s *MemoryStore) evictLRU() {
	var oldestKey string
	var oldestAccess, lowestCount int64

	for key, entry := range s.entries {
		access, count := entry.lastAccess.Load(), entry.accessCount.Load()
		if oldestKey == "" ||
			count < lowestCount ||
			(count == lowestCount && access < oldestAccess) {
			oldestKey = key
			oldestAccess = access
			lowestCount = count
		}
	}

	if oldestKey != "" {
		delete(s.entries, oldestKey)
		s.stats.evictions.Add(1)
		userID, culture := splitKey(oldestKey)
		common.LogInfo("文化資料已淘汰(LRU)",
			zap.String("user_id", userID),
			zap.String("culture", culture),
		)
	}
}

// Stats 儲存統計
func (s *MemoryStore) Stats(ctx context.Context) StoreStats {
	s.mu.RLock()
	size := len(s.entries)
	s.mu.RUnlock()

	return StoreStats{
		Backend:    "memory",
		Entries:    size,
		MaxEntries: s.maxEntries,
		Hits:       s.stats.hits.Load(),
		Misses:     s.stats.misses.Load(),
		Evictions:  s.stats.evictions.Load(),
		Errors:     s.stats.errors.Load(),
	}
}

// Close 清空儲存
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*memoryEntry)
	common.LogInfo("文化資料記憶體儲存已關閉",
		zap.Int64("命中次數", s.stats.hits.Load()),
		zap.Int64("未命中次數", s.stats.misses.Load()),
		zap.Int64("淘汰次數", s.stats.evictions.Load()),
	)
	return nil
}
