package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"meal-planner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// Profile 使用者的長期飲食設定
type Profile struct {
	UserID       string   `json:"user_id"`
	Restrictions []string `json:"restrictions"`
	Cultures     []string `json:"cultures"`
}

// Store 唯讀的設定檔來源
type Store interface {
	Load(ctx context.Context, userID string) (Profile, bool, error)
}

// Merge 請求的限制與設定檔取聯集；文化以請求優先、設定檔補在後面
func Merge(p Profile, restrictions, cultures []string) ([]string, []string) {
	r := common.UniqueStrings(append(append([]string{}, restrictions...), p.Restrictions...))
	c := common.UniqueStrings(append(append([]string{}, cultures...), p.Cultures...))
	return r, c
}

// MemoryStore 行程內設定檔
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore 以初始設定檔建立
func NewMemoryStore(profiles ...Profile) *MemoryStore {
	s := &MemoryStore{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	return s
}

// Put 新增或覆寫設定檔
func (s *MemoryStore) Put(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

// Load 讀取設定檔
func (s *MemoryStore) Load(ctx context.Context, userID string) (Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok, nil
}

// RedisStore 從 Redis 讀取 JSON 設定檔，鍵為 profile:{userID}
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 創建 Redis 設定檔來源
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load 讀取設定檔
func (s *RedisStore) Load(ctx context.Context, userID string) (Profile, bool, error) {
	var p Profile
	data, err := s.client.Get(ctx, "profile:"+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return p, false, nil
		}
		return p, false, fmt.Errorf("failed to get profile: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, false, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if p.UserID == "" {
		p.UserID = userID
	}
	return p, true, nil
}
