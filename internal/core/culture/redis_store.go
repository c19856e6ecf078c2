package culture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"meal-planner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix = "culture:facts"
	redisIndexKey  = "culture:facts:index"
)

// RedisStore 以 Redis 保存文化資料，跨行程共享
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	errors    atomic.Int64
}

// NewRedisStore 創建 Redis 儲存；retention 為 Redis 端的過期時間，0 表示不設
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

// DialRedis 建立連線並測試
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) recordKey(userID, culture string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, userID, culture)
}

func (s *RedisStore) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s", redisKeyPrefix, userID)
}

// Load 讀取紀錄
func (s *RedisStore) Load(ctx context.Context, userID, culture string) (common.CulturalFactRecord, bool, error) {
	var rec common.CulturalFactRecord
	data, err := s.client.Get(ctx, s.recordKey(userID, culture)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			return rec, false, nil
		}
		s.errors.Add(1)
		return rec, false, fmt.Errorf("failed to get cultural facts: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		s.errors.Add(1)
		return rec, false, fmt.Errorf("failed to unmarshal cultural facts: %w", err)
	}
	s.hits.Add(1)
	return rec, true, nil
}

// Save 寫入紀錄並更新索引
func (s *RedisStore) Save(ctx context.Context, rec common.CulturalFactRecord) error {
	rec.Stale = false
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal cultural facts: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(rec.UserID, rec.Culture), data, s.retention)
		pipe.SAdd(ctx, s.userKey(rec.UserID), rec.Culture)
		pipe.ZAdd(ctx, redisIndexKey, &redis.Z{
			Score:  float64(rec.FetchedAt.Unix()),
			Member: recordKey(rec.UserID, rec.Culture),
		})
		return nil
	})
	if err != nil {
		s.errors.Add(1)
		return fmt.Errorf("failed to set cultural facts: %w", err)
	}
	return nil
}

// Delete 刪除使用者的指定文化紀錄
func (s *RedisStore) Delete(ctx context.Context, userID string, cultures []string) (int, error) {
	if len(cultures) == 0 {
		members, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to list cultures: %w", err)
		}
		cultures = members
	}
	if len(cultures) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(cultures))
	members := make([]interface{}, 0, len(cultures))
	setMembers := make([]interface{}, 0, len(cultures))
	for _, c := range cultures {
		keys = append(keys, s.recordKey(userID, c))
		members = append(members, recordKey(userID, c))
		setMembers = append(setMembers, c)
	}

	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, keys...)
		pipe.SRem(ctx, s.userKey(userID), setMembers...)
		pipe.ZRem(ctx, redisIndexKey, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete cultural facts: %w", err)
	}
	return int(del.Val()), nil
}

// Sweep 依索引刪除過舊的紀錄
func (s *RedisStore) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	members, err := s.client.ZRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(olderThan.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan cultural index: %w", err)
	}

	count := 0
	for _, member := range members {
		userID, culture := splitKey(member)
		n, err := s.Delete(ctx, userID, []string{culture})
		if err != nil {
			common.LogWarn("清理文化資料失敗", zap.String("user_id", userID), zap.String("culture", culture), zap.Error(err))
			continue
		}
		count += n
	}
	// 已被 Redis 自行過期的紀錄只需移出索引
	if len(members) > 0 {
		s.client.ZRemRangeByScore(ctx, redisIndexKey, "-inf", "("+strconv.FormatInt(olderThan.Unix(), 10))
	}
	s.evictions.Add(int64(count))
	return count, nil
}

// Stats 儲存統計
func (s *RedisStore) Stats(ctx context.Context) StoreStats {
	entries, err := s.client.ZCard(ctx, redisIndexKey).Result()
	if err != nil {
		common.LogWarn("無法取得文化索引大小", zap.Error(err))
	}
	return StoreStats{
		Backend:   "redis",
		Entries:   int(entries),
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
		Errors:    s.errors.Load(),
	}
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
