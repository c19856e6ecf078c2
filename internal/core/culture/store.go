package culture

import (
	"context"
	"strings"
	"time"

	"meal-planner/internal/pkg/common"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Store 文化資料紀錄的持久層
type Store interface {
	// Load 找不到時 found 為 false 且 err 為 nil
	Load(ctx context.Context, userID, culture string) (rec common.CulturalFactRecord, found bool, err error)
	Save(ctx context.Context, rec common.CulturalFactRecord) error
	// Delete cultures 為空時刪除該使用者全部紀錄
	Delete(ctx context.Context, userID string, cultures []string) (int, error)
	// Sweep 刪除 FetchedAt 早於 olderThan 的紀錄
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
	Stats(ctx context.Context) StoreStats
	Close() error
}

// StoreStats 儲存層統計
type StoreStats struct {
	Backend    string `json:"backend"`
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"max_entries,omitempty"`
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
	Evictions  int64  `json:"evictions"`
	Errors     int64  `json:"errors"`
}

// HitRatio 命中率
func (s StoreStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Normalize 文化名稱統一為首字大寫，例如 "middle  eastern" → "Middle Eastern"
func Normalize(culture string) string {
	fields := strings.Fields(culture)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(fields, " "))
}

// NormalizeList 正規化並去重
func NormalizeList(cultures []string) []string {
	out := make([]string, 0, len(cultures))
	for _, c := range cultures {
		if n := Normalize(c); n != "" {
			out = append(out, n)
		}
	}
	return common.UniqueStrings(out)
}

// recordKey 以不可見分隔符組合鍵值
func recordKey(userID, culture string) string {
	return userID + "\x1f" + culture
}

func splitKey(key string) (string, string) {
	userID, culture, _ := strings.Cut(key, "\x1f")
	return userID, culture
}
