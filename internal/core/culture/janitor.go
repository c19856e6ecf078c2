package culture

import (
	"context"
	"sync"
	"time"

	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Janitor 定期清理過舊紀錄並重試刷新失敗的文化
type Janitor struct {
	cache    *Cache
	interval time.Duration
	maxAge   time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

// StartJanitor 啟動背景清理
func StartJanitor(cache *Cache, interval, maxAge time.Duration) *Janitor {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &Janitor{
		cache:    cache,
		interval: interval,
		maxAge:   maxAge,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go j.run(ctx)

	common.LogInfo("文化資料清理已啟動",
		zap.Duration("清理間隔", interval),
		zap.Duration("保留時間", maxAge),
	)
	return j
}

func (j *Janitor) run(ctx context.Context) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.tick(ctx)
		}
	}
}

func (j *Janitor) tick(ctx context.Context) {
	if j.maxAge > 0 {
		if _, err := j.cache.Cleanup(ctx, j.maxAge); err != nil {
			common.LogWarn("文化資料清理失敗", zap.Error(err))
		}
	}
	if n := j.cache.RetryPending(ctx); n > 0 {
		common.LogInfo("已重新刷新文化資料", zap.Int("count", n))
	}
}

// Stop 停止背景清理並等待結束
func (j *Janitor) Stop() {
	j.once.Do(func() {
		j.cancel()
		<-j.done
	})
}
