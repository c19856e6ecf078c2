package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Request 隊列請求
type Request struct {
	Context context.Context
	Request *provider.Request
	Result  chan Result
}

// Result 處理結果
type Result struct {
	Response *provider.Response
	Error    error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	FailedCount    int64 `json:"failed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 隊列管理器：以固定數量的 worker 限制對外部協作者的並發
type Manager struct {
	provider  provider.Provider
	queue     chan *Request
	done      chan struct{}
	workers   int
	maxSize   int
	processed int64
	failed    int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager 創建新的隊列管理器並啟動 worker
func NewManager(p provider.Provider, workers, maxSize int) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = 1
	}
	m := &Manager{
		provider: p,
		queue:    make(chan *Request, maxSize),
		done:     make(chan struct{}),
		workers:  workers,
		maxSize:  maxSize,
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.work(i)
	}

	common.LogInfo("請求隊列已啟動",
		zap.Int("workers", workers),
		zap.Int("max_queue_size", maxSize),
	)
	return m
}

// Enqueue 將請求加入隊列
func (m *Manager) Enqueue(ctx context.Context, req *provider.Request) (<-chan Result, error) {
	queueReq := &Request{
		Context: ctx,
		Request: req,
		Result:  make(chan Result, 1),
	}

	select {
	case <-m.done:
		return nil, common.ErrQueueClosed
	default:
	}

	select {
	case m.queue <- queueReq:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
		return queueReq.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, common.ErrQueueClosed
	default:
		return nil, common.ErrQueueFull
	}
}

// work worker 主迴圈
func (m *Manager) work(id int) {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case req := <-m.queue:
			m.handle(req)
		}
	}
}

func (m *Manager) handle(req *Request) {
	if err := req.Context.Err(); err != nil {
		atomic.AddInt64(&m.failed, 1)
		req.Result <- Result{Error: err}
		return
	}

	resp, err := m.provider.Generate(req.Context, req.Request)
	if err != nil {
		atomic.AddInt64(&m.failed, 1)
	} else {
		atomic.AddInt64(&m.processed, 1)
	}
	req.Result <- Result{Response: resp, Error: err}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		FailedCount:    atomic.LoadInt64(&m.failed),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 關閉隊列管理器，等待 worker 結束
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		// 尚未處理的請求直接回覆關閉錯誤
		for {
			select {
			case req := <-m.queue:
				req.Result <- Result{Error: common.ErrQueueClosed}
			default:
				return
			}
		}
	})
}
