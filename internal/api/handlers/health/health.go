package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"meal-planner/internal/core/ai/queue"
	"meal-planner/internal/core/culture"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CacheStats 文化資料快取統計來源
type CacheStats interface {
	Stats(ctx context.Context) culture.Stats
}

// QueueStatus 請求隊列狀態來源
type QueueStatus interface {
	GetQueueStatus() *queue.Status
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     *CacheStatus           `json:"culture_cache,omitempty"`
}

// CacheStatus 快取狀態
type CacheStatus struct {
	culture.Stats
	HitRatio float64 `json:"hit_ratio"`
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	cache   CacheStats
	queue   QueueStatus
}

// NewHandler 創建健康檢查處理器；cache 與 queue 可為 nil
func NewHandler(version string, cache CacheStats, queue QueueStatus) *Handler {
	return &Handler{version: version, cache: cache, queue: queue}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}
	if h.cache != nil {
		stats := h.cache.Stats(c.Request.Context())
		response.Cache = &CacheStatus{Stats: stats, HitRatio: stats.Store.HitRatio()}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 隊列已滿時回報未就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.queue != nil {
		status := h.queue.GetQueueStatus()
		if status.QueueLength >= status.MaxQueueSize {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "busy",
				"queue":  status,
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
