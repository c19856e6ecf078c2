package middleware

import (
	"strconv"
	"time"

	"meal-planner/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 記錄請求數與耗時，route 標籤使用路由樣板而非實際路徑
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
