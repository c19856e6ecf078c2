package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	dietaryHandler "meal-planner/internal/api/handlers/dietary"
	"meal-planner/internal/api/handlers/health"
	planHandler "meal-planner/internal/api/handlers/plan"
	"meal-planner/internal/api/middleware"
	"meal-planner/internal/core/planner"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultTimeout     = 120 * time.Second
	defaultMaxBodySize = 1 << 20
)

// Services 路由依賴的服務
type Services struct {
	Planner *planner.Service
	Cache   health.CacheStats
	Queue   health.QueueStatus
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) (*gin.Engine, error) {
	if svc.Planner == nil {
		return nil, fmt.Errorf("planner service is required")
	}
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBodySize := cfg.Server.MaxBodyBytes
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(requestTimeout(timeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, svc.Cache, svc.Queue)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	{
		plans := planHandler.NewHandler(svc.Planner)
		dedup := middleware.NewDeduplicator(cfg.DedupWindow)

		planGroup := api.Group("/plans")
		{
			planGroup.POST("/generate", dedup.Middleware(), plans.HandleGenerate)
			planGroup.POST("/validate", plans.HandleValidate)
		}

		dietary := dietaryHandler.NewHandler(svc.Planner)
		dietaryGroup := api.Group("/dietary")
		{
			dietaryGroup.POST("/check", dietary.HandleCheck)
			dietaryGroup.POST("/resolve", dietary.HandleResolve)
		}

		api.POST("/dishes/normalize", dietary.HandleNormalize)
		api.DELETE("/users/:user_id/cultures", dietary.HandleInvalidateCultures)
	}

	common.LogInfo("Router setup completed successfully",
		zap.String("version", cfg.App.Version),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("cache_stats", svc.Cache != nil),
		zap.Bool("queue_status", svc.Queue != nil),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}

// requestTimeout 設定請求 context 期限；處理程序尚未回應時回傳 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: "Request timeout",
				Details: timeout.String(),
			})
		}
	}
}
