package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-planner/internal/api"
	"meal-planner/internal/core/ai/openrouter"
	"meal-planner/internal/core/ai/queue"
	"meal-planner/internal/core/ai/service"
	"meal-planner/internal/core/culture"
	"meal-planner/internal/core/planner"
	"meal-planner/internal/core/profile"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// 載入設定（.env 為選用）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_key", config.MaskAPIKey(cfg.OpenRouter.APIKey)),
		zap.String("research_model", cfg.OpenRouter.ResearchModel),
		zap.String("generation_model", cfg.OpenRouter.GenerationModel),
		zap.String("culture_cache_backend", cfg.CultureCache.Backend),
		zap.String("profile_backend", cfg.Profile.Backend),
	)

	// 外部協作者：OpenRouter 經由請求隊列限制並發
	client := openrouter.NewClient(cfg)
	defer client.Close()
	queueManager := queue.NewManager(client, cfg.Queue.Workers, cfg.Queue.MaxSize)
	defer queueManager.Close()
	aiService := service.NewService(queueManager, cfg.OpenRouter.Timeout)

	var redisClient *redis.Client
	if cfg.CultureCache.Backend == "redis" || cfg.Profile.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = culture.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			common.LogFatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
		}
		if cfg.CultureCache.Backend != "redis" {
			// redis 文化快取關閉時會一併關閉連線
			defer redisClient.Close()
		}
	}

	// 文化資料快取
	var store culture.Store
	switch cfg.CultureCache.Backend {
	case "redis":
		store = culture.NewRedisStore(redisClient, cfg.CultureCache.MaxAge)
	default:
		store = culture.NewMemoryStore(cfg.CultureCache.MaxEntries)
	}
	cultureCache := culture.NewCache(store, culture.NewAIResearcher(aiService, cfg.OpenRouter.ResearchModel), culture.Options{
		TTL:             cfg.CultureCache.TTL,
		ResearchTimeout: cfg.CultureCache.ResearchTimeout,
		RetryBackoff:    cfg.CultureCache.RetryBackoff,
	})
	janitor := culture.StartJanitor(cultureCache, cfg.CultureCache.CleanupInterval, cfg.CultureCache.MaxAge)
	defer janitor.Stop()

	// 使用者設定檔
	var profiles profile.Store
	switch cfg.Profile.Backend {
	case "redis":
		profiles = profile.NewRedisStore(redisClient)
	case "memory":
		profiles = profile.NewMemoryStore()
	}

	plannerService := planner.NewService(planner.Dependencies{
		Cache:     cultureCache,
		Generator: planner.NewAIGenerator(aiService, cfg.OpenRouter.GenerationModel, cfg.OpenRouter.MaxTokens, cfg.Pipeline.GenerationTimeout),
		Profiles:  profiles,
	}, planner.Options{
		MaxRepairPasses:   cfg.Pipeline.MaxRepairPasses,
		GenerationRetries: cfg.Pipeline.GenerationRetries,
		MaxGuidance:       cfg.Pipeline.MaxGuidance,
		CulturalTarget:    cfg.Pipeline.CulturalTarget,
		DefaultDays:       cfg.Pipeline.DefaultDays,
		MaxDays:           cfg.Pipeline.MaxDays,
		RenameThreshold:   cfg.Pipeline.RenameThreshold,
	})

	router, err := api.SetupRouter(cfg, api.Services{
		Planner: plannerService,
		Cache:   cultureCache,
		Queue:   queueManager,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("debug", cfg.App.Debug),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}
	janitor.Stop()
	if err := cultureCache.Close(); err != nil {
		common.LogWarn("Failed to close culture cache", zap.Error(err))
	}

	common.LogInfo("Server exited")
}
