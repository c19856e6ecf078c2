package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	OpenRouter   OpenRouterConfig   `mapstructure:"openrouter"`
	CultureCache CultureCacheConfig `mapstructure:"culture_cache"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Profile      ProfileConfig      `mapstructure:"profile"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Queue        QueueConfig        `mapstructure:"queue"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	DedupWindow  time.Duration      `mapstructure:"dedup_window"`
	LogLevel     string             `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// OpenRouterConfig OpenRouter 配置（研究與生成兩個協作者共用）
type OpenRouterConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	ResearchModel   string        `mapstructure:"research_model"`
	GenerationModel string        `mapstructure:"generation_model"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// CultureCacheConfig 文化資料快取設定
type CultureCacheConfig struct {
	Backend         string        `mapstructure:"backend"`
	TTL             time.Duration `mapstructure:"ttl"`
	MaxAge          time.Duration `mapstructure:"max_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	MaxEntries      int           `mapstructure:"max_entries"`
	ResearchTimeout time.Duration `mapstructure:"research_timeout"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ProfileConfig 使用者設定檔來源
type ProfileConfig struct {
	Backend string `mapstructure:"backend"`
}

// PipelineConfig 菜單生成流程設定
type PipelineConfig struct {
	MaxRepairPasses   int           `mapstructure:"max_repair_passes"`
	GenerationRetries int           `mapstructure:"generation_retries"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	MaxGuidance       int           `mapstructure:"max_guidance"`
	CulturalTarget    float64       `mapstructure:"cultural_target"`
	DefaultDays       int           `mapstructure:"default_days"`
	MaxDays           int           `mapstructure:"max_days"`
	RenameThreshold   float64       `mapstructure:"rename_threshold"`
}

// QueueConfig 請求隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 為選用
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"openrouter.api_key":          "OPENROUTER_API_KEY",
		"openrouter.research_model":   "OPENROUTER_RESEARCH_MODEL",
		"openrouter.generation_model": "OPENROUTER_GENERATION_MODEL",
		"openrouter.max_tokens":       "MODEL_MAX_TOKENS",
		"culture_cache.backend":       "CULTURE_CACHE_BACKEND",
		"culture_cache.ttl":           "CULTURE_CACHE_TTL",
		"redis.addr":                  "REDIS_ADDR",
		"redis.password":              "REDIS_PASSWORD",
		"profile.backend":             "PROFILE_BACKEND",
		"rate_limit.enabled":          "RATE_LIMIT_ENABLED",
		"rate_limit.requests":         "RATE_LIMIT_REQUESTS",
		"rate_limit.window":           "RATE_LIMIT_WINDOW",
		"dedup_window":                "DEDUP_WINDOW",
		"log_level":                   "LOG_LEVEL",
		"server.port":                 "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "meal-planner")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// OpenRouter 設定
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.research_model", "qwen/qwen-2.5-72b-instruct:free")
	v.SetDefault("openrouter.generation_model", "qwen/qwen-2.5-72b-instruct:free")
	v.SetDefault("openrouter.max_tokens", 4096)
	v.SetDefault("openrouter.timeout", "60s")

	// 文化快取設定
	v.SetDefault("culture_cache.backend", "memory")
	v.SetDefault("culture_cache.ttl", "48h")
	v.SetDefault("culture_cache.max_age", "168h")
	v.SetDefault("culture_cache.cleanup_interval", "30m")
	v.SetDefault("culture_cache.retry_backoff", "1m")
	v.SetDefault("culture_cache.max_entries", 10000)
	v.SetDefault("culture_cache.research_timeout", "20s")

	// Redis 設定
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("profile.backend", "none")

	// 流程設定
	v.SetDefault("pipeline.max_repair_passes", 2)
	v.SetDefault("pipeline.generation_retries", 1)
	v.SetDefault("pipeline.generation_timeout", "90s")
	v.SetDefault("pipeline.max_guidance", 6)
	v.SetDefault("pipeline.cultural_target", 0.5)
	v.SetDefault("pipeline.default_days", 7)
	v.SetDefault("pipeline.max_days", 14)
	v.SetDefault("pipeline.rename_threshold", 0.6)

	// 隊列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 100)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.CultureCache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown culture cache backend %q", config.CultureCache.Backend)
	}
	if config.CultureCache.TTL <= 0 {
		return fmt.Errorf("invalid culture cache ttl")
	}
	if config.CultureCache.MaxAge < config.CultureCache.TTL {
		return fmt.Errorf("culture cache max age must not be shorter than ttl")
	}
	if config.CultureCache.CleanupInterval <= 0 {
		return fmt.Errorf("invalid culture cache cleanup interval")
	}
	if config.CultureCache.ResearchTimeout <= 0 {
		return fmt.Errorf("invalid research timeout")
	}

	switch config.Profile.Backend {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("unknown profile backend %q", config.Profile.Backend)
	}

	if config.Pipeline.MaxRepairPasses < 0 {
		return fmt.Errorf("invalid max repair passes")
	}
	if config.Pipeline.GenerationRetries < 0 || config.Pipeline.GenerationRetries > 1 {
		return fmt.Errorf("generation retries must be 0 or 1")
	}
	if config.Pipeline.GenerationTimeout <= 0 {
		return fmt.Errorf("invalid generation timeout")
	}
	if config.Pipeline.DefaultDays <= 0 || config.Pipeline.MaxDays < config.Pipeline.DefaultDays {
		return fmt.Errorf("invalid plan day limits")
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
