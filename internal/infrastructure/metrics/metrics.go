package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meal_planner"

var (
	// CultureLookups 文化快取查詢結果：fresh / refreshed / stale / miss
	CultureLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "culture_cache",
			Name:      "lookups_total",
			Help:      "Cultural fact cache lookups by outcome.",
		},
		[]string{"result"},
	)

	// CultureEvictions 文化快取清除數量
	CultureEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "culture_cache",
			Name:      "evictions_total",
			Help:      "Cultural fact records removed, by reason.",
		},
		[]string{"reason"},
	)

	// ResearchCalls 研究協作者調用
	ResearchCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "research",
			Name:      "calls_total",
			Help:      "Calls to the cultural research collaborator.",
		},
		[]string{"outcome"},
	)

	// GenerationAttempts 生成協作者調用
	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "attempts_total",
			Help:      "Plan generation attempts by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	// RepairPasses 修復回合數
	RepairPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "repair_passes_total",
			Help:      "Compliance repair passes executed.",
		},
	)

	// CompliancePercent 最終菜單合規百分比
	CompliancePercent = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "compliance_percent",
			Help:      "Overall compliance percent of returned plans.",
			Buckets:   []float64{0, 25, 50, 75, 90, 99, 100},
		},
	)

	// HTTPRequests HTTP 請求數
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration HTTP 請求耗時
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
