package plan

import (
	"net/http"
	"time"

	"meal-planner/internal/api/handlers"
	"meal-planner/internal/core/planner"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerateRequest 菜單生成請求
type GenerateRequest struct {
	UserID        string             `json:"user_id"`
	Days          int                `json:"days"`
	MealTypes     []string           `json:"meal_types"`
	Restrictions  []string           `json:"restrictions"`
	Cultures      []string           `json:"cultures"`
	Goals         common.GoalWeights `json:"goals"`
	MaxCookTime   int                `json:"max_cook_time_minutes"`
	MaxDifficulty int                `json:"max_difficulty"`
	Servings      int                `json:"servings"`
}

// ValidateRequest 驗證既有菜單
type ValidateRequest struct {
	Plan         common.MealPlan `json:"plan" binding:"required"`
	Restrictions []string        `json:"restrictions"`
}

// Handler 菜單處理程序
type Handler struct {
	service *planner.Service
}

// NewHandler 創建菜單處理程序
func NewHandler(service *planner.Service) *Handler {
	return &Handler{service: service}
}

// HandleGenerate 生成符合飲食限制的菜單
func (h *Handler) HandleGenerate(c *gin.Context) {
	start := time.Now()
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}

	common.LogInfo("開始處理菜單生成請求",
		zap.String("request_id", handlers.RequestID(c)),
		zap.String("user_id", req.UserID),
		zap.Int("days", req.Days),
		zap.Strings("restrictions", req.Restrictions),
		zap.Strings("cultures", req.Cultures),
	)

	result, err := h.service.GenerateCompliantPlan(c.Request.Context(), planner.PlanRequest{
		UserID:        req.UserID,
		Days:          req.Days,
		MealTypes:     req.MealTypes,
		Restrictions:  req.Restrictions,
		Cultures:      req.Cultures,
		Goals:         req.Goals,
		MaxCookTime:   req.MaxCookTime,
		MaxDifficulty: req.MaxDifficulty,
		Servings:      req.Servings,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("菜單生成請求完成",
		zap.String("request_id", handlers.RequestID(c)),
		zap.String("plan_request_id", result.Metadata.RequestID),
		zap.Float64("compliance_percent", result.ComplianceReport.OverallCompliancePercent),
		zap.Strings("warnings", result.Metadata.Warnings),
		zap.Duration("duration", time.Since(start)),
	)
	c.JSON(http.StatusOK, result)
}

// HandleValidate 重新計算菜單的合規報告
func (h *Handler) HandleValidate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}
	report := h.service.ValidateCompliance(req.Plan, req.Restrictions)
	common.LogDebug("菜單驗證完成",
		zap.String("request_id", handlers.RequestID(c)),
		zap.Int("meals", report.TotalMeals),
		zap.Int("violations", len(report.Violations)),
	)
	c.JSON(http.StatusOK, report)
}
