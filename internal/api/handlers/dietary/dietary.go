package dietary

import (
	"net/http"

	"meal-planner/internal/api/handlers"
	"meal-planner/internal/core/planner"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckRequest 衝突檢查請求
type CheckRequest struct {
	Text         string   `json:"text" binding:"required"`
	Restrictions []string `json:"restrictions" binding:"required"`
}

// ResolveRequest 衝突解決請求
type ResolveRequest struct {
	UserID       string   `json:"user_id"`
	DishRequest  string   `json:"dish_request" binding:"required"`
	Restrictions []string `json:"restrictions"`
	Cultures     []string `json:"cultures"`
}

// NormalizeRequest 菜名正規化請求
type NormalizeRequest struct {
	Title       string   `json:"title" binding:"required"`
	Cuisine     string   `json:"cuisine"`
	Ingredients []string `json:"ingredients"`
}

// Handler 飲食限制相關處理程序
type Handler struct {
	service *planner.Service
}

// NewHandler 創建處理程序
func NewHandler(service *planner.Service) *Handler {
	return &Handler{service: service}
}

// HandleCheck 快速檢查加完整衝突列表
func (h *Handler) HandleCheck(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.service.CheckConflict(req.Text, req.Restrictions))
}

// HandleResolve 為單一菜色產生替代方案
func (h *Handler) HandleResolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}
	res := h.service.ResolveConflict(c.Request.Context(), req.UserID, req.DishRequest, req.Restrictions, req.Cultures)
	common.LogInfo("衝突解決完成",
		zap.String("request_id", handlers.RequestID(c)),
		zap.String("dish", req.DishRequest),
		zap.Bool("has_conflict", res.HasConflict),
		zap.Int("alternatives", len(res.SuggestedAlternatives)),
	)
	c.JSON(http.StatusOK, res)
}

// HandleNormalize 將通用菜名對應到慣用名稱
func (h *Handler) HandleNormalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.service.NormalizeDishName(req.Title, req.Cuisine, req.Ingredients))
}

// HandleInvalidateCultures 清除使用者的文化資料快取；未帶 culture 參數時清除全部
func (h *Handler) HandleInvalidateCultures(c *gin.Context) {
	userID := c.Param("user_id")
	cultures := c.QueryArray("culture")
	removed, err := h.service.InvalidateCulture(c.Request.Context(), userID, cultures)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"cultures": cultures,
		"removed":  removed,
	})
}
