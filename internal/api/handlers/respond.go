package handlers

import (
	"errors"
	"net/http"

	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestID 取得 requestid 中間件產生的請求 ID
func RequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// BindError 請求格式錯誤時回應 400
func BindError(c *gin.Context, err error) {
	common.LogWarn("請求格式無效",
		zap.Error(err),
		zap.String("request_id", RequestID(c)),
		zap.String("path", c.FullPath()),
	)
	c.JSON(http.StatusBadRequest, common.ErrorResponse{
		Code:    common.ErrCodeInvalidRequest,
		Message: "Invalid request format",
		Details: err.Error(),
	})
}

// RespondError 依錯誤類型回應對應的狀態碼
func RespondError(c *gin.Context, err error) {
	status := common.StatusOf(err)
	resp := common.ErrorResponse{Code: common.ErrCodeInternalError, Message: err.Error()}

	var ce *common.CustomError
	switch {
	case common.IsValidationError(err):
		resp.Code = common.ErrCodeInvalidRequest
	case errors.As(err, &ce):
		resp.Code = ce.Code
		resp.Message = ce.Message
		if ce.Err != nil {
			resp.Details = ce.Err.Error()
		}
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("request_id", RequestID(c)),
		zap.String("path", c.FullPath()),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求處理失敗", fields...)
	}
	c.JSON(status, resp)
}
