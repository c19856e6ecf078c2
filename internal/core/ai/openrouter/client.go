package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	maxLoggedBody  = 512
)

// Client OpenRouter API 客戶端
type Client struct {
	client    *resty.Client
	maxTokens int
}

// chatRequest chat/completions 請求
type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []provider.Message `json:"messages"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Temperature    float64            `json:"temperature,omitempty"`
	ResponseFormat *responseFormat    `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse chat/completions 響應
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message provider.Message `json:"message"`
	} `json:"choices"`
	Usage provider.Usage `json:"usage"`
}

// apiError 表示 API 錯誤
type apiError struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg *config.Config) *Client {
	baseURL := cfg.OpenRouter.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.OpenRouter.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://meal-planner.app").
		SetHeader("X-Title", "Meal Planner")
	if cfg.OpenRouter.APIKey != "" {
		client.SetAuthToken(cfg.OpenRouter.APIKey)
	}

	return &Client{
		client:    client,
		maxTokens: cfg.OpenRouter.MaxTokens,
	}
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.maxTokens
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
	)

	var result chatResponse
	var failure apiError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode() != http.StatusOK {
		msg := failure.Error.Message
		if msg == "" {
			msg = truncate(resp.String())
		}
		common.LogError("AI service returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", body.Model),
			zap.String("response", msg),
		)
		statusErr := fmt.Errorf("openrouter status %d: %s", resp.StatusCode(), msg)
		if resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500 {
			return nil, common.ErrCollaboratorUnavailable.Wrap(statusErr)
		}
		return nil, statusErr
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		common.LogError("Empty content in AI service response",
			zap.String("model", body.Model),
			zap.String("response", truncate(resp.String())),
		)
		return nil, common.ErrMalformedResponse.Wrap(errors.New("empty choices in response"))
	}

	content := result.Choices[0].Message.Content
	common.LogDebug("Successfully generated response from AI service",
		zap.String("model", body.Model),
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)

	return &provider.Response{
		Content: content,
		Model:   result.Model,
		Usage:   result.Usage,
	}, nil
}

// classifyTransportError 網路錯誤與逾時一律視為協作者不可用
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return common.ErrCollaboratorUnavailable.Wrap(err)
	}
	if strings.Contains(err.Error(), "cannot unmarshal") || strings.Contains(err.Error(), "invalid character") {
		return common.ErrMalformedResponse.Wrap(err)
	}
	return common.ErrCollaboratorUnavailable.Wrap(err)
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
