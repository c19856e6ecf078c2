package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/ai/queue"
	"meal-planner/internal/pkg/common"
)

// Service AI 服務：所有對外部協作者的調用都經過隊列並帶有明確逾時
type Service struct {
	queue   *queue.Manager
	timeout time.Duration
}

// NewService 創建 AI 服務
func NewService(q *queue.Manager, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{
		queue:   q,
		timeout: timeout,
	}
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, req *provider.Request) (string, error) {
	return s.ProcessWithTimeout(ctx, req, s.timeout)
}

// ProcessWithTimeout 以指定逾時處理請求
func (s *Service) ProcessWithTimeout(ctx context.Context, req *provider.Request, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	content, err := s.process(ctx, req)
	common.LogCollaboratorCall(req.Model, time.Since(start), err)
	return content, err
}

func (s *Service) process(ctx context.Context, req *provider.Request) (string, error) {
	result, err := s.queue.Enqueue(ctx, req)
	if err != nil {
		return "", common.ErrCollaboratorUnavailable.Wrap(err)
	}

	select {
	case res := <-result:
		if res.Error != nil {
			return "", classify(res.Error)
		}
		if res.Response == nil || strings.TrimSpace(res.Response.Content) == "" {
			return "", common.ErrMalformedResponse.Wrap(errors.New("empty AI response"))
		}
		return strings.TrimSpace(res.Response.Content), nil
	case <-ctx.Done():
		return "", common.ErrCollaboratorUnavailable.Wrap(ctx.Err())
	}
}

// classify 未分類的錯誤一律視為協作者不可用
func classify(err error) error {
	if errors.Is(err, common.ErrCollaboratorUnavailable) || errors.Is(err, common.ErrMalformedResponse) {
		return err
	}
	return common.ErrCollaboratorUnavailable.Wrap(err)
}
