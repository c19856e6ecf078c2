package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/ai/queue"
	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls   int32
	content string
	err     error
	delay   time.Duration
}

func (p *stubProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &provider.Response{Content: p.content}, nil
}

func (p *stubProvider) Close() error { return nil }

func newService(t *testing.T, p provider.Provider, timeout time.Duration) *Service {
	t.Helper()
	q := queue.NewManager(p, 2, 8)
	t.Cleanup(q.Close)
	return NewService(q, timeout)
}

func TestProcessRequestTrimsContent(t *testing.T) {
	p := &stubProvider{content: "  {\"a\":1}\n"}
	svc := newService(t, p, time.Second)

	out, err := svc.ProcessRequest(context.Background(), provider.NewChat("m", "", "hi"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.EqualValues(t, 1, atomic.LoadInt32(&p.calls))
}

func TestProcessRequestTimeoutIsUnavailable(t *testing.T) {
	p := &stubProvider{content: "late", delay: 500 * time.Millisecond}
	svc := newService(t, p, 20*time.Millisecond)

	_, err := svc.ProcessRequest(context.Background(), provider.NewChat("m", "", "hi"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrCollaboratorUnavailable))
}

func TestProcessRequestEmptyIsMalformed(t *testing.T) {
	p := &stubProvider{content: "   "}
	svc := newService(t, p, time.Second)

	_, err := svc.ProcessRequest(context.Background(), provider.NewChat("m", "", "hi"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedResponse))
}

func TestProcessRequestKeepsMalformedClassification(t *testing.T) {
	p := &stubProvider{err: common.ErrMalformedResponse.Wrap(errors.New("bad json"))}
	svc := newService(t, p, time.Second)

	_, err := svc.ProcessRequest(context.Background(), provider.NewChat("m", "", "hi"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	assert.False(t, errors.Is(err, common.ErrCollaboratorUnavailable))
}

func TestQueueStatusCountsOutcomes(t *testing.T) {
	p := &stubProvider{content: "ok"}
	q := queue.NewManager(p, 1, 4)
	defer q.Close()
	svc := NewService(q, time.Second)

	for i := 0; i < 3; i++ {
		_, err := svc.ProcessRequest(context.Background(), provider.NewChat("m", "", "hi"))
		require.NoError(t, err)
	}

	status := q.GetQueueStatus()
	assert.EqualValues(t, 3, status.ProcessedCount)
	assert.EqualValues(t, 0, status.FailedCount)
	assert.Equal(t, 1, status.Workers)
	assert.Equal(t, 4, status.MaxQueueSize)
}
