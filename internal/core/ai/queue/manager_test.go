package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	block chan struct{}
	err   error
}

func (p *fakeProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &provider.Response{Content: "ok", Model: req.Model}, nil
}

func (p *fakeProvider) Close() error { return nil }

func await(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
		return Result{}
	}
}

func TestManagerProcessesRequests(t *testing.T) {
	m := NewManager(&fakeProvider{}, 2, 4)
	defer m.Close()

	ch, err := m.Enqueue(context.Background(), provider.NewChat("m1", "", "hi"))
	require.NoError(t, err)
	res := await(t, ch)
	require.NoError(t, res.Error)
	assert.Equal(t, "ok", res.Response.Content)

	status := m.GetQueueStatus()
	assert.Equal(t, int64(1), status.ProcessedCount)
	assert.Equal(t, 2, status.Workers)
	assert.Equal(t, 4, status.MaxQueueSize)
}

func TestManagerCountsFailures(t *testing.T) {
	m := NewManager(&fakeProvider{err: errors.New("boom")}, 1, 1)
	defer m.Close()

	ch, err := m.Enqueue(context.Background(), provider.NewChat("m1", "", "hi"))
	require.NoError(t, err)
	assert.Error(t, await(t, ch).Error)
	assert.Equal(t, int64(1), m.GetQueueStatus().FailedCount)
}

func TestManagerRejectsWhenFull(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{})}
	m := NewManager(p, 1, 1)
	defer m.Close()
	defer close(p.block)

	first, err := m.Enqueue(context.Background(), provider.NewChat("m", "", "1"))
	require.NoError(t, err)
	// 等待 worker 取走第一個請求，隊列才會空出
	require.Eventually(t, func() bool { return m.GetQueueStatus().QueueLength == 0 }, time.Second, 5*time.Millisecond)

	_, err = m.Enqueue(context.Background(), provider.NewChat("m", "", "2"))
	require.NoError(t, err)

	_, err = m.Enqueue(context.Background(), provider.NewChat("m", "", "3"))
	assert.True(t, errors.Is(err, common.ErrQueueFull))
	_ = first
}

func TestManagerClosed(t *testing.T) {
	m := NewManager(&fakeProvider{}, 1, 1)
	m.Close()

	_, err := m.Enqueue(context.Background(), provider.NewChat("m", "", "hi"))
	assert.True(t, errors.Is(err, common.ErrQueueClosed))
}
