package mq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kahurangi/trapnz-mirror/internal/cache"
	"github.com/kahurangi/trapnz-mirror/internal/store"
	"github.com/kahurangi/trapnz-mirror/internal/tools"
	"github.com/kahurangi/trapnz-mirror/internal/trapnz"
)

// capturePublisher records published events instead of hitting a
// broker.
type capturePublisher struct {
	refreshEvents []RefreshCompletedEvent
	toolEvents    []ToolResultEvent
}

func (p *capturePublisher) PublishRefreshCompleted(_ context.Context, event RefreshCompletedEvent, _ string) error {
	p.refreshEvents = append(p.refreshEvents, event)
	return nil
}

func (p *capturePublisher) PublishToolResult(_ context.Context, event ToolResultEvent, _ string) error {
	p.toolEvents = append(p.toolEvents, event)
	return nil
}

func newTestHandler(t *testing.T) (*CommandHandler, *capturePublisher) {
	t.Helper()
	st, err := store.Open("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fixture := trapnz.NewFixture(zap.NewNop())
	coordinator := cache.NewCoordinator(st, fixture, time.Hour, zap.NewNop())
	toolset := tools.New(coordinator, st, zap.NewNop())

	publisher := &capturePublisher{}
	handler := NewCommandHandler(coordinator, toolset, publisher, "mirror.refresh.completed", zap.NewNop())
	return handler, publisher
}

func TestHandleRefreshCommand(t *testing.T) {
	handler, publisher := newTestHandler(t)

	body := []byte(`{"request_id": "req-1", "line_uuids": ["test-line-1"], "force_refresh": true}`)
	require.NoError(t, handler.Handle(context.Background(), body))

	require.Len(t, publisher.refreshEvents, 1)
	event := publisher.refreshEvents[0]
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, []string{"test-line-1"}, event.LineUUIDs)
	assert.Equal(t, 1, event.Lines)
	assert.Equal(t, 1, event.Traps)
	assert.Equal(t, 1, event.Records)
	assert.False(t, event.RefreshedAt.IsZero())
}

func TestHandleToolCommand(t *testing.T) {
	handler, publisher := newTestHandler(t)
	refresh := []byte(`{"request_id": "req-1", "line_uuids": ["test-line-1"]}`)
	require.NoError(t, handler.Handle(context.Background(), refresh))

	body := []byte(`{"request_id": "req-2", "tool": "get_line_summary", "args": {"line_uuid": "test-line-1"}}`)
	require.NoError(t, handler.Handle(context.Background(), body))

	require.Len(t, publisher.toolEvents, 1)
	event := publisher.toolEvents[0]
	assert.Equal(t, "req-2", event.RequestID)
	assert.Equal(t, "get_line_summary", event.Tool)
	require.True(t, event.Result.Success, event.Result.Error)
	assert.Equal(t, "Test Line 1", event.Result.Data["line_name"])
}

func TestHandleToolCommandFailureStillPublishes(t *testing.T) {
	handler, publisher := newTestHandler(t)

	body := []byte(`{"tool": "get_line_summary", "args": {"line_uuid": "no-such-line"}}`)
	require.NoError(t, handler.Handle(context.Background(), body))

	require.Len(t, publisher.toolEvents, 1)
	event := publisher.toolEvents[0]
	assert.NotEmpty(t, event.RequestID) // generated when absent
	assert.False(t, event.Result.Success)
}

func TestHandleRejectsBadJSON(t *testing.T) {
	handler, publisher := newTestHandler(t)

	err := handler.Handle(context.Background(), []byte(`{not json`))
	require.Error(t, err)
	assert.Empty(t, publisher.refreshEvents)
	assert.Empty(t, publisher.toolEvents)
}

func TestHandleRefreshRequiresLines(t *testing.T) {
	handler, publisher := newTestHandler(t)

	err := handler.Handle(context.Background(), []byte(`{"request_id": "req-3"}`))
	require.Error(t, err)
	assert.Empty(t, publisher.refreshEvents)
}
