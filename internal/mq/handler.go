package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kahurangi/trapnz-mirror/internal/cache"
	"github.com/kahurangi/trapnz-mirror/internal/logging"
	"github.com/kahurangi/trapnz-mirror/internal/tools"
)

// CommandMessage is the wire shape of a mirror command. A message
// with a tool name is dispatched through the tool surface; one
// without runs a full retrieval pass over the given lines.
type CommandMessage struct {
	RequestID    string         `json:"request_id,omitempty"`
	Tool         string         `json:"tool,omitempty"`
	Args         map[string]any `json:"args,omitempty"`
	LineUUIDs    []string       `json:"line_uuids,omitempty"`
	ForceRefresh bool           `json:"force_refresh,omitempty"`
}

// EventPublisher is the publishing surface the handler needs.
// *Publisher satisfies it; tests substitute a capture.
type EventPublisher interface {
	PublishRefreshCompleted(ctx context.Context, event RefreshCompletedEvent, routingKey string) error
	PublishToolResult(ctx context.Context, event ToolResultEvent, routingKey string) error
}

// CommandHandler turns command messages into coordinator or tool
// calls and publishes the outcome.
type CommandHandler struct {
	coordinator *cache.Coordinator
	tools       *tools.Tools
	publisher   EventPublisher
	routingKey  string
	logger      *zap.Logger
}

func NewCommandHandler(coordinator *cache.Coordinator, toolset *tools.Tools, publisher EventPublisher, routingKey string, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{
		coordinator: coordinator,
		tools:       toolset,
		publisher:   publisher,
		routingKey:  routingKey,
		logger:      logger,
	}
}

// Handle is the MessageHandler wired into the consumer.
func (h *CommandHandler) Handle(ctx context.Context, body []byte) error {
	var cmd CommandMessage
	if err := json.Unmarshal(body, &cmd); err != nil {
		return fmt.Errorf("invalid command message: %w", err)
	}
	if cmd.RequestID == "" {
		cmd.RequestID = uuid.New().String()
	}
	logger := logging.WithRequestID(h.logger, cmd.RequestID)

	if cmd.Tool != "" {
		return h.handleTool(ctx, cmd, logger)
	}
	return h.handleRefresh(ctx, cmd, logger)
}

func (h *CommandHandler) handleTool(ctx context.Context, cmd CommandMessage, logger *zap.Logger) error {
	logger.Info("running tool command", zap.String("tool", cmd.Tool))

	result := h.tools.Dispatch(ctx, cmd.Tool, cmd.Args)
	if !result.Success {
		logger.Warn("tool command failed",
			zap.String("tool", cmd.Tool),
			zap.String("error", result.Error),
		)
	}

	event := ToolResultEvent{RequestID: cmd.RequestID, Tool: cmd.Tool, Result: result}
	if err := h.publisher.PublishToolResult(ctx, event, h.routingKey); err != nil {
		return fmt.Errorf("failed to publish tool result: %w", err)
	}
	return nil
}

func (h *CommandHandler) handleRefresh(ctx context.Context, cmd CommandMessage, logger *zap.Logger) error {
	if len(cmd.LineUUIDs) == 0 {
		return fmt.Errorf("refresh command has no line uuids")
	}
	logger.Info("running refresh command",
		zap.Strings("line_uuids", cmd.LineUUIDs),
		zap.Bool("force_refresh", cmd.ForceRefresh),
	)

	snapshot, err := h.coordinator.RetrieveAll(ctx, cmd.LineUUIDs, cmd.ForceRefresh)
	if err != nil {
		return fmt.Errorf("retrieval pass failed: %w", err)
	}

	event := RefreshCompletedEvent{
		RequestID:   cmd.RequestID,
		LineUUIDs:   cmd.LineUUIDs,
		Lines:       len(snapshot.Lines),
		Traps:       len(snapshot.Traps),
		Records:     len(snapshot.Records),
		RefreshedAt: time.Now().UTC(),
	}
	if err := h.publisher.PublishRefreshCompleted(ctx, event, h.routingKey); err != nil {
		return fmt.Errorf("failed to publish refresh completed event: %w", err)
	}
	return nil
}
