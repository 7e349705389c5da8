package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/kahurangi/trapnz-mirror/internal/tools"
)

// Publisher emits mirror events on the event exchange.
type Publisher struct {
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher opens a channel and declares the durable topic
// exchange events are published on.
func NewPublisher(conn *Connection, exchange string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{channel: ch, exchange: exchange, logger: logger}, nil
}

// RefreshCompletedEvent announces that a retrieval pass finished and
// how much the mirror now holds for the requested lines.
type RefreshCompletedEvent struct {
	RequestID   string    `json:"request_id"`
	LineUUIDs   []string  `json:"line_uuids"`
	Lines       int       `json:"lines"`
	Traps       int       `json:"traps"`
	Records     int       `json:"records"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// ToolResultEvent carries the outcome of a tool command back to the
// requester.
type ToolResultEvent struct {
	RequestID string       `json:"request_id"`
	Tool      string       `json:"tool"`
	Result    tools.Result `json:"result"`
}

// PublishRefreshCompleted publishes a refresh completion event.
func (p *Publisher) PublishRefreshCompleted(ctx context.Context, event RefreshCompletedEvent, routingKey string) error {
	if err := p.publish(ctx, routingKey, event); err != nil {
		return err
	}
	p.logger.Debug("published refresh completed event",
		zap.String("routing_key", routingKey),
		zap.String("request_id", event.RequestID),
		zap.Int("lines", event.Lines),
	)
	return nil
}

// PublishToolResult publishes the result envelope of a tool command.
func (p *Publisher) PublishToolResult(ctx context.Context, event ToolResultEvent, routingKey string) error {
	if err := p.publish(ctx, routingKey, event); err != nil {
		return err
	}
	p.logger.Debug("published tool result event",
		zap.String("routing_key", routingKey),
		zap.String("request_id", event.RequestID),
		zap.String("tool", event.Tool),
		zap.Bool("success", event.Result.Success),
	)
	return nil
}

func (p *Publisher) publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
