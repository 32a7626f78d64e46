// Package notify tells UI layers which collections changed. Delivery is a
// hint: nothing in the backend depends on it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Pub/Sub channel used when none is configured
const DefaultChannel = "chronoshop:refresh"

// Message is the payload published for each change
type Message struct {
	Entity shared.EntityType `json:"entity"`
	At     time.Time         `json:"at"`
}

// RedisNotifier publishes refresh hints on a Redis Pub/Sub channel
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier creates a notifier on an existing client
func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// Notify publishes a hint for entity
func (n *RedisNotifier) Notify(ctx context.Context, entity shared.EntityType) error {
	payload, err := json.Marshal(Message{Entity: entity, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish refresh hint: %w", err)
	}
	return nil
}

// Subscribe returns a channel of hints published on the notifier's channel.
// It is closed when ctx is done.
func (n *RedisNotifier) Subscribe(ctx context.Context) (<-chan Message, error) {
	sub := n.client.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", n.channel, err)
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var m Message
				if json.Unmarshal([]byte(msg.Payload), &m) != nil {
					continue
				}
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the Redis client
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// LogNotifier writes hints to the log. It is used when Redis is disabled.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the hint at debug level
func (n *LogNotifier) Notify(_ context.Context, entity shared.EntityType) error {
	n.logger.Debug("collection changed", zap.String("entity", entity.String()))
	return nil
}

// Close is a no-op
func (n *LogNotifier) Close() error {
	return nil
}

var (
	_ shared.RefreshNotifier = (*RedisNotifier)(nil)
	_ shared.RefreshNotifier = (*LogNotifier)(nil)
)
