package broker

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"market_chat/pkg/logger"
)

// Handler receives a topic without the channel prefix and its raw payload.
type Handler func(topic string, payload []byte)

// Broker carries room broadcasts over Redis pub/sub. Every node publishes to
// <prefix><topic> and pattern-subscribes to all room topics.
type Broker struct {
	rdb    *redis.Client
	prefix string
	log    logger.Logger
}

func New(rdb *redis.Client, prefix string, log logger.Logger) *Broker {
	return &Broker{rdb: rdb, prefix: prefix, log: log}
}

func (b *Broker) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.rdb.Publish(ctx, b.prefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Listen blocks until ctx is cancelled, passing every room broadcast to handle.
// ready, when non-nil, is closed once the subscription is active.
func (b *Broker) Listen(ctx context.Context, handle Handler, ready chan<- struct{}) error {
	pattern := b.prefix + "room/*"
	pubsub := b.rdb.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("psubscribe %s: %w", pattern, err)
	}
	if ready != nil {
		close(ready)
	}
	b.log.Info("Listening for room broadcasts", "pattern", pattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			topic, found := strings.CutPrefix(msg.Channel, b.prefix)
			if !found {
				b.log.Warn("Dropping broadcast on foreign channel", "channel", msg.Channel)
				continue
			}
			handle(topic, []byte(msg.Payload))
		}
	}
}

func (b *Broker) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
