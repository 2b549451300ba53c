// Package redis provides an engine.Bus backed by Redis pub/sub, so the gate
// can rendezvous with a process engine running in another OS process.
//
// Messages are JSON-encoded on the wire; the format is internal to this
// package and must match on both sides. Payload values come back as JSON
// types, so numbers decode as float64.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/flowgate/pkg/engine"
)

// subscribeTimeout bounds how long SubscribeOnce waits for the server to
// acknowledge the subscription. The ack must arrive before SubscribeOnce
// returns, or the subscribe-before-publish rendezvous guarantee is lost.
const subscribeTimeout = 5 * time.Second

// Bus implements engine.Bus on a Redis client.
type Bus struct {
	client *redis.Client
	logger *slog.Logger
}

var _ engine.Bus = (*Bus)(nil)

// NewBus returns a Bus publishing and subscribing through the given client.
func NewBus(client *redis.Client) *Bus {
	return NewBusWithLogger(client, nil)
}

// NewBusWithLogger is NewBus with a logger for dropped-message reporting.
func NewBusWithLogger(client *redis.Client, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{client: client, logger: logger}
}

func (b *Bus) Publish(ctx context.Context, channel string, msg engine.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis bus: encoding message for %q: %w", channel, err)
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("redis bus: publishing to %q: %w", channel, err)
	}
	return nil
}

func (b *Bus) SubscribeOnce(channel string, handler engine.MessageHandler) (engine.Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()

	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis bus: subscribing to %q: %w", channel, err)
	}

	sub := &subscription{pubsub: pubsub, done: make(chan struct{})}
	go sub.run(channel, handler, b.logger)
	return sub, nil
}

type subscription struct {
	pubsub *redis.PubSub

	closeOnce sync.Once
	done      chan struct{}
}

var _ engine.Subscription = (*subscription)(nil)

// run waits for the first message, hands it to the handler, and tears the
// Redis subscription down. Whatever arrives after that is dropped server-side
// because the channel has no subscriber anymore.
func (s *subscription) run(channel string, handler engine.MessageHandler, logger *slog.Logger) {
	defer s.pubsub.Close()

	select {
	case m, ok := <-s.pubsub.Channel():
		if !ok {
			return
		}
		var msg engine.Message
		if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
			logger.Error("redis bus: dropping undecodable message",
				"channel", channel,
				"error", err)
			return
		}
		handler(msg)
	case <-s.done:
	}
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
