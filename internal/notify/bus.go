// Package notify provides the in-process implementation of engine.Bus.
//
// It is the default bus for embedded deployments where the engine adapter and
// the gate live in the same process. The redis submodule provides the
// cross-process alternative with the same semantics.
package notify

import (
	"context"
	"sync"

	"github.com/petrijr/flowgate/pkg/engine"
)

// Bus is an in-process engine.Bus backed by per-channel subscriber lists.
// It is safe for concurrent use.
//
// Delivery is synchronous: Publish invokes the matching handlers on the
// calling goroutine, after the subscription has been removed, so a handler
// may publish re-entrantly without deadlocking.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]*subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]*subscription),
	}
}

// Ensure Bus implements engine.Bus.
var _ engine.Bus = (*Bus)(nil)

type subscription struct {
	bus     *Bus
	channel string
	handler engine.MessageHandler

	// spent flips once, under bus.mu, when the subscription is delivered to
	// or closed. It guards the exactly-once contract.
	spent bool
}

func (s *subscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if s.spent {
		return nil
	}
	s.spent = true
	s.bus.remove(s)
	return nil
}

// SubscribeOnce registers handler for the next message on channel.
func (b *Bus) SubscribeOnce(channel string, handler engine.MessageHandler) (engine.Subscription, error) {
	sub := &subscription{bus: b, channel: channel, handler: handler}

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	return sub, nil
}

// Publish delivers msg to every subscription currently registered on channel.
// A publish without subscribers is a no-op.
func (b *Bus) Publish(ctx context.Context, channel string, msg engine.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	pending := b.subs[channel]
	delete(b.subs, channel)
	handlers := make([]engine.MessageHandler, 0, len(pending))
	for _, sub := range pending {
		if sub.spent {
			continue
		}
		sub.spent = true
		handlers = append(handlers, sub.handler)
	}
	b.mu.Unlock()

	// Handlers run outside the lock; one of them re-publishing on the same
	// channel must reach only subscriptions made after this publish began.
	for _, h := range handlers {
		h(msg)
	}
	return nil
}

// remove drops sub from its channel's list. Caller holds b.mu.
func (b *Bus) remove(sub *subscription) {
	list := b.subs[sub.channel]
	for i, s := range list {
		if s == sub {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(b.subs, sub.channel)
		return
	}
	b.subs[sub.channel] = list
}
