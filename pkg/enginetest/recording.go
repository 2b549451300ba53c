package enginetest

import (
	"context"
	"sync"

	"github.com/petrijr/flowgate/pkg/engine"
)

// RecordingBus wraps a Bus and records the order of subscribe and publish
// calls, for tests that assert a subscription was active before a message
// went out.
type RecordingBus struct {
	inner engine.Bus

	mu  sync.Mutex
	ops []string
}

var _ engine.Bus = (*RecordingBus)(nil)

// NewRecordingBus wraps inner.
func NewRecordingBus(inner engine.Bus) *RecordingBus {
	return &RecordingBus{inner: inner}
}

// SubscribeOnce records "subscribe <channel>" and forwards to the inner bus.
func (b *RecordingBus) SubscribeOnce(channel string, handler engine.MessageHandler) (engine.Subscription, error) {
	b.record("subscribe " + channel)
	return b.inner.SubscribeOnce(channel, handler)
}

// Publish records "publish <channel>" and forwards to the inner bus.
func (b *RecordingBus) Publish(ctx context.Context, channel string, msg engine.Message) error {
	b.record("publish " + channel)
	return b.inner.Publish(ctx, channel, msg)
}

// Ops returns a copy of the recorded operations in call order.
func (b *RecordingBus) Ops() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.ops))
	copy(out, b.ops)
	return out
}

func (b *RecordingBus) record(op string) {
	b.mu.Lock()
	b.ops = append(b.ops, op)
	b.mu.Unlock()
}
