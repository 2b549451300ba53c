package engine

import (
	"context"

	"github.com/petrijr/flowgate/pkg/api"
)

// Message is the payload exchanged over the notification bus.
//
// The engine and the gate both publish messages; which fields are set depends
// on the channel. ProcessError carries an engine-side failure description and
// is never forwarded to callers verbatim.
type Message struct {
	CorrelationID      string
	ProcessModelID     string
	FlowNodeID         string
	FlowNodeInstanceID string

	Payload map[string]any

	// Identity is set on messages the gate publishes on behalf of a caller
	// (task proceed, event trigger).
	Identity api.Identity

	// ProcessError is non-empty when the engine reports a failed process
	// instead of the awaited outcome.
	ProcessError string
}

// MessageHandler consumes one bus message. Handlers run on the bus's
// delivery goroutine and must not block.
type MessageHandler func(msg Message)

// Subscription is a live bus subscription.
type Subscription interface {
	// Close cancels the subscription. Closing an already-closed or
	// already-delivered subscription is a no-op.
	Close() error
}

// Bus is the notification channel between the gate and the engine.
//
// Semantics:
//   - SubscribeOnce delivers at most one message to the handler, then the
//     subscription is spent.
//   - Publish delivers to the subscribers registered at publish time;
//     a publish without subscribers is not an error.
//   - Message ordering across channels is not defined; per-channel delivery
//     order follows publish order.
type Bus interface {
	SubscribeOnce(channel string, handler MessageHandler) (Subscription, error)
	Publish(ctx context.Context, channel string, msg Message) error
}
