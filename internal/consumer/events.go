package consumer

import (
	"context"

	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// ListEventsForProcessModel returns the suspended signal and message catch
// events of the model that sit in lanes accessible to the identity.
func (c *Client) ListEventsForProcessModel(ctx context.Context, identity api.Identity, processModelID string) (api.EventList, error) {
	return c.listEvents(ctx, identity, scope{processModelID: processModelID})
}

// ListEventsForCorrelation returns the suspended signal and message catch
// events of every process instance belonging to the correlation that sit in
// lanes accessible to the identity.
func (c *Client) ListEventsForCorrelation(ctx context.Context, identity api.Identity, correlationID string) (api.EventList, error) {
	return c.listEvents(ctx, identity, scope{correlationID: correlationID})
}

func (c *Client) listEvents(ctx context.Context, identity api.Identity, sc scope) (api.EventList, error) {
	nodes, err := c.visibleSuspended(ctx, identity, sc, engine.KindSignalCatchEvent, engine.KindMessageCatchEvent)
	if err != nil {
		return api.EventList{}, err
	}

	events := make([]api.Event, 0, len(nodes))
	for _, vn := range nodes {
		events = append(events, *toEvent(vn))
	}

	return api.EventList{Events: events}, nil
}

// TriggerEvent publishes a payload to a suspended catch event and returns
// without waiting for the engine to act on it.
//
// The event must be visible to the identity under the model-in-correlation
// scope; an event that exists but is hidden reports not_found, the same as an
// event that does not exist.
func (c *Client) TriggerEvent(ctx context.Context, identity api.Identity, processModelID, correlationID, eventID string, payload map[string]any) error {
	sc := scope{processModelID: processModelID, correlationID: correlationID}
	nodes, err := c.visibleSuspended(ctx, identity, sc, engine.KindSignalCatchEvent, engine.KindMessageCatchEvent)
	if err != nil {
		return err
	}

	var event *visibleNode
	for i := range nodes {
		if nodes[i].fni.ID == eventID {
			event = &nodes[i]
			break
		}
	}
	if event == nil {
		return api.Errorf(api.ErrorNotFound, "no event with id %q visible in %s", eventID, sc)
	}

	msg := engine.Message{
		CorrelationID:      event.fni.CorrelationID,
		ProcessModelID:     event.fni.ProcessModelID,
		FlowNodeID:         event.fni.FlowNodeID,
		FlowNodeInstanceID: event.fni.ID,
		Payload:            payload,
		Identity:           identity,
	}
	if err := c.gw.Bus.Publish(ctx, engine.EventTriggerChannel(event.fni.ID), msg); err != nil {
		return api.WrapError(api.ErrorInternal, err, "error triggering event %q", eventID)
	}

	c.observer.OnEventTriggered(ctx, identity, eventID)
	return nil
}
