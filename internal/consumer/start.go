package consumer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// StartProcessInstance validates the request, asks the engine to create an
// instance and, depending on the callback mode, returns immediately or blocks
// until the named end event of the new correlation is reached.
//
// For StartCallbackOnEndEventReached the end-event subscription is registered
// before the engine is asked to start: a short process may reach its end
// event before this function regains control, and subscribing afterwards
// would wait forever.
func (c *Client) StartProcessInstance(ctx context.Context, identity api.Identity, processModelID, startEventID string, req api.StartProcessRequest) (api.ProcessStartResult, error) {
	awaitEnd := false
	switch req.Callback {
	case api.StartCallbackOnInstanceCreated:
	case api.StartCallbackOnEndEventReached:
		awaitEnd = true
	default:
		return api.ProcessStartResult{}, api.Errorf(api.ErrorBadRequest, "unsupported start callback type %q", req.Callback)
	}
	if awaitEnd && req.EndEventID == "" {
		return api.ProcessStartResult{}, api.Errorf(api.ErrorBadRequest, "an end event id is required for callback type %q", req.Callback)
	}

	def, err := c.definitionByID(ctx, processModelID)
	if err != nil {
		return api.ProcessStartResult{}, err
	}
	if !def.Executable {
		return api.ProcessStartResult{}, api.Errorf(api.ErrorBadRequest, "process model %q is not executable", processModelID)
	}
	if node, ok := def.FlowNode(startEventID); !ok || node.Kind != engine.KindStartEvent {
		return api.ProcessStartResult{}, api.Errorf(api.ErrorNotFound, "no start event %q in process model %q", startEventID, processModelID)
	}
	if awaitEnd {
		if node, ok := def.FlowNode(req.EndEventID); !ok || node.Kind != engine.KindEndEvent {
			return api.ProcessStartResult{}, api.Errorf(api.ErrorNotFound, "no end event %q in process model %q", req.EndEventID, processModelID)
		}
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	var done chan engine.Message
	if awaitEnd {
		done = make(chan engine.Message, 1)
		sub, err := c.gw.Bus.SubscribeOnce(engine.EndEventChannel(correlationID, req.EndEventID), func(msg engine.Message) {
			done <- msg
		})
		if err != nil {
			return api.ProcessStartResult{}, api.WrapError(api.ErrorInternal, err, "error subscribing to end event %q", req.EndEventID)
		}
		defer sub.Close()
	}

	startRes, err := c.gw.Runtime.StartProcessInstance(ctx, engine.StartRequest{
		Identity:       identity,
		ProcessModelID: processModelID,
		StartEventID:   startEventID,
		CorrelationID:  correlationID,
		InputValues:    req.InputValues,
	})
	if err != nil {
		return api.ProcessStartResult{}, api.WrapError(api.ErrorInternal, err, "error starting process model %q", processModelID)
	}

	c.observer.OnProcessStarted(ctx, identity, processModelID, correlationID)
	result := api.ProcessStartResult{
		ProcessInstanceID: startRes.ProcessInstanceID,
		CorrelationID:     correlationID,
	}

	if !awaitEnd {
		return result, nil
	}

	select {
	case msg := <-done:
		if msg.ProcessError != "" {
			c.logger.ErrorContext(ctx, "engine reported process error while awaiting end event",
				slog.String("correlation_id", correlationID),
				slog.String("end_event_id", req.EndEventID),
				slog.String("process_error", msg.ProcessError),
			)
			return api.ProcessStartResult{}, api.Errorf(api.ErrorInternal, "an error occurred while executing the process")
		}
		c.observer.OnProcessEnded(ctx, correlationID, req.EndEventID)
		result.EndEventID = req.EndEventID
		result.TokenPayload = msg.Payload
		return result, nil
	case <-ctx.Done():
		return api.ProcessStartResult{}, api.WrapError(api.ErrorInternal, ctx.Err(), "canceled while waiting for end event %q of correlation %q", req.EndEventID, correlationID)
	}
}
