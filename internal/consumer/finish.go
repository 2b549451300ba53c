package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// FinishUserTask submits form values for a suspended user task and blocks
// until the engine reports the task finished.
//
// Visibility is re-resolved at call time under the model-in-correlation
// scope, so a task another identity could list cannot be finished by this
// one; a hidden task reports not_found, the same as a missing one.
//
// The finished subscription is registered before the result is published.
// The engine may report completion on the same goroutine that consumes the
// proceed message, and subscribing afterwards would miss it.
func (c *Client) FinishUserTask(ctx context.Context, identity api.Identity, processModelID, correlationID, userTaskID string, result api.UserTaskResult) error {
	if len(result.FormFields) == 0 {
		return api.Errorf(api.ErrorBadRequest, "user task result has no form fields")
	}

	sc := scope{processModelID: processModelID, correlationID: correlationID}
	nodes, err := c.visibleSuspended(ctx, identity, sc, engine.KindUserTask)
	if err != nil {
		return err
	}

	var task *visibleNode
	for i := range nodes {
		if nodes[i].fni.ID == userTaskID {
			task = &nodes[i]
			break
		}
	}
	if task == nil {
		return api.Errorf(api.ErrorNotFound, "no user task with id %q visible in %s", userTaskID, sc)
	}

	// Buffered so the bus handler never blocks; SubscribeOnce delivers at
	// most one message.
	done := make(chan engine.Message, 1)
	sub, err := c.gw.Bus.SubscribeOnce(engine.UserTaskFinishedChannel(userTaskID), func(msg engine.Message) {
		done <- msg
	})
	if err != nil {
		return api.WrapError(api.ErrorInternal, err, "error subscribing to completion of user task %q", userTaskID)
	}
	defer sub.Close()

	start := time.Now()
	proceed := engine.Message{
		CorrelationID:      task.fni.CorrelationID,
		ProcessModelID:     task.fni.ProcessModelID,
		FlowNodeID:         task.fni.FlowNodeID,
		FlowNodeInstanceID: task.fni.ID,
		Payload:            result.FormFields,
		Identity:           identity,
	}
	if err := c.gw.Bus.Publish(ctx, engine.UserTaskProceedChannel(userTaskID), proceed); err != nil {
		return api.WrapError(api.ErrorInternal, err, "error submitting result for user task %q", userTaskID)
	}

	select {
	case msg := <-done:
		if msg.ProcessError != "" {
			c.logger.ErrorContext(ctx, "engine reported process error while finishing user task",
				slog.String("user_task_id", userTaskID),
				slog.String("correlation_id", task.fni.CorrelationID),
				slog.String("process_error", msg.ProcessError),
			)
			return api.Errorf(api.ErrorInternal, "an error occurred while executing the process")
		}
		c.observer.OnUserTaskFinished(ctx, identity, userTaskID, time.Since(start))
		return nil
	case <-ctx.Done():
		return api.WrapError(api.ErrorInternal, ctx.Err(), "canceled while waiting for user task %q to finish", userTaskID)
	}
}
