package consumer

import (
	"context"

	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// ListUserTasksForProcessModel returns the suspended user tasks of the model,
// across all correlations, that sit in lanes accessible to the identity.
func (c *Client) ListUserTasksForProcessModel(ctx context.Context, identity api.Identity, processModelID string) (api.UserTaskList, error) {
	return c.listUserTasks(ctx, identity, scope{processModelID: processModelID})
}

// ListUserTasksForCorrelation returns the suspended user tasks of every
// process instance belonging to the correlation, main and sub-processes
// alike, that sit in lanes accessible to the identity.
func (c *Client) ListUserTasksForCorrelation(ctx context.Context, identity api.Identity, correlationID string) (api.UserTaskList, error) {
	return c.listUserTasks(ctx, identity, scope{correlationID: correlationID})
}

// ListUserTasksForProcessModelInCorrelation returns the suspended user tasks
// of the correlation's instances of one model.
func (c *Client) ListUserTasksForProcessModelInCorrelation(ctx context.Context, identity api.Identity, processModelID, correlationID string) (api.UserTaskList, error) {
	return c.listUserTasks(ctx, identity, scope{processModelID: processModelID, correlationID: correlationID})
}

func (c *Client) listUserTasks(ctx context.Context, identity api.Identity, sc scope) (api.UserTaskList, error) {
	nodes, err := c.visibleSuspended(ctx, identity, sc, engine.KindUserTask)
	if err != nil {
		return api.UserTaskList{}, err
	}

	tasks := make([]api.UserTask, 0, len(nodes))
	for _, vn := range nodes {
		task, err := toUserTask(vn)
		if err != nil {
			return api.UserTaskList{}, err
		}
		tasks = append(tasks, *task)
	}

	return api.UserTaskList{UserTasks: tasks}, nil
}
