package api

import "context"

// Client is the consumer-facing surface of the gate.
//
// Every method evaluates the identity's claims against the lanes of the
// process definitions in scope and returns only what the identity may see.
// All errors are *Error values; use KindOf or the IsXxx helpers to branch.
//
// Methods that wait on the engine (FinishUserTask, StartProcessInstance with
// StartCallbackOnEndEventReached) impose no timeout of their own; cancel the
// context to stop waiting.
type Client interface {
	// ListProcessModels returns the deployed process models visible to the
	// identity. Models without any accessible lane are omitted rather than
	// failing the whole listing.
	ListProcessModels(ctx context.Context, identity Identity) (ProcessModelList, error)

	// GetProcessModelByID returns one process model. It fails with Forbidden
	// when the model exists but none of its lanes is accessible.
	GetProcessModelByID(ctx context.Context, identity Identity, processModelID string) (ProcessModel, error)

	// StartProcessInstance starts an instance of the model at the given start
	// event. Depending on req.Callback it returns after instance creation or
	// after the requested end event is reached.
	StartProcessInstance(ctx context.Context, identity Identity, processModelID, startEventID string, req StartProcessRequest) (ProcessStartResult, error)

	// GetProcessResults returns the finished end events of the correlation
	// that belong to the process which started it, with their token payloads.
	GetProcessResults(ctx context.Context, identity Identity, correlationID, processModelID string) ([]CorrelationResult, error)

	// ListUserTasksForProcessModel returns the suspended user tasks of the
	// model across all correlations, filtered to accessible lanes.
	ListUserTasksForProcessModel(ctx context.Context, identity Identity, processModelID string) (UserTaskList, error)

	// ListUserTasksForCorrelation returns the suspended user tasks of the
	// correlation, including those of transitively called sub-processes.
	ListUserTasksForCorrelation(ctx context.Context, identity Identity, correlationID string) (UserTaskList, error)

	// ListUserTasksForProcessModelInCorrelation narrows the correlation's
	// tasks to one process model.
	ListUserTasksForProcessModelInCorrelation(ctx context.Context, identity Identity, processModelID, correlationID string) (UserTaskList, error)

	// FinishUserTask submits the result for a visible suspended user task and
	// blocks until the engine reports the task finished.
	FinishUserTask(ctx context.Context, identity Identity, processModelID, correlationID, userTaskID string, result UserTaskResult) error

	// ListEventsForProcessModel returns the suspended catch events of the
	// model, filtered to accessible lanes.
	ListEventsForProcessModel(ctx context.Context, identity Identity, processModelID string) (EventList, error)

	// ListEventsForCorrelation returns the suspended catch events of the
	// correlation, including those of called sub-processes.
	ListEventsForCorrelation(ctx context.Context, identity Identity, correlationID string) (EventList, error)

	// TriggerEvent delivers a payload to a visible suspended catch event.
	// Delivery is fire-and-forget; the call does not wait for the engine to
	// act on it.
	TriggerEvent(ctx context.Context, identity Identity, processModelID, correlationID, eventID string, payload map[string]any) error
}
