// Package enginetest provides a scriptable stand-in for the external process
// engine.
//
// It populates any writable store with definitions and flow node instances,
// implements engine.Runtime with a scriptable start, and can wire a task's
// proceed channel to its finished channel the way a real engine completes
// work. It exists for tests and examples; nothing in it talks to a real
// engine.
package enginetest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/petrijr/flowgate/internal/persistence"
	"github.com/petrijr/flowgate/pkg/engine"
)

// Store is the writable surface Engine populates. The persistence bindings
// implement it on top of the engine read stores.
type Store interface {
	engine.DefinitionStore
	engine.InstanceStore
	engine.FlowNodeStore

	SaveProcessDefinition(ctx context.Context, def *engine.ProcessDefinition) error
	SaveProcessInstance(ctx context.Context, inst *engine.ProcessInstance) error
	SaveFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error
	UpdateFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error
}

// Engine is the fake engine. Create one with New, seed it through the
// fixture methods, and hand its Gateway to the gate under test.
type Engine struct {
	store  Store
	bus    engine.Bus
	logger *slog.Logger

	// StartFunc, when set, scripts what a start request does. The default
	// creates a main process instance of the requested model.
	StartFunc func(ctx context.Context, req engine.StartRequest) (engine.StartResult, error)
}

var _ engine.Runtime = (*Engine)(nil)

// New creates an Engine over the given store and bus. A nil store gets an
// in-memory one, which is what most tests want.
func New(store Store, bus engine.Bus) *Engine {
	if store == nil {
		store = persistence.NewMemoryStore()
	}
	return &Engine{
		store:  store,
		bus:    bus,
		logger: slog.Default(),
	}
}

// Gateway returns the engine.Gateway a gate needs to talk to this Engine.
func (e *Engine) Gateway() engine.Gateway {
	return engine.Gateway{
		Definitions: e.store,
		Instances:   e.store,
		FlowNodes:   e.store,
		Runtime:     e,
		Bus:         e.bus,
	}
}

// LoadDefinition stores a definition, assigning a fresh id when def.ID is
// empty, and returns it.
func (e *Engine) LoadDefinition(ctx context.Context, def *engine.ProcessDefinition) (*engine.ProcessDefinition, error) {
	if def.ID == "" {
		def.ID = "def-" + uuid.NewString()
	}
	if err := e.store.SaveProcessDefinition(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// CreateProcessInstance stores a process instance of the given model.
// callerID links the instance to the call activity that spawned it; pass ""
// for the main instance of a correlation.
func (e *Engine) CreateProcessInstance(ctx context.Context, processModelID, correlationID, callerID string) (*engine.ProcessInstance, error) {
	inst := &engine.ProcessInstance{
		ID:             "pi-" + uuid.NewString(),
		ProcessModelID: processModelID,
		CorrelationID:  correlationID,
		CallerID:       callerID,
	}
	if err := e.store.SaveProcessInstance(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// CreateSuspendedUserTask suspends the given user task of the instance with
// the given token payload, as the engine does when a token reaches the task.
func (e *Engine) CreateSuspendedUserTask(ctx context.Context, inst *engine.ProcessInstance, flowNodeID string, payload map[string]any) (*engine.FlowNodeInstance, error) {
	return e.createFlowNodeInstance(ctx, inst, flowNodeID, engine.KindUserTask, engine.StateSuspended, payload)
}

// CreateSuspendedEvent suspends the given signal or message catch event.
func (e *Engine) CreateSuspendedEvent(ctx context.Context, inst *engine.ProcessInstance, flowNodeID string, payload map[string]any) (*engine.FlowNodeInstance, error) {
	fni, err := e.createFlowNodeInstance(ctx, inst, flowNodeID, "", engine.StateSuspended, payload)
	if err != nil {
		return nil, err
	}
	if fni.Kind != engine.KindSignalCatchEvent && fni.Kind != engine.KindMessageCatchEvent {
		return nil, fmt.Errorf("enginetest: flow node %q of definition %q is %s, not a catch event", flowNodeID, inst.ProcessModelID, fni.Kind)
	}
	return fni, nil
}

// CreateFinishedEndEvent records that the instance reached the given end
// event with the given token payload.
func (e *Engine) CreateFinishedEndEvent(ctx context.Context, inst *engine.ProcessInstance, flowNodeID string, payload map[string]any) (*engine.FlowNodeInstance, error) {
	return e.createFlowNodeInstance(ctx, inst, flowNodeID, engine.KindEndEvent, engine.StateFinished, payload)
}

// CreateRunningCallActivity records that the instance is executing the given
// call activity. Its id is what a spawned sub-instance carries as CallerID.
func (e *Engine) CreateRunningCallActivity(ctx context.Context, inst *engine.ProcessInstance, flowNodeID string) (*engine.FlowNodeInstance, error) {
	return e.createFlowNodeInstance(ctx, inst, flowNodeID, engine.KindCallActivity, engine.StateRunning, nil)
}

// createFlowNodeInstance derives the node's kind from the definition so a
// fixture cannot seed data the definition contradicts. wantKind "" skips the
// kind check.
func (e *Engine) createFlowNodeInstance(ctx context.Context, inst *engine.ProcessInstance, flowNodeID string, wantKind engine.FlowNodeKind, state engine.FlowNodeState, payload map[string]any) (*engine.FlowNodeInstance, error) {
	def, err := e.store.ProcessDefinitionByID(ctx, inst.ProcessModelID)
	if err != nil {
		return nil, fmt.Errorf("enginetest: load definition %q: %w", inst.ProcessModelID, err)
	}
	node, ok := def.FlowNode(flowNodeID)
	if !ok {
		return nil, fmt.Errorf("enginetest: definition %q has no flow node %q", def.ID, flowNodeID)
	}
	if wantKind != "" && node.Kind != wantKind {
		return nil, fmt.Errorf("enginetest: flow node %q of definition %q is %s, not %s", flowNodeID, def.ID, node.Kind, wantKind)
	}

	fni := &engine.FlowNodeInstance{
		ID:                "fni-" + uuid.NewString(),
		FlowNodeID:        flowNodeID,
		Kind:              node.Kind,
		State:             state,
		ProcessInstanceID: inst.ID,
		ProcessModelID:    inst.ProcessModelID,
		CorrelationID:     inst.CorrelationID,
		Token:             engine.Token{Payload: payload, Caller: inst.CallerID},
	}
	if err := e.store.SaveFlowNodeInstance(ctx, fni); err != nil {
		return nil, err
	}
	return fni, nil
}

// StartProcessInstance implements engine.Runtime.
func (e *Engine) StartProcessInstance(ctx context.Context, req engine.StartRequest) (engine.StartResult, error) {
	if e.StartFunc != nil {
		return e.StartFunc(ctx, req)
	}
	inst, err := e.CreateProcessInstance(ctx, req.ProcessModelID, req.CorrelationID, "")
	if err != nil {
		return engine.StartResult{}, err
	}
	return engine.StartResult{ProcessInstanceID: inst.ID}, nil
}

// AutoCompleteUserTask arranges for the task to complete as soon as its
// result is published: the form values are merged into the token, the node is
// marked finished and the finished message goes out, all on the publisher's
// goroutine like the in-process bus delivers.
func (e *Engine) AutoCompleteUserTask(ctx context.Context, flowNodeInstanceID string) error {
	_, err := e.bus.SubscribeOnce(engine.UserTaskProceedChannel(flowNodeInstanceID), func(msg engine.Message) {
		if err := e.completeUserTask(context.Background(), msg); err != nil {
			e.logger.Error("enginetest: auto-complete failed",
				slog.String("flow_node_instance_id", flowNodeInstanceID),
				slog.String("error", err.Error()),
			)
		}
	})
	return err
}

// AutoCompleteUserTasks wires AutoCompleteUserTask for every currently
// suspended user task.
func (e *Engine) AutoCompleteUserTasks(ctx context.Context) error {
	fnis, err := e.store.FlowNodeInstances(ctx, engine.FlowNodeFilter{
		Kind:  engine.KindUserTask,
		State: engine.StateSuspended,
	})
	if err != nil {
		return err
	}
	for _, fni := range fnis {
		if err := e.AutoCompleteUserTask(ctx, fni.ID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) completeUserTask(ctx context.Context, msg engine.Message) error {
	fnis, err := e.store.FlowNodeInstances(ctx, engine.FlowNodeFilter{
		CorrelationID: msg.CorrelationID,
		Kind:          engine.KindUserTask,
	})
	if err != nil {
		return err
	}
	var task *engine.FlowNodeInstance
	for _, fni := range fnis {
		if fni.ID == msg.FlowNodeInstanceID {
			task = fni
			break
		}
	}
	if task == nil {
		return fmt.Errorf("enginetest: no user task instance %q in correlation %q", msg.FlowNodeInstanceID, msg.CorrelationID)
	}

	merged := make(map[string]any, len(task.Token.Payload)+len(msg.Payload))
	for k, v := range task.Token.Payload {
		merged[k] = v
	}
	for k, v := range msg.Payload {
		merged[k] = v
	}

	updated := *task
	updated.State = engine.StateFinished
	updated.Token = engine.Token{Payload: merged, Caller: task.Token.Caller}
	if err := e.store.UpdateFlowNodeInstance(ctx, &updated); err != nil {
		return err
	}

	return e.bus.Publish(ctx, engine.UserTaskFinishedChannel(task.ID), engine.Message{
		CorrelationID:      task.CorrelationID,
		ProcessModelID:     task.ProcessModelID,
		FlowNodeID:         task.FlowNodeID,
		FlowNodeInstanceID: task.ID,
		Payload:            merged,
	})
}

// PublishEndEvent reports that a correlation reached an end event, the way a
// real engine does once the last token arrives.
func (e *Engine) PublishEndEvent(ctx context.Context, correlationID, endEventID string, payload map[string]any) error {
	return e.bus.Publish(ctx, engine.EndEventChannel(correlationID, endEventID), engine.Message{
		CorrelationID: correlationID,
		FlowNodeID:    endEventID,
		Payload:       payload,
	})
}

// PublishProcessError reports an engine-side failure on the given channel,
// for tests that exercise the generic internal error mapping.
func (e *Engine) PublishProcessError(ctx context.Context, channel, processError string) error {
	return e.bus.Publish(ctx, channel, engine.Message{ProcessError: processError})
}
