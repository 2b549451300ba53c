package enginetest

import (
	"context"
	"testing"

	"github.com/petrijr/flowgate/internal/notify"
	"github.com/petrijr/flowgate/internal/persistence"
	"github.com/petrijr/flowgate/pkg/engine"
)

func testDefinition() *engine.ProcessDefinition {
	return &engine.ProcessDefinition{
		ID:         "def-order",
		Key:        "order",
		Name:       "Order",
		Executable: true,
		FlowNodes: []engine.FlowNode{
			{ID: "start", Kind: engine.KindStartEvent},
			{ID: "approve", Name: "Approve order", Kind: engine.KindUserTask, FormFields: []engine.FormField{
				{ID: "approved", Label: "Approve?", Type: "boolean"},
			}},
			{ID: "done", Kind: engine.KindEndEvent},
		},
		Lanes: &engine.LaneSet{Lanes: []engine.Lane{
			{ID: "lane-clerk", Name: "clerk", FlowNodeIDs: []string{"start", "approve", "done"}},
		}},
	}
}

func newTestEngine(t *testing.T) (*Engine, *persistence.MemoryStore) {
	t.Helper()
	store := persistence.NewMemoryStore()
	return New(store, notify.NewBus()), store
}

func TestEngine_DefaultStartCreatesMainInstance(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t)
	if _, err := eng.LoadDefinition(ctx, testDefinition()); err != nil {
		t.Fatalf("LoadDefinition: %v", err)
	}

	result, err := eng.StartProcessInstance(ctx, engine.StartRequest{
		ProcessModelID: "def-order",
		StartEventID:   "start",
		CorrelationID:  "corr-1",
	})
	if err != nil {
		t.Fatalf("StartProcessInstance: %v", err)
	}
	if result.ProcessInstanceID == "" {
		t.Fatal("expected a process instance id")
	}

	instances, err := store.ProcessInstances(ctx, engine.InstanceFilter{CorrelationID: "corr-1", OnlyMain: true})
	if err != nil {
		t.Fatalf("ProcessInstances: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("expected 1 main instance, got %d", len(instances))
	}
	if instances[0].ID != result.ProcessInstanceID {
		t.Fatalf("instance id = %q, want %q", instances[0].ID, result.ProcessInstanceID)
	}
	if instances[0].CallerID != "" {
		t.Fatalf("main instance has caller %q", instances[0].CallerID)
	}
}

func TestEngine_ScriptedStart(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	called := false
	eng.StartFunc = func(ctx context.Context, req engine.StartRequest) (engine.StartResult, error) {
		called = true
		return engine.StartResult{ProcessInstanceID: "scripted"}, nil
	}

	result, err := eng.StartProcessInstance(ctx, engine.StartRequest{ProcessModelID: "def-order"})
	if err != nil {
		t.Fatalf("StartProcessInstance: %v", err)
	}
	if !called {
		t.Fatal("StartFunc was not invoked")
	}
	if result.ProcessInstanceID != "scripted" {
		t.Fatalf("instance id = %q, want %q", result.ProcessInstanceID, "scripted")
	}
}

func TestEngine_AutoCompleteUserTask(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()
	bus := notify.NewBus()
	eng := New(store, bus)

	if _, err := eng.LoadDefinition(ctx, testDefinition()); err != nil {
		t.Fatalf("LoadDefinition: %v", err)
	}
	inst, err := eng.CreateProcessInstance(ctx, "def-order", "corr-1", "")
	if err != nil {
		t.Fatalf("CreateProcessInstance: %v", err)
	}
	task, err := eng.CreateSuspendedUserTask(ctx, inst, "approve", map[string]any{"amount": 41.5})
	if err != nil {
		t.Fatalf("CreateSuspendedUserTask: %v", err)
	}
	if err := eng.AutoCompleteUserTasks(ctx); err != nil {
		t.Fatalf("AutoCompleteUserTasks: %v", err)
	}

	var finished []engine.Message
	if _, err := bus.SubscribeOnce(engine.UserTaskFinishedChannel(task.ID), func(msg engine.Message) {
		finished = append(finished, msg)
	}); err != nil {
		t.Fatalf("SubscribeOnce: %v", err)
	}

	err = bus.Publish(ctx, engine.UserTaskProceedChannel(task.ID), engine.Message{
		CorrelationID:      task.CorrelationID,
		ProcessModelID:     task.ProcessModelID,
		FlowNodeID:         task.FlowNodeID,
		FlowNodeInstanceID: task.ID,
		Payload:            map[string]any{"approved": true},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(finished) != 1 {
		t.Fatalf("expected 1 finished message, got %d", len(finished))
	}
	if finished[0].Payload["approved"] != true || finished[0].Payload["amount"] != 41.5 {
		t.Fatalf("finished payload not merged: %v", finished[0].Payload)
	}

	fnis, err := store.FlowNodeInstances(ctx, engine.FlowNodeFilter{CorrelationID: "corr-1", Kind: engine.KindUserTask})
	if err != nil {
		t.Fatalf("FlowNodeInstances: %v", err)
	}
	if len(fnis) != 1 {
		t.Fatalf("expected 1 task instance, got %d", len(fnis))
	}
	if fnis[0].State != engine.StateFinished {
		t.Fatalf("task state = %q, want %q", fnis[0].State, engine.StateFinished)
	}
	if fnis[0].Token.Payload["amount"] != 41.5 {
		t.Fatalf("token lost seeded payload: %v", fnis[0].Token.Payload)
	}
}

func TestEngine_FixtureRejectsWrongKind(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	if _, err := eng.LoadDefinition(ctx, testDefinition()); err != nil {
		t.Fatalf("LoadDefinition: %v", err)
	}
	inst, err := eng.CreateProcessInstance(ctx, "def-order", "corr-1", "")
	if err != nil {
		t.Fatalf("CreateProcessInstance: %v", err)
	}

	if _, err := eng.CreateSuspendedUserTask(ctx, inst, "done", nil); err == nil {
		t.Fatal("expected an error seeding a user task on an end event node")
	}
	if _, err := eng.CreateSuspendedEvent(ctx, inst, "approve", nil); err == nil {
		t.Fatal("expected an error seeding a catch event on a user task node")
	}
	if _, err := eng.CreateSuspendedUserTask(ctx, inst, "nope", nil); err == nil {
		t.Fatal("expected an error for an unknown flow node")
	}
}

func TestRecordingBus_RecordsCallOrder(t *testing.T) {
	ctx := context.Background()
	bus := NewRecordingBus(notify.NewBus())

	if _, err := bus.SubscribeOnce("ch-1", func(engine.Message) {}); err != nil {
		t.Fatalf("SubscribeOnce: %v", err)
	}
	if err := bus.Publish(ctx, "ch-1", engine.Message{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	ops := bus.Ops()
	want := []string{"subscribe ch-1", "publish ch-1"}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("ops[%d] = %q, want %q", i, ops[i], want[i])
		}
	}
}
