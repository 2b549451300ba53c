package consumer

import (
	"context"
	"testing"

	"github.com/petrijr/flowgate/pkg/api"
)

func TestListUserTasksForProcessModel_FiltersByLane(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.loadDefinition(t, orderDefinition())
	inst := f.instance(t, "def-order", "corr-1", "")

	payload := map[string]any{
		"amount":   120.5,
		"customer": map[string]any{"name": "Ada"},
	}
	approve := f.userTask(t, inst, "approve-order", payload)
	f.userTask(t, inst, "signoff-order", nil)
	f.userTask(t, inst, "offline-step", nil)

	list, err := f.client.ListUserTasksForProcessModel(ctx, identityWith("clerk"), "def-order")
	if err != nil {
		t.Fatalf("ListUserTasksForProcessModel: %v", err)
	}
	if len(list.UserTasks) != 1 {
		t.Fatalf("clerk sees %d tasks, want 1", len(list.UserTasks))
	}

	task := list.UserTasks[0]
	if task.ID != approve.ID {
		t.Fatalf("task id = %q, want %q", task.ID, approve.ID)
	}
	if task.Key != "approve-order" || task.Name != "Approve order" {
		t.Fatalf("unexpected task identity: %+v", task)
	}
	if task.CorrelationID != "corr-1" || task.ProcessInstanceID != inst.ID {
		t.Fatalf("unexpected task linkage: %+v", task)
	}
	if task.TokenPayload["amount"] != 120.5 {
		t.Fatalf("token payload lost: %v", task.TokenPayload)
	}

	if len(task.Config.FormFields) != 2 {
		t.Fatalf("expected 2 form fields, got %d", len(task.Config.FormFields))
	}
	approved := task.Config.FormFields[0]
	if approved.Label != "Approve order over 120.5?" {
		t.Fatalf("label not evaluated: %q", approved.Label)
	}
	if approved.Type != api.FormFieldBoolean || approved.DefaultValue != "false" {
		t.Fatalf("unexpected field: %+v", approved)
	}
	note := task.Config.FormFields[1]
	if note.DefaultValue != "Ada" {
		t.Fatalf("default not evaluated: %q", note.DefaultValue)
	}

	// The manager lane sees only its own task; the no-lane task stays hidden
	// from everyone.
	list, err = f.client.ListUserTasksForProcessModel(ctx, identityWith("manager"), "def-order")
	if err != nil {
		t.Fatalf("ListUserTasksForProcessModel: %v", err)
	}
	if len(list.UserTasks) != 1 || list.UserTasks[0].Key != "signoff-order" {
		t.Fatalf("manager sees %v, want only signoff-order", list.UserTasks)
	}

	list, err = f.client.ListUserTasksForProcessModel(ctx, identityWith("clerk", "manager"), "def-order")
	if err != nil {
		t.Fatalf("ListUserTasksForProcessModel: %v", err)
	}
	if len(list.UserTasks) != 2 {
		t.Fatalf("clerk+manager see %d tasks, want 2", len(list.UserTasks))
	}
}

func TestListUserTasksForProcessModel_Errors(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.loadDefinition(t, orderDefinition())

	_, err := f.client.ListUserTasksForProcessModel(ctx, identityWith("clerk"), "def-missing")
	if !api.IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}

	_, err = f.client.ListUserTasksForProcessModel(ctx, identityWith("intern"), "def-order")
	if !api.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if denied := f.obs.deniedScopes(); len(denied) != 1 {
		t.Fatalf("expected 1 denial, got %v", denied)
	}
}

func TestListUserTasksForProcessModel_BlankFormIsUnprocessable(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.loadDefinition(t, orderDefinition())
	inst := f.instance(t, "def-order", "corr-1", "")
	f.userTask(t, inst, "blank-form", nil)

	_, err := f.client.ListUserTasksForProcessModel(ctx, identityWith("clerk"), "def-order")
	if !api.IsUnprocessableEntity(err) {
		t.Fatalf("expected unprocessable_entity, got %v", err)
	}
}

// seedCorrelation builds a correlation with a main order instance, one
// suspended task per lane, and a compliance review sub-process with its own
// suspended task.
func seedCorrelation(t *testing.T, f *gateFixture, correlationID string) (mainTaskID, reviewTaskID string) {
	t.Helper()
	f.loadDefinition(t, orderDefinition())
	f.loadDefinition(t, reviewDefinition())

	main := f.instance(t, "def-order", correlationID, "")
	approve := f.userTask(t, main, "approve-order", map[string]any{"amount": 99.0})
	call := f.callActivity(t, main, "run-review")

	sub := f.instance(t, "def-review", correlationID, call.ID)
	review := f.userTask(t, sub, "review-order", map[string]any{"amount": 99.0})

	return approve.ID, review.ID
}

func TestListUserTasksForCorrelation_AggregatesSubProcesses(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	mainTaskID, reviewTaskID := seedCorrelation(t, f, "corr-9")

	list, err := f.client.ListUserTasksForCorrelation(ctx, identityWith("clerk", "compliance"), "corr-9")
	if err != nil {
		t.Fatalf("ListUserTasksForCorrelation: %v", err)
	}
	if len(list.UserTasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(list.UserTasks))
	}
	// Main instance tasks come first, discovery order.
	if list.UserTasks[0].ID != mainTaskID || list.UserTasks[1].ID != reviewTaskID {
		t.Fatalf("unexpected order: %q, %q", list.UserTasks[0].ID, list.UserTasks[1].ID)
	}
}

func TestListUserTasksForCorrelation_SkipsInstancesWithoutAccess(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	mainTaskID, reviewTaskID := seedCorrelation(t, f, "corr-9")

	// A clerk cannot see the review sub-process; it contributes nothing and
	// is not a denial.
	list, err := f.client.ListUserTasksForCorrelation(ctx, identityWith("clerk"), "corr-9")
	if err != nil {
		t.Fatalf("ListUserTasksForCorrelation: %v", err)
	}
	if len(list.UserTasks) != 1 || list.UserTasks[0].ID != mainTaskID {
		t.Fatalf("clerk sees %v, want only the main task", list.UserTasks)
	}
	if denied := f.obs.deniedScopes(); len(denied) != 0 {
		t.Fatalf("skipping a sub-process must not record a denial: %v", denied)
	}

	list, err = f.client.ListUserTasksForCorrelation(ctx, identityWith("compliance"), "corr-9")
	if err != nil {
		t.Fatalf("ListUserTasksForCorrelation: %v", err)
	}
	if len(list.UserTasks) != 1 || list.UserTasks[0].ID != reviewTaskID {
		t.Fatalf("compliance sees %v, want only the review task", list.UserTasks)
	}

	_, err = f.client.ListUserTasksForCorrelation(ctx, identityWith("intern"), "corr-9")
	if !api.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestListUserTasksForCorrelation_UnknownCorrelation(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.loadDefinition(t, orderDefinition())

	_, err := f.client.ListUserTasksForCorrelation(ctx, identityWith("clerk"), "corr-missing")
	if !api.IsNotFound(err) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestListUserTasksForProcessModelInCorrelation(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	mainTaskID, reviewTaskID := seedCorrelation(t, f, "corr-9")

	list, err := f.client.ListUserTasksForProcessModelInCorrelation(ctx, identityWith("compliance"), "def-review", "corr-9")
	if err != nil {
		t.Fatalf("ListUserTasksForProcessModelInCorrelation: %v", err)
	}
	if len(list.UserTasks) != 1 || list.UserTasks[0].ID != reviewTaskID {
		t.Fatalf("got %v, want only the review task", list.UserTasks)
	}

	list, err = f.client.ListUserTasksForProcessModelInCorrelation(ctx, identityWith("clerk"), "def-order", "corr-9")
	if err != nil {
		t.Fatalf("ListUserTasksForProcessModelInCorrelation: %v", err)
	}
	if len(list.UserTasks) != 1 || list.UserTasks[0].ID != mainTaskID {
		t.Fatalf("got %v, want only the main task", list.UserTasks)
	}

	_, err = f.client.ListUserTasksForProcessModelInCorrelation(ctx, identityWith("clerk"), "def-missing", "corr-9")
	if !api.IsNotFound(err) {
		t.Fatalf("expected not_found for unknown model, got %v", err)
	}
}

func TestListUserTasksForProcessModelInCorrelation_NoInstancesOfModel(t *testing.T) {
	ctx := context.Background()
	f := newGateFixture(t)
	f.loadDefinition(t, orderDefinition())
	f.loadDefinition(t, reviewDefinition())
	inst := f.instance(t, "def-order", "corr-solo", "")
	f.userTask(t, inst, "approve-order", nil)

	// The correlation never ran a review. The model is accessible, so this is
	// an empty list, not a denial.
	list, err := f.client.ListUserTasksForProcessModelInCorrelation(ctx, identityWith("compliance"), "def-review", "corr-solo")
	if err != nil {
		t.Fatalf("ListUserTasksForProcessModelInCorrelation: %v", err)
	}
	if len(list.UserTasks) != 0 {
		t.Fatalf("expected no tasks, got %v", list.UserTasks)
	}
	if denied := f.obs.deniedScopes(); len(denied) != 0 {
		t.Fatalf("unexpected denial: %v", denied)
	}
}
