package api

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

//
// Helpers
//

// testObserver is a simple Observer implementation used to verify fan-out behavior.
type testObserver struct {
	mu sync.Mutex

	starts   int
	ends     int
	finishes int
	triggers int
	denials  int

	lastStart struct {
		Identity       Identity
		ProcessModelID string
		CorrelationID  string
	}
	lastEnd struct {
		CorrelationID string
		EndEventID    string
	}
	lastFinish struct {
		Identity   Identity
		UserTaskID string
		Duration   time.Duration
	}
	lastTrigger struct {
		Identity Identity
		EventID  string
	}
	lastDenial struct {
		Identity Identity
		Scope    string
	}
}

func (o *testObserver) OnProcessStarted(ctx context.Context, identity Identity, processModelID, correlationID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts++
	o.lastStart = struct {
		Identity       Identity
		ProcessModelID string
		CorrelationID  string
	}{identity, processModelID, correlationID}
}

func (o *testObserver) OnProcessEnded(ctx context.Context, correlationID, endEventID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ends++
	o.lastEnd = struct {
		CorrelationID string
		EndEventID    string
	}{correlationID, endEventID}
}

func (o *testObserver) OnUserTaskFinished(ctx context.Context, identity Identity, userTaskID string, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finishes++
	o.lastFinish = struct {
		Identity   Identity
		UserTaskID string
		Duration   time.Duration
	}{identity, userTaskID, d}
}

func (o *testObserver) OnEventTriggered(ctx context.Context, identity Identity, eventID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.triggers++
	o.lastTrigger = struct {
		Identity Identity
		EventID  string
	}{identity, eventID}
}

func (o *testObserver) OnAccessDenied(ctx context.Context, identity Identity, scope string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.denials++
	o.lastDenial = struct {
		Identity Identity
		Scope    string
	}{identity, scope}
}

// recordingHandler is a minimal slog.Handler that just records log records.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(name string) slog.Handler { return h }

func attrsToMap(r slog.Record) map[string]any {
	m := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value.Any()
		return true
	})
	return m
}

func newTestIdentity() Identity {
	return Identity{UserID: "user-123", Claims: []string{"clerk"}}
}

//
// NoopObserver
//

func TestNoopObserver_DoesNotPanic(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity()
	var o Observer = NoopObserver{}

	// These calls should simply not panic.
	o.OnProcessStarted(ctx, id, "model-1", "corr-1")
	o.OnProcessEnded(ctx, "corr-1", "end-1")
	o.OnUserTaskFinished(ctx, id, "task-1", time.Second)
	o.OnEventTriggered(ctx, id, "event-1")
	o.OnAccessDenied(ctx, id, "process model model-1")
}

//
// CompositeObserver
//

func TestNewCompositeObserver_EmptyReturnsNoop(t *testing.T) {
	o := NewCompositeObserver()
	if _, ok := o.(NoopObserver); !ok {
		t.Fatalf("expected NewCompositeObserver() to return NoopObserver, got %T", o)
	}
}

func TestNewCompositeObserver_SingleReturnsThatObserver(t *testing.T) {
	single := &testObserver{}
	o := NewCompositeObserver(single, nil) // include a nil to ensure it is filtered

	if got, ok := o.(*testObserver); !ok || got != single {
		t.Fatalf("expected the single non-nil observer to be returned, got %T (%p)", o, o)
	}
}

func TestNewCompositeObserver_MultipleReturnsComposite(t *testing.T) {
	o1 := &testObserver{}
	o2 := &testObserver{}
	o := NewCompositeObserver(o1, o2)

	if _, ok := o.(*CompositeObserver); !ok {
		t.Fatalf("expected *CompositeObserver, got %T", o)
	}
}

func TestCompositeObserver_ForwardsAllCallbacks(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity()

	o1 := &testObserver{}
	o2 := &testObserver{}
	co, ok := NewCompositeObserver(o1, o2).(*CompositeObserver)
	if !ok {
		t.Fatalf("expected *CompositeObserver")
	}

	co.OnProcessStarted(ctx, id, "model-1", "corr-1")
	co.OnProcessEnded(ctx, "corr-1", "end-1")
	co.OnUserTaskFinished(ctx, id, "task-1", 2*time.Second)
	co.OnEventTriggered(ctx, id, "event-1")
	co.OnAccessDenied(ctx, id, "correlation corr-1")

	for i, o := range []*testObserver{o1, o2} {
		if o.starts != 1 || o.ends != 1 || o.finishes != 1 || o.triggers != 1 || o.denials != 1 {
			t.Fatalf("observer %d did not receive all calls: %+v", i+1, o)
		}
		if o.lastStart.ProcessModelID != "model-1" || o.lastStart.CorrelationID != "corr-1" {
			t.Fatalf("observer %d start mismatch: %+v", i+1, o.lastStart)
		}
		if o.lastEnd.CorrelationID != "corr-1" || o.lastEnd.EndEventID != "end-1" {
			t.Fatalf("observer %d end mismatch: %+v", i+1, o.lastEnd)
		}
		if o.lastFinish.UserTaskID != "task-1" || o.lastFinish.Duration != 2*time.Second {
			t.Fatalf("observer %d finish mismatch: %+v", i+1, o.lastFinish)
		}
		if o.lastTrigger.EventID != "event-1" {
			t.Fatalf("observer %d trigger mismatch: %+v", i+1, o.lastTrigger)
		}
		if o.lastDenial.Scope != "correlation corr-1" {
			t.Fatalf("observer %d denial mismatch: %+v", i+1, o.lastDenial)
		}
	}
}

//
// LoggingObserver
//

func TestNewLoggingObserver_NilLoggerUsesDefault(t *testing.T) {
	o := NewLoggingObserver(nil)
	lo, ok := o.(*LoggingObserver)
	if !ok {
		t.Fatalf("expected *LoggingObserver, got %T", o)
	}
	if lo.Logger == nil {
		t.Fatalf("expected non-nil Logger when created with nil")
	}
}

func TestLoggingObserver_OnProcessStarted_EmitsInfoLog(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity()

	h := &recordingHandler{}
	logger := slog.New(h)
	o := NewLoggingObserver(logger)

	o.OnProcessStarted(ctx, id, "model-1", "corr-1")

	if len(h.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(h.records))
	}

	rec := h.records[0]
	if rec.Level != slog.LevelInfo {
		t.Fatalf("expected LevelInfo, got %v", rec.Level)
	}
	if rec.Message != "process_started" {
		t.Fatalf("expected message process_started, got %q", rec.Message)
	}

	attrs := attrsToMap(rec)
	if attrs["user_id"] != id.UserID {
		t.Fatalf("expected user_id=%q, got %v", id.UserID, attrs["user_id"])
	}
	if attrs["process_model_id"] != "model-1" {
		t.Fatalf("expected process_model_id=model-1, got %v", attrs["process_model_id"])
	}
	if attrs["correlation_id"] != "corr-1" {
		t.Fatalf("expected correlation_id=corr-1, got %v", attrs["correlation_id"])
	}
}

func TestLoggingObserver_OnAccessDenied_EmitsWarnLog(t *testing.T) {
	ctx := context.Background()
	id := newTestIdentity()

	h := &recordingHandler{}
	logger := slog.New(h)
	o := NewLoggingObserver(logger)

	o.OnAccessDenied(ctx, id, "process model model-1")

	if len(h.records) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(h.records))
	}

	rec := h.records[0]
	if rec.Level != slog.LevelWarn {
		t.Fatalf("expected LevelWarn, got %v", rec.Level)
	}
	if rec.Message != "access_denied" {
		t.Fatalf("expected message access_denied, got %q", rec.Message)
	}

	attrs := attrsToMap(rec)
	if attrs["scope"] != "process model model-1" {
		t.Fatalf("expected scope attribute, got %v", attrs["scope"])
	}
}

//
// BasicMetrics
//

func TestBasicMetrics_CountersAndSnapshot(t *testing.T) {
	var m BasicMetrics

	ctx := context.Background()
	id := newTestIdentity()

	m.OnProcessStarted(ctx, id, "model-1", "corr-1")
	m.OnProcessStarted(ctx, id, "model-1", "corr-2")
	m.OnProcessEnded(ctx, "corr-1", "end-1")
	m.OnEventTriggered(ctx, id, "event-1")
	m.OnAccessDenied(ctx, id, "correlation corr-3")

	snap := m.Snapshot()

	if snap.ProcessesStarted != 2 {
		t.Fatalf("ProcessesStarted=%d, want 2", snap.ProcessesStarted)
	}
	if snap.ProcessesEnded != 1 {
		t.Fatalf("ProcessesEnded=%d, want 1", snap.ProcessesEnded)
	}
	if snap.EventsTriggered != 1 {
		t.Fatalf("EventsTriggered=%d, want 1", snap.EventsTriggered)
	}
	if snap.AccessDenials != 1 {
		t.Fatalf("AccessDenials=%d, want 1", snap.AccessDenials)
	}
	// No rendezvous metrics yet.
	if snap.UserTasksFinished != 0 {
		t.Fatalf("UserTasksFinished=%d, want 0", snap.UserTasksFinished)
	}
	if snap.AvgTaskWait != 0 {
		t.Fatalf("AvgTaskWait=%v, want 0", snap.AvgTaskWait)
	}
}

func TestBasicMetrics_OnUserTaskFinished_AveragesWait(t *testing.T) {
	var m BasicMetrics
	ctx := context.Background()
	id := newTestIdentity()

	// two rendezvous: 1s and 3s
	m.OnUserTaskFinished(ctx, id, "task-1", 1*time.Second)
	m.OnUserTaskFinished(ctx, id, "task-2", 3*time.Second)

	snap := m.Snapshot()

	if snap.UserTasksFinished != 2 {
		t.Fatalf("UserTasksFinished=%d, want 2", snap.UserTasksFinished)
	}

	wantAvg := 2 * time.Second // (1s + 3s) / 2
	if snap.AvgTaskWait != wantAvg {
		t.Fatalf("AvgTaskWait=%v, want %v", snap.AvgTaskWait, wantAvg)
	}
}

func TestBasicMetrics_SnapshotZeroTasksHasZeroAverage(t *testing.T) {
	var m BasicMetrics
	snap := m.Snapshot()
	if snap.UserTasksFinished != 0 {
		t.Fatalf("UserTasksFinished=%d, want 0", snap.UserTasksFinished)
	}
	if snap.AvgTaskWait != 0 {
		t.Fatalf("AvgTaskWait=%v, want 0", snap.AvgTaskWait)
	}
}
