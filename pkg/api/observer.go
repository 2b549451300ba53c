package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the gate for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay caller-facing operations.
type Observer interface {
	// OnProcessStarted is called after the engine accepted a start request,
	// before any end-event await begins.
	OnProcessStarted(ctx context.Context, identity Identity, processModelID, correlationID string)

	// OnProcessEnded is called when an awaited end event of a started
	// correlation is reached.
	OnProcessEnded(ctx context.Context, correlationID, endEventID string)

	// OnUserTaskFinished is called after a finish rendezvous completes.
	// duration is the wall time spent waiting for the engine.
	OnUserTaskFinished(ctx context.Context, identity Identity, userTaskID string, duration time.Duration)

	// OnEventTriggered is called after an event payload was published.
	OnEventTriggered(ctx context.Context, identity Identity, eventID string)

	// OnAccessDenied is called when an operation fails its lane gate, i.e.
	// the identity's accessible-lane set for the scope is empty. It is not
	// called for sub-process instances skipped during aggregation.
	OnAccessDenied(ctx context.Context, identity Identity, scope string)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnProcessStarted(ctx context.Context, identity Identity, processModelID, correlationID string) {
}
func (NoopObserver) OnProcessEnded(ctx context.Context, correlationID, endEventID string) {}
func (NoopObserver) OnUserTaskFinished(ctx context.Context, identity Identity, userTaskID string, d time.Duration) {
}
func (NoopObserver) OnEventTriggered(ctx context.Context, identity Identity, eventID string) {}
func (NoopObserver) OnAccessDenied(ctx context.Context, identity Identity, scope string)     {}

// CompositeObserver fans out callbacks to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards callbacks to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnProcessStarted(ctx context.Context, identity Identity, processModelID, correlationID string) {
	for _, o := range c.observers {
		o.OnProcessStarted(ctx, identity, processModelID, correlationID)
	}
}

func (c *CompositeObserver) OnProcessEnded(ctx context.Context, correlationID, endEventID string) {
	for _, o := range c.observers {
		o.OnProcessEnded(ctx, correlationID, endEventID)
	}
}

func (c *CompositeObserver) OnUserTaskFinished(ctx context.Context, identity Identity, userTaskID string, d time.Duration) {
	for _, o := range c.observers {
		o.OnUserTaskFinished(ctx, identity, userTaskID, d)
	}
}

func (c *CompositeObserver) OnEventTriggered(ctx context.Context, identity Identity, eventID string) {
	for _, o := range c.observers {
		o.OnEventTriggered(ctx, identity, eventID)
	}
}

func (c *CompositeObserver) OnAccessDenied(ctx context.Context, identity Identity, scope string) {
	for _, o := range c.observers {
		o.OnAccessDenied(ctx, identity, scope)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs gate lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnProcessStarted(ctx context.Context, identity Identity, processModelID, correlationID string) {
	o.Logger.InfoContext(ctx, "process_started",
		slog.String("user_id", identity.UserID),
		slog.String("process_model_id", processModelID),
		slog.String("correlation_id", correlationID),
	)
}

func (o *LoggingObserver) OnProcessEnded(ctx context.Context, correlationID, endEventID string) {
	o.Logger.InfoContext(ctx, "process_ended",
		slog.String("correlation_id", correlationID),
		slog.String("end_event_id", endEventID),
	)
}

func (o *LoggingObserver) OnUserTaskFinished(ctx context.Context, identity Identity, userTaskID string, d time.Duration) {
	o.Logger.InfoContext(ctx, "user_task_finished",
		slog.String("user_id", identity.UserID),
		slog.String("user_task_id", userTaskID),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnEventTriggered(ctx context.Context, identity Identity, eventID string) {
	o.Logger.InfoContext(ctx, "event_triggered",
		slog.String("user_id", identity.UserID),
		slog.String("event_id", eventID),
	)
}

func (o *LoggingObserver) OnAccessDenied(ctx context.Context, identity Identity, scope string) {
	o.Logger.WarnContext(ctx, "access_denied",
		slog.String("user_id", identity.UserID),
		slog.String("scope", scope),
	)
}

// BasicMetrics collects simple counters and the aggregate rendezvous wait.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	processesStarted   atomic.Int64
	processesEnded     atomic.Int64
	userTasksFinished  atomic.Int64
	eventsTriggered    atomic.Int64
	accessDenials      atomic.Int64
	totalTaskWaitNanos atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	ProcessesStarted  int64
	ProcessesEnded    int64
	UserTasksFinished int64
	EventsTriggered   int64
	AccessDenials     int64

	AvgTaskWait time.Duration
}

func (m *BasicMetrics) OnProcessStarted(ctx context.Context, identity Identity, processModelID, correlationID string) {
	m.processesStarted.Add(1)
}

func (m *BasicMetrics) OnProcessEnded(ctx context.Context, correlationID, endEventID string) {
	m.processesEnded.Add(1)
}

func (m *BasicMetrics) OnUserTaskFinished(ctx context.Context, identity Identity, userTaskID string, d time.Duration) {
	m.userTasksFinished.Add(1)
	m.totalTaskWaitNanos.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnEventTriggered(ctx context.Context, identity Identity, eventID string) {
	m.eventsTriggered.Add(1)
}

func (m *BasicMetrics) OnAccessDenied(ctx context.Context, identity Identity, scope string) {
	m.accessDenials.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	finished := m.userTasksFinished.Load()
	totalNs := m.totalTaskWaitNanos.Load()

	var avg time.Duration
	if finished > 0 {
		avg = time.Duration(totalNs / finished)
	}

	return BasicMetricsSnapshot{
		ProcessesStarted:  m.processesStarted.Load(),
		ProcessesEnded:    m.processesEnded.Load(),
		UserTasksFinished: finished,
		EventsTriggered:   m.eventsTriggered.Load(),
		AccessDenials:     m.accessDenials.Load(),
		AvgTaskWait:       avg,
	}
}
