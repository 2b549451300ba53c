package flowgate

import (
	"database/sql"
	"log/slog"

	"github.com/petrijr/flowgate/internal/consumer"
	"github.com/petrijr/flowgate/internal/correlation"
	"github.com/petrijr/flowgate/internal/notify"
	"github.com/petrijr/flowgate/internal/persistence"
	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Client               = api.Client
	Identity             = api.Identity
	ProcessModel         = api.ProcessModel
	ProcessModelList     = api.ProcessModelList
	FormField            = api.FormField
	FormFieldType        = api.FormFieldType
	UserTask             = api.UserTask
	UserTaskConfig       = api.UserTaskConfig
	UserTaskList         = api.UserTaskList
	UserTaskResult       = api.UserTaskResult
	Event                = api.Event
	EventList            = api.EventList
	EventType            = api.EventType
	CorrelationResult    = api.CorrelationResult
	StartProcessRequest  = api.StartProcessRequest
	ProcessStartResult   = api.ProcessStartResult
	StartCallbackType    = api.StartCallbackType
	Error                = api.Error
	ErrorKind            = api.ErrorKind
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export common observer and error helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	KindOf                = api.KindOf
	IsBadRequest          = api.IsBadRequest
	IsForbidden           = api.IsForbidden
	IsNotFound            = api.IsNotFound
	IsUnprocessableEntity = api.IsUnprocessableEntity
	IsInternal            = api.IsInternal
)

// Re-export enum values for convenience.

const (
	StartCallbackOnInstanceCreated = api.StartCallbackOnInstanceCreated
	StartCallbackOnEndEventReached = api.StartCallbackOnEndEventReached

	ErrorBadRequest          = api.ErrorBadRequest
	ErrorForbidden           = api.ErrorForbidden
	ErrorNotFound            = api.ErrorNotFound
	ErrorUnprocessableEntity = api.ErrorUnprocessableEntity
	ErrorInternal            = api.ErrorInternal
)

// DefaultMaxCallActivityDepth is the correlation discovery depth used when
// Config.MaxCallActivityDepth is zero.
const DefaultMaxCallActivityDepth = correlation.DefaultMaxDepth

// Config carries the gate's construction-time settings. The zero value is
// usable: it logs via slog.Default(), observes nothing and applies the
// default call-activity depth limit.
type Config struct {
	// Logger receives structured diagnostics: warnings about misconfigured
	// lanes, debug entries for visibility decisions, and engine-reported
	// process errors that are kept out of caller-facing messages.
	Logger *slog.Logger

	// Observer receives lifecycle callbacks. Combine several with
	// NewCompositeObserver.
	Observer Observer

	// MaxCallActivityDepth caps how many call-activity levels correlation
	// discovery follows before treating the graph as broken.
	MaxCallActivityDepth int
}

// New creates the consumer gate over an assembled engine gateway.
//
// The returned Client is safe for concurrent use. Construction fails only
// when the gateway is missing a collaborator.
func New(gw engine.Gateway, cfg Config) (Client, error) {
	return consumer.New(gw, consumer.Options{
		Logger:               cfg.Logger,
		Observer:             cfg.Observer,
		MaxCallActivityDepth: cfg.MaxCallActivityDepth,
	})
}

// NewInProcessBus returns the in-process notification bus, for embedded
// deployments where the engine adapter and the gate share a process. For
// cross-process deployments see the redis submodule.
func NewInProcessBus() engine.Bus {
	return notify.NewBus()
}

// Gateway constructors
// These wrap the internal/persistence bindings so external callers
// never need to import internal packages.

// NewSQLiteGateway assembles a Gateway that reads engine state from a SQLite
// database, creating the schema when missing. runtime and bus connect the
// gate to the engine's write side and its notification channels.
func NewSQLiteGateway(db *sql.DB, runtime engine.Runtime, bus engine.Bus) (engine.Gateway, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return engine.Gateway{}, err
	}
	return engine.Gateway{
		Definitions: store,
		Instances:   store,
		FlowNodes:   store,
		Runtime:     runtime,
		Bus:         bus,
	}, nil
}

// NewPostgresGateway assembles a Gateway that reads engine state from a
// PostgreSQL database, creating the schema when missing. The caller imports
// a Postgres driver and opens db.
func NewPostgresGateway(db *sql.DB, runtime engine.Runtime, bus engine.Bus) (engine.Gateway, error) {
	store, err := persistence.NewPostgresStore(db)
	if err != nil {
		return engine.Gateway{}, err
	}
	return engine.Gateway{
		Definitions: store,
		Instances:   store,
		FlowNodes:   store,
		Runtime:     runtime,
		Bus:         bus,
	}, nil
}
