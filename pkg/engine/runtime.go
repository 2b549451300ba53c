package engine

import (
	"context"

	"github.com/petrijr/flowgate/pkg/api"
)

// StartRequest asks the engine to create and run a new process instance.
type StartRequest struct {
	// Identity is forwarded for the engine's own auditing; the gate has
	// already authorized the start when this request is built.
	Identity api.Identity

	ProcessModelID string
	StartEventID   string

	// CorrelationID is always set by the gate, generated when the caller
	// supplied none.
	CorrelationID string

	InputValues map[string]any
}

// StartResult reports the instance the engine created.
type StartResult struct {
	ProcessInstanceID string
}

// Runtime is the write surface of the engine: everything the gate may ask the
// engine to do beyond publishing bus messages.
type Runtime interface {
	StartProcessInstance(ctx context.Context, req StartRequest) (StartResult, error)
}
