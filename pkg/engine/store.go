package engine

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DefinitionStore reads deployed process definitions.
type DefinitionStore interface {
	// ProcessDefinitionByID returns the definition with the given id, or
	// ErrNotFound.
	ProcessDefinitionByID(ctx context.Context, id string) (*ProcessDefinition, error)

	// ProcessDefinitionByKey returns the newest definition deployed under the
	// given key, or ErrNotFound.
	ProcessDefinitionByKey(ctx context.Context, key string) (*ProcessDefinition, error)

	// ProcessDefinitions returns all deployed definitions in deployment order.
	ProcessDefinitions(ctx context.Context) ([]*ProcessDefinition, error)
}

// InstanceFilter selects process instances.
// Empty string / false mean "no filter" for that field.
type InstanceFilter struct {
	CorrelationID  string
	ProcessModelID string

	// CallerIDs, when non-empty, selects instances spawned by any of the
	// given call-activity flow node instances.
	CallerIDs []string

	// OnlyMain restricts the result to instances with no caller.
	OnlyMain bool
}

// InstanceStore reads process instances.
type InstanceStore interface {
	ProcessInstances(ctx context.Context, filter InstanceFilter) ([]*ProcessInstance, error)
}

// FlowNodeFilter selects flow node instances.
// Empty string / zero value mean "no filter" for that field.
type FlowNodeFilter struct {
	CorrelationID     string
	ProcessModelID    string
	ProcessInstanceID string
	Kind              FlowNodeKind
	State             FlowNodeState
}

// FlowNodeStore reads flow node instances.
type FlowNodeStore interface {
	FlowNodeInstances(ctx context.Context, filter FlowNodeFilter) ([]*FlowNodeInstance, error)
}
