// Package correlation discovers every process instance belonging to a
// correlation: the main instance plus all instances transitively spawned from
// it through call activities.
package correlation

import (
	"context"
	"log/slog"

	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// DefaultMaxDepth caps the call-activity traversal when no explicit limit is
// configured. Real models nest a handful of levels; anything near this bound
// indicates a broken graph.
const DefaultMaxDepth = 32

// Resolver walks the call-activity graph of a correlation.
// It is safe for concurrent use.
type Resolver struct {
	instances engine.InstanceStore
	flowNodes engine.FlowNodeStore
	maxDepth  int
	logger    *slog.Logger
}

// NewResolver creates a Resolver. A maxDepth <= 0 selects DefaultMaxDepth;
// a nil logger selects slog.Default().
func NewResolver(instances engine.InstanceStore, flowNodes engine.FlowNodeStore, maxDepth int, logger *slog.Logger) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		instances: instances,
		flowNodes: flowNodes,
		maxDepth:  maxDepth,
		logger:    logger,
	}
}

// InstancesForCorrelation returns the main instance of the correlation
// followed by every sub-process instance, discovered breadth-first level by
// level.
//
// Semantics:
//   - No main instance: a not_found error.
//   - An instance id showing up twice: an internal error, the graph is
//     structurally broken (a revisit would otherwise loop forever).
//   - More than maxDepth call-activity levels: an internal error.
//   - Store errors propagate unmodified; no partial result is returned.
func (r *Resolver) InstancesForCorrelation(ctx context.Context, correlationID string) ([]*engine.ProcessInstance, error) {
	mains, err := r.instances.ProcessInstances(ctx, engine.InstanceFilter{
		CorrelationID: correlationID,
		OnlyMain:      true,
	})
	if err != nil {
		return nil, err
	}
	if len(mains) == 0 {
		return nil, api.Errorf(api.ErrorNotFound, "no process instance found for correlation %q", correlationID)
	}
	main := mains[0]

	result := []*engine.ProcessInstance{main}
	visited := map[string]struct{}{main.ID: {}}
	frontier := []*engine.ProcessInstance{main}

	depth := 0
	for len(frontier) > 0 {
		var callerIDs []string
		for _, parent := range frontier {
			calls, err := r.flowNodes.FlowNodeInstances(ctx, engine.FlowNodeFilter{
				ProcessInstanceID: parent.ID,
				Kind:              engine.KindCallActivity,
			})
			if err != nil {
				return nil, err
			}
			for _, call := range calls {
				callerIDs = append(callerIDs, call.ID)
			}
		}
		if len(callerIDs) == 0 {
			break
		}

		depth++
		if depth > r.maxDepth {
			return nil, api.Errorf(api.ErrorInternal,
				"call-activity graph of correlation %q exceeds %d levels", correlationID, r.maxDepth)
		}

		children, err := r.instances.ProcessInstances(ctx, engine.InstanceFilter{
			CallerIDs: callerIDs,
		})
		if err != nil {
			return nil, err
		}

		next := make([]*engine.ProcessInstance, 0, len(children))
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				return nil, api.Errorf(api.ErrorInternal,
					"cycle in call-activity graph of correlation %q at instance %q", correlationID, child.ID)
			}
			visited[child.ID] = struct{}{}
			result = append(result, child)
			next = append(next, child)
		}
		frontier = next

		r.logger.Debug("resolved call-activity level",
			slog.String("correlation_id", correlationID),
			slog.Int("depth", depth),
			slog.Int("instances", len(children)),
		)
	}

	return result, nil
}
