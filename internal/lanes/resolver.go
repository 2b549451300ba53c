// Package lanes resolves which lanes of a process definition an identity may
// access, and which lane a flow node belongs to.
package lanes

import (
	"log/slog"
	"sync"

	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// Resolver answers lane questions for process definitions.
// It is safe for concurrent use.
type Resolver struct {
	logger *slog.Logger

	// Lane membership of a flow node is a pure function of the definition,
	// and definitions are immutable per id, so lookups are memoized.
	mu   sync.RWMutex
	memo map[memoKey]memoEntry
}

type memoKey struct {
	definitionID string
	flowNodeID   string
}

type memoEntry struct {
	laneID string
	ok     bool
}

// NewResolver creates a Resolver. If logger is nil, slog.Default() is used.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		logger: logger,
		memo:   make(map[memoKey]memoEntry),
	}
}

// AccessibleLanes returns the ids of every lane in set, at any nesting depth,
// whose name matches one of the identity's claims.
//
// A lane without a name is reported once per call at warn level and is never
// accessible. An empty result is a valid outcome here; the caller decides
// whether it amounts to a denied scope.
func (r *Resolver) AccessibleLanes(identity api.Identity, set *engine.LaneSet) map[string]struct{} {
	accessible := make(map[string]struct{})
	r.collectAccessible(identity, set, accessible)
	return accessible
}

func (r *Resolver) collectAccessible(identity api.Identity, set *engine.LaneSet, accessible map[string]struct{}) {
	if set == nil {
		return
	}
	for _, lane := range set.Lanes {
		switch {
		case lane.Name == "":
			r.logger.Warn("lane has no name and can never be accessible",
				slog.String("lane_id", lane.ID),
			)
		case identity.HasClaim(lane.Name):
			accessible[lane.ID] = struct{}{}
		}

		// Nested lanes are checked regardless of the parent's outcome: a
		// claim on an inner lane grants access to that lane even when the
		// identity may not see the enclosing one.
		r.collectAccessible(identity, lane.Children, accessible)
	}
}

// LaneForFlowNode returns the id of the innermost lane containing the flow
// node, or ok=false when the node sits outside every lane.
func (r *Resolver) LaneForFlowNode(def *engine.ProcessDefinition, flowNodeID string) (laneID string, ok bool) {
	key := memoKey{definitionID: def.ID, flowNodeID: flowNodeID}

	r.mu.RLock()
	entry, hit := r.memo[key]
	r.mu.RUnlock()
	if hit {
		return entry.laneID, entry.ok
	}

	laneID, ok = findLane(def.Lanes, flowNodeID)

	r.mu.Lock()
	r.memo[key] = memoEntry{laneID: laneID, ok: ok}
	r.mu.Unlock()

	return laneID, ok
}

func findLane(set *engine.LaneSet, flowNodeID string) (string, bool) {
	if set == nil {
		return "", false
	}
	for _, lane := range set.Lanes {
		// Children first: the innermost lane containing the node wins over
		// any enclosing lane that also lists it.
		if id, ok := findLane(lane.Children, flowNodeID); ok {
			return id, true
		}
		for _, id := range lane.FlowNodeIDs {
			if id == flowNodeID {
				return lane.ID, true
			}
		}
	}
	return "", false
}
