// Package consumer implements the caller-facing gate on top of an engine
// gateway: lane-based visibility, correlation aggregation, and the
// notification rendezvous for finishing tasks and awaiting end events.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/petrijr/flowgate/internal/correlation"
	"github.com/petrijr/flowgate/internal/lanes"
	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// Client implements api.Client against an engine.Gateway.
// It is safe for concurrent use.
type Client struct {
	gw       engine.Gateway
	lanes    *lanes.Resolver
	corr     *correlation.Resolver
	logger   *slog.Logger
	observer api.Observer
}

var _ api.Client = (*Client)(nil)

// Options configures a Client. The zero value selects slog.Default(), a noop
// observer and the default call-activity depth limit.
type Options struct {
	Logger               *slog.Logger
	Observer             api.Observer
	MaxCallActivityDepth int
}

// New creates a Client over the given gateway.
func New(gw engine.Gateway, opts Options) (*Client, error) {
	if err := gw.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = api.NoopObserver{}
	}

	return &Client{
		gw:       gw,
		lanes:    lanes.NewResolver(logger),
		corr:     correlation.NewResolver(gw.Instances, gw.FlowNodes, opts.MaxCallActivityDepth, logger),
		logger:   logger,
		observer: observer,
	}, nil
}

// scope names the aggregation boundary of a read operation, both for error
// messages and for the observer's access-denied callback.
type scope struct {
	processModelID string
	correlationID  string
}

func (s scope) String() string {
	switch {
	case s.processModelID != "" && s.correlationID != "":
		return fmt.Sprintf("process model %q in correlation %q", s.processModelID, s.correlationID)
	case s.correlationID != "":
		return fmt.Sprintf("correlation %q", s.correlationID)
	default:
		return fmt.Sprintf("process model %q", s.processModelID)
	}
}

// deny reports the failed lane gate to the observer and returns the forbidden
// error every gated operation shares.
func (c *Client) deny(ctx context.Context, identity api.Identity, sc scope) error {
	c.observer.OnAccessDenied(ctx, identity, sc.String())
	return api.Errorf(api.ErrorForbidden, "identity has no access to any lane of %s", sc)
}

// definitionByID loads a definition, translating the store sentinel into the
// caller-facing not-found error.
func (c *Client) definitionByID(ctx context.Context, id string) (*engine.ProcessDefinition, error) {
	def, err := c.gw.Definitions.ProcessDefinitionByID(ctx, id)
	if errors.Is(err, engine.ErrNotFound) {
		return nil, api.Errorf(api.ErrorNotFound, "no process model with id %q", id)
	}
	if err != nil {
		return nil, api.WrapError(api.ErrorInternal, err, "error loading process model %q", id)
	}
	return def, nil
}

// visibleSuspended returns the suspended flow node instances of the scope
// that are of one of the given kinds and sit in a lane accessible to the
// identity. The lane gate applies to the scope as a whole: a scope whose
// accessible-lane union is empty is forbidden, while individual instances
// without accessible lanes are silently skipped during aggregation.
func (c *Client) visibleSuspended(ctx context.Context, identity api.Identity, sc scope, kinds ...engine.FlowNodeKind) ([]visibleNode, error) {
	if sc.correlationID == "" {
		return c.visibleSuspendedForModel(ctx, identity, sc, kinds)
	}
	return c.visibleSuspendedForCorrelation(ctx, identity, sc, kinds)
}

func (c *Client) visibleSuspendedForModel(ctx context.Context, identity api.Identity, sc scope, kinds []engine.FlowNodeKind) ([]visibleNode, error) {
	def, err := c.definitionByID(ctx, sc.processModelID)
	if err != nil {
		return nil, err
	}

	accessible := c.lanes.AccessibleLanes(identity, def.Lanes)
	if len(accessible) == 0 {
		return nil, c.deny(ctx, identity, sc)
	}

	fnis, err := c.gw.FlowNodes.FlowNodeInstances(ctx, engine.FlowNodeFilter{
		ProcessModelID: sc.processModelID,
		State:          engine.StateSuspended,
	})
	if err != nil {
		return nil, api.WrapError(api.ErrorInternal, err, "error loading flow node instances of process model %q", sc.processModelID)
	}

	return c.filterNodes(def, accessible, fnis, kinds), nil
}

func (c *Client) visibleSuspendedForCorrelation(ctx context.Context, identity api.Identity, sc scope, kinds []engine.FlowNodeKind) ([]visibleNode, error) {
	defs := make(map[string]*engine.ProcessDefinition)

	// A named model must exist even when the correlation never ran it; its
	// lanes always count towards the gate so an accessible model with no
	// matching instances yields an empty list rather than forbidden.
	if sc.processModelID != "" {
		def, err := c.definitionByID(ctx, sc.processModelID)
		if err != nil {
			return nil, err
		}
		defs[def.ID] = def
	}

	instances, err := c.corr.InstancesForCorrelation(ctx, sc.correlationID)
	if err != nil {
		return nil, c.internalUnlessTyped(err, "error resolving correlation %q", sc.correlationID)
	}
	if sc.processModelID != "" {
		filtered := instances[:0:0]
		for _, inst := range instances {
			if inst.ProcessModelID == sc.processModelID {
				filtered = append(filtered, inst)
			}
		}
		instances = filtered
	}

	for _, inst := range instances {
		if _, ok := defs[inst.ProcessModelID]; ok {
			continue
		}
		def, err := c.definitionByID(ctx, inst.ProcessModelID)
		if err != nil {
			return nil, err
		}
		defs[def.ID] = def
	}

	accessibleByDef := make(map[string]map[string]struct{}, len(defs))
	union := 0
	for id, def := range defs {
		accessible := c.lanes.AccessibleLanes(identity, def.Lanes)
		accessibleByDef[id] = accessible
		union += len(accessible)
	}
	if union == 0 {
		return nil, c.deny(ctx, identity, sc)
	}

	// Instances are independent, so their flow node instances load
	// concurrently; the first store error cancels the rest.
	perInstance := make([][]*engine.FlowNodeInstance, len(instances))
	g, gctx := errgroup.WithContext(ctx)
	for i, inst := range instances {
		if len(accessibleByDef[inst.ProcessModelID]) == 0 {
			c.logger.DebugContext(ctx, "skipping process instance without accessible lanes",
				slog.String("process_instance_id", inst.ID),
				slog.String("process_model_id", inst.ProcessModelID),
			)
			continue
		}
		g.Go(func() error {
			fnis, err := c.gw.FlowNodes.FlowNodeInstances(gctx, engine.FlowNodeFilter{
				ProcessInstanceID: inst.ID,
				State:             engine.StateSuspended,
			})
			if err != nil {
				return err
			}
			perInstance[i] = fnis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, api.WrapError(api.ErrorInternal, err, "error loading flow node instances of correlation %q", sc.correlationID)
	}

	var out []visibleNode
	for i, fnis := range perInstance {
		inst := instances[i]
		out = append(out, c.filterNodes(defs[inst.ProcessModelID], accessibleByDef[inst.ProcessModelID], fnis, kinds)...)
	}
	return out, nil
}

// filterNodes keeps the instances of the wanted kinds whose flow node sits in
// an accessible lane. Nodes missing from the definition or outside every lane
// are dropped; they are invisible rather than an error.
func (c *Client) filterNodes(def *engine.ProcessDefinition, accessible map[string]struct{}, fnis []*engine.FlowNodeInstance, kinds []engine.FlowNodeKind) []visibleNode {
	var out []visibleNode
	for _, fni := range fnis {
		if !kindIn(fni.Kind, kinds) {
			continue
		}
		node, ok := def.FlowNode(fni.FlowNodeID)
		if !ok {
			c.logger.Debug("flow node instance references a flow node missing from its definition",
				slog.String("flow_node_instance_id", fni.ID),
				slog.String("flow_node_id", fni.FlowNodeID),
				slog.String("process_model_id", def.ID),
			)
			continue
		}
		laneID, ok := c.lanes.LaneForFlowNode(def, fni.FlowNodeID)
		if !ok {
			c.logger.Debug("flow node belongs to no lane and is not visible",
				slog.String("flow_node_id", fni.FlowNodeID),
				slog.String("process_model_id", def.ID),
			)
			continue
		}
		if _, ok := accessible[laneID]; !ok {
			continue
		}
		out = append(out, visibleNode{fni: fni, def: def, node: node})
	}
	return out
}

func kindIn(kind engine.FlowNodeKind, kinds []engine.FlowNodeKind) bool {
	for _, k := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// internalUnlessTyped passes api errors through and wraps everything else as
// internal, keeping the cause on the chain for logging.
func (c *Client) internalUnlessTyped(err error, format string, args ...any) error {
	if api.KindOf(err) != "" {
		return err
	}
	return api.WrapError(api.ErrorInternal, err, format, args...)
}
