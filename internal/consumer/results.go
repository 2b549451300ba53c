package consumer

import (
	"context"

	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// GetProcessResults returns the outcome of every finished end event the
// correlation's main process reached in the given model.
//
// End events whose token carries a caller belong to called sub-processes;
// they are internal plumbing, not business results, and are filtered out.
func (c *Client) GetProcessResults(ctx context.Context, identity api.Identity, correlationID, processModelID string) ([]api.CorrelationResult, error) {
	def, err := c.definitionByID(ctx, processModelID)
	if err != nil {
		return nil, err
	}

	accessible := c.lanes.AccessibleLanes(identity, def.Lanes)
	if len(accessible) == 0 {
		return nil, c.deny(ctx, identity, scope{processModelID: processModelID, correlationID: correlationID})
	}

	fnis, err := c.gw.FlowNodes.FlowNodeInstances(ctx, engine.FlowNodeFilter{
		CorrelationID:  correlationID,
		ProcessModelID: processModelID,
		Kind:           engine.KindEndEvent,
		State:          engine.StateFinished,
	})
	if err != nil {
		return nil, api.WrapError(api.ErrorInternal, err, "error loading results of correlation %q", correlationID)
	}

	results := make([]api.CorrelationResult, 0, len(fnis))
	for _, fni := range fnis {
		if fni.Token.Caller != "" {
			continue
		}
		results = append(results, api.CorrelationResult{
			CorrelationID: fni.CorrelationID,
			EndEventID:    fni.FlowNodeID,
			TokenPayload:  fni.Token.Payload,
		})
	}
	return results, nil
}
