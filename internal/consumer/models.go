package consumer

import (
	"context"
	"log/slog"

	"github.com/petrijr/flowgate/pkg/api"
)

// ListProcessModels returns every deployed model in which the identity can
// access at least one lane. Models without an accessible lane are omitted
// rather than erroring, so the list is always the caller's complete view.
func (c *Client) ListProcessModels(ctx context.Context, identity api.Identity) (api.ProcessModelList, error) {
	defs, err := c.gw.Definitions.ProcessDefinitions(ctx)
	if err != nil {
		return api.ProcessModelList{}, api.WrapError(api.ErrorInternal, err, "error loading process models")
	}

	models := make([]api.ProcessModel, 0, len(defs))
	for _, def := range defs {
		accessible := c.lanes.AccessibleLanes(identity, def.Lanes)
		if len(accessible) == 0 {
			c.logger.DebugContext(ctx, "omitting process model without accessible lanes",
				slog.String("process_model_id", def.ID),
			)
			continue
		}
		models = append(models, c.toProcessModel(def, accessible))
	}

	return api.ProcessModelList{ProcessModels: models}, nil
}

// GetProcessModelByID returns the identity's view of one model. Unlike the
// list, asking for a specific inaccessible model is an explicit denial.
func (c *Client) GetProcessModelByID(ctx context.Context, identity api.Identity, processModelID string) (api.ProcessModel, error) {
	def, err := c.definitionByID(ctx, processModelID)
	if err != nil {
		return api.ProcessModel{}, err
	}

	accessible := c.lanes.AccessibleLanes(identity, def.Lanes)
	if len(accessible) == 0 {
		return api.ProcessModel{}, c.deny(ctx, identity, scope{processModelID: processModelID})
	}

	return c.toProcessModel(def, accessible), nil
}
