package consumer

import (
	"github.com/petrijr/flowgate/pkg/api"
	"github.com/petrijr/flowgate/pkg/engine"
)

// visibleNode is a suspended flow node instance that survived lane filtering,
// paired with the definition and flow node it belongs to.
type visibleNode struct {
	fni  *engine.FlowNodeInstance
	def  *engine.ProcessDefinition
	node engine.FlowNode
}

// toProcessModel projects a definition onto the consumer contract. Start and
// end events outside the identity's accessible lanes are dropped from the
// projection, so a consumer only ever learns about entry and exit points it
// could actually use.
func (c *Client) toProcessModel(def *engine.ProcessDefinition, accessible map[string]struct{}) api.ProcessModel {
	return api.ProcessModel{
		ID:            def.ID,
		Key:           def.Key,
		Name:          def.Name,
		Executable:    def.Executable,
		StartEventIDs: c.accessibleFlowNodeIDs(def, def.StartEventIDs(), accessible),
		EndEventIDs:   c.accessibleFlowNodeIDs(def, def.EndEventIDs(), accessible),
	}
}

func (c *Client) accessibleFlowNodeIDs(def *engine.ProcessDefinition, ids []string, accessible map[string]struct{}) []string {
	var out []string
	for _, id := range ids {
		laneID, ok := c.lanes.LaneForFlowNode(def, id)
		if !ok {
			continue
		}
		if _, ok := accessible[laneID]; ok {
			out = append(out, id)
		}
	}
	return out
}

// toUserTask projects a suspended user task instance onto the consumer
// contract. Form field labels and default values may contain ${path}
// expressions referring to the instance token; they are evaluated here so the
// consumer always sees literal values. A user task without form fields cannot
// be rendered or finished and surfaces as an unprocessable-entity error.
func toUserTask(vn visibleNode) (*api.UserTask, error) {
	if len(vn.node.FormFields) == 0 {
		return nil, api.Errorf(api.ErrorUnprocessableEntity, "user task %q in process model %q has no form fields", vn.node.ID, vn.def.ID)
	}

	payload := vn.fni.Token.Payload
	fields := make([]api.FormField, 0, len(vn.node.FormFields))
	for _, raw := range vn.node.FormFields {
		fields = append(fields, api.FormField{
			ID:           raw.ID,
			Label:        evaluateExpr(raw.Label, payload),
			Type:         api.FormFieldType(raw.Type),
			DefaultValue: evaluateExpr(raw.DefaultValue, payload),
		})
	}

	return &api.UserTask{
		ID:                vn.fni.ID,
		Key:               vn.node.ID,
		Name:              vn.node.Name,
		ProcessInstanceID: vn.fni.ProcessInstanceID,
		ProcessModelID:    vn.fni.ProcessModelID,
		CorrelationID:     vn.fni.CorrelationID,
		TokenPayload:      payload,
		Config:            api.UserTaskConfig{FormFields: fields},
	}, nil
}

// toEvent projects a suspended catch event instance onto the consumer
// contract.
func toEvent(vn visibleNode) *api.Event {
	eventType := api.EventTypeSignal
	if vn.fni.Kind == engine.KindMessageCatchEvent {
		eventType = api.EventTypeMessage
	}
	return &api.Event{
		ID:                vn.fni.ID,
		Key:               vn.node.ID,
		Name:              vn.node.Name,
		Type:              eventType,
		ProcessInstanceID: vn.fni.ProcessInstanceID,
		ProcessModelID:    vn.fni.ProcessModelID,
		CorrelationID:     vn.fni.CorrelationID,
	}
}
