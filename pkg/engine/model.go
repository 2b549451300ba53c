package engine

// FlowNodeKind identifies the BPMN element type of a flow node.
type FlowNodeKind string

const (
	KindStartEvent        FlowNodeKind = "START_EVENT"
	KindEndEvent          FlowNodeKind = "END_EVENT"
	KindUserTask          FlowNodeKind = "USER_TASK"
	KindCallActivity      FlowNodeKind = "CALL_ACTIVITY"
	KindSignalCatchEvent  FlowNodeKind = "SIGNAL_CATCH_EVENT"
	KindMessageCatchEvent FlowNodeKind = "MESSAGE_CATCH_EVENT"
	KindServiceTask       FlowNodeKind = "SERVICE_TASK"
	KindExclusiveGateway  FlowNodeKind = "EXCLUSIVE_GATEWAY"
	KindParallelGateway   FlowNodeKind = "PARALLEL_GATEWAY"
)

// FlowNodeState is the lifecycle state of a flow node instance.
type FlowNodeState string

const (
	StateRunning    FlowNodeState = "RUNNING"
	StateSuspended  FlowNodeState = "SUSPENDED"
	StateFinished   FlowNodeState = "FINISHED"
	StateTerminated FlowNodeState = "TERMINATED"
	StateFailed     FlowNodeState = "FAILED"
)

// FormField is the raw form field of a user task as the engine models it.
// Label and DefaultValue may contain unevaluated ${path} expressions.
type FormField struct {
	ID           string
	Label        string
	Type         string
	DefaultValue string
}

// FlowNode is one element of a process definition.
type FlowNode struct {
	ID   string
	Name string
	Kind FlowNodeKind

	// FormFields is set for user tasks only.
	FormFields []FormField
}

// Lane is an organizational partition of a definition's flow nodes.
// Its Name doubles as the claim an identity must hold to access it; a lane
// without a name is never accessible.
type Lane struct {
	ID          string
	Name        string
	FlowNodeIDs []string
	Children    *LaneSet
}

// LaneSet groups the lanes at one nesting level.
type LaneSet struct {
	Lanes []Lane
}

// ProcessDefinition is a deployed process model as the engine stores it.
// Definitions are immutable per id; a changed model gets a new id.
type ProcessDefinition struct {
	ID         string
	Key        string
	Name       string
	Executable bool

	FlowNodes []FlowNode

	// Lanes is nil when the definition declares no lanes. Such a definition
	// has no accessible flow nodes from the consumer's point of view.
	Lanes *LaneSet
}

// FlowNode returns the flow node with the given id.
func (d *ProcessDefinition) FlowNode(id string) (FlowNode, bool) {
	for _, n := range d.FlowNodes {
		if n.ID == id {
			return n, true
		}
	}
	return FlowNode{}, false
}

// StartEventIDs returns the ids of all start events, in definition order.
func (d *ProcessDefinition) StartEventIDs() []string {
	return d.flowNodeIDsOfKind(KindStartEvent)
}

// EndEventIDs returns the ids of all end events, in definition order.
func (d *ProcessDefinition) EndEventIDs() []string {
	return d.flowNodeIDsOfKind(KindEndEvent)
}

func (d *ProcessDefinition) flowNodeIDsOfKind(kind FlowNodeKind) []string {
	var ids []string
	for _, n := range d.FlowNodes {
		if n.Kind == kind {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Token is the engine's per-instance execution state as visible to readers.
type Token struct {
	// Payload is the current data of the token.
	Payload map[string]any

	// Caller links the token to the call-activity instance that spawned its
	// process, and is empty for tokens of the process that started the
	// correlation.
	Caller string
}

// ProcessInstance is one running or finished instance of a definition.
type ProcessInstance struct {
	ID             string
	ProcessModelID string
	CorrelationID  string

	// CallerID is the flow node instance id of the call activity that spawned
	// this instance, or empty for the main instance of a correlation.
	CallerID string
}

// IsSubProcess reports whether the instance was spawned by a call activity.
func (p *ProcessInstance) IsSubProcess() bool {
	return p.CallerID != ""
}

// FlowNodeInstance is one execution of a flow node within a process instance.
type FlowNodeInstance struct {
	ID         string
	FlowNodeID string
	Kind       FlowNodeKind
	State      FlowNodeState

	ProcessInstanceID string
	ProcessModelID    string
	CorrelationID     string

	Token Token
}
