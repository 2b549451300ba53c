package api

// ProcessModel is the caller-facing projection of a process definition.
//
// StartEventIDs and EndEventIDs are filtered: they contain only events that
// sit in a lane accessible to the identity the projection was built for, so
// two identities may legitimately see different views of the same model.
type ProcessModel struct {
	ID         string
	Key        string
	Name       string
	Executable bool

	StartEventIDs []string
	EndEventIDs   []string
}

// ProcessModelList wraps the models visible to an identity.
type ProcessModelList struct {
	ProcessModels []ProcessModel
}

// FormFieldType enumerates the form field types a user task may declare.
type FormFieldType string

const (
	FormFieldString  FormFieldType = "string"
	FormFieldLong    FormFieldType = "long"
	FormFieldNumber  FormFieldType = "number"
	FormFieldBoolean FormFieldType = "boolean"
	FormFieldDate    FormFieldType = "date"
	FormFieldEnum    FormFieldType = "enum"
)

// FormField describes one input of a user task form.
//
// Label and DefaultValue may contain ${path} expressions; they arrive here
// already evaluated against the task's token payload.
type FormField struct {
	ID           string
	Label        string
	Type         FormFieldType
	DefaultValue string
}

// UserTaskConfig carries the form layout of a user task.
type UserTaskConfig struct {
	FormFields []FormField
}

// UserTask is a suspended user task visible to the requesting identity.
type UserTask struct {
	// ID is the flow node instance id. It is the handle FinishUserTask takes.
	ID string

	// Key is the flow node id within the process definition.
	Key string

	Name string

	ProcessInstanceID string
	ProcessModelID    string
	CorrelationID     string

	// TokenPayload is the task's current token data, read-only.
	TokenPayload map[string]any

	Config UserTaskConfig
}

// UserTaskList wraps the tasks visible to an identity in a scope.
type UserTaskList struct {
	UserTasks []UserTask
}

// EventType enumerates the catch event types exposed to consumers.
type EventType string

const (
	EventTypeSignal  EventType = "signal"
	EventTypeMessage EventType = "message"
)

// Event is a suspended catch event visible to the requesting identity.
type Event struct {
	// ID is the flow node instance id. It is the handle TriggerEvent takes.
	ID string

	// Key is the flow node id within the process definition.
	Key string

	Name string
	Type EventType

	ProcessInstanceID string
	ProcessModelID    string
	CorrelationID     string
}

// EventList wraps the events visible to an identity in a scope.
type EventList struct {
	Events []Event
}

// CorrelationResult is the outcome of one finished end event of a
// correlation. Only end events reached by the process that originally started
// the correlation are reported; end events of called sub-processes are not.
type CorrelationResult struct {
	CorrelationID string
	EndEventID    string
	TokenPayload  map[string]any
}

// StartCallbackType selects when StartProcessInstance returns.
type StartCallbackType string

const (
	// StartCallbackOnInstanceCreated returns as soon as the engine has
	// created the process instance.
	StartCallbackOnInstanceCreated StartCallbackType = "on_instance_created"

	// StartCallbackOnEndEventReached blocks until the given end event of the
	// started correlation is reached. StartProcessRequest.EndEventID is
	// required for this mode.
	StartCallbackOnEndEventReached StartCallbackType = "on_end_event_reached"
)

// StartProcessRequest carries the caller-supplied parts of a process start.
type StartProcessRequest struct {
	// CorrelationID groups the new instance with prior ones. Empty means a
	// fresh correlation id is generated.
	CorrelationID string

	// InputValues seed the initial token payload.
	InputValues map[string]any

	// EndEventID names the end event to await. Only consulted for
	// StartCallbackOnEndEventReached.
	EndEventID string

	Callback StartCallbackType
}

// ProcessStartResult reports a successful start.
type ProcessStartResult struct {
	ProcessInstanceID string
	CorrelationID     string

	// EndEventID and TokenPayload report the end event that satisfied a
	// StartCallbackOnEndEventReached start, and are empty otherwise.
	EndEventID   string
	TokenPayload map[string]any
}

// UserTaskResult carries the form values a caller submits to finish a task.
// FormFields must contain at least one entry; a nil or empty map is rejected
// before anything is published.
type UserTaskResult struct {
	FormFields map[string]any
}
