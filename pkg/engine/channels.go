package engine

// Channel names are plain strings agreed between the engine and the gate.
// All of them embed an entity id, so a subscription can only ever rendezvous
// with messages about that one entity.

// UserTaskProceedChannel names the channel on which the gate publishes a
// caller's task result for the engine to act on.
func UserTaskProceedChannel(flowNodeInstanceID string) string {
	return "processengine/usertask/" + flowNodeInstanceID + "/proceed"
}

// UserTaskFinishedChannel names the channel on which the engine reports that
// a user task has finished.
func UserTaskFinishedChannel(flowNodeInstanceID string) string {
	return "processengine/usertask/" + flowNodeInstanceID + "/finished"
}

// EventTriggerChannel names the channel on which the gate publishes a payload
// for a suspended catch event.
func EventTriggerChannel(flowNodeInstanceID string) string {
	return "processengine/event/" + flowNodeInstanceID + "/trigger"
}

// EndEventChannel names the channel on which the engine reports that a
// correlation reached the given end event.
func EndEventChannel(correlationID, endEventID string) string {
	return "processengine/correlation/" + correlationID + "/endevent/" + endEventID
}
