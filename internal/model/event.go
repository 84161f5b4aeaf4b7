package model

// EventType identifies the kind of state transition an event records.
type EventType string

const (
	EventTaskCreate   EventType = "task.create"
	EventTaskEdit     EventType = "task.edit"
	EventTaskComplete EventType = "task.complete"
	EventTaskReopen   EventType = "task.reopen"
	EventTaskDelete   EventType = "task.delete"

	// Action events record an undo/redo invocation itself, for the activity
	// log. They reference a target event and never enter the stacks.
	EventActionUndo EventType = "action.undo"
	EventActionRedo EventType = "action.redo"
)

// Event is an immutable record of one task mutation. Before and After are
// full snapshots rather than diffs, so undoing or replaying an event is a
// plain replace. Once appended an event is only ever read.
type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	TaskID string    `json:"taskId,omitempty"`
	ListID string    `json:"listId,omitempty"`
	Before *Task     `json:"before,omitempty"`
	After  *Task     `json:"after,omitempty"`

	// Set on action events only.
	TargetEventID string    `json:"targetEventId,omitempty"`
	TargetType    EventType `json:"targetType,omitempty"`
	TargetTitle   string    `json:"targetTitle,omitempty"`

	CreatedAt int64 `json:"createdAt"`
}

// IsAction reports whether the event records an undo/redo invocation.
func (e *Event) IsAction() bool {
	return e.Type == EventActionUndo || e.Type == EventActionRedo
}

// Title returns the title of the task the event is about, preferring the
// after snapshot.
func (e *Event) Title() string {
	if e.After != nil {
		return e.After.Title
	}
	if e.Before != nil {
		return e.Before.Title
	}
	return ""
}
