package model

// Priority represents task priority level
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task represents a todo item belonging to a list.
//
// Timestamps are Unix milliseconds. CompletedAt is 0 whenever Completed is
// false and strictly positive whenever it is true. DueDate is a YYYY-MM-DD
// string, empty when unset. The JSON tags are the interchange format used by
// export and import, so renaming them is a breaking change.
type Task struct {
	ID          string   `json:"id"`
	ListID      string   `json:"listId"`
	Title       string   `json:"title"`
	Note        string   `json:"note"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate,omitempty"`
	Completed   bool     `json:"completed"`
	CompletedAt int64    `json:"completedAt"`
	Order       int64    `json:"order"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
}

// PriorityWeight returns a numeric weight for sorting by priority
func (t *Task) PriorityWeight() int {
	switch t.Priority {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 2
	}
}
