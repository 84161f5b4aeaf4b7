package model

// List represents a named container of tasks with a manual display order.
// Order is initialized to the creation timestamp so new lists sort last,
// and gets swapped with a neighbor's when a list is moved.
// Timestamps are Unix milliseconds.
type List struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Order     int64  `json:"order"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}
