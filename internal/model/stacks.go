package model

// EventStacks holds the ordered event ids awaiting undo or redo application.
// It is persisted as a single JSON document in the meta table and must only
// be modified inside the same transaction as the writes it describes.
type EventStacks struct {
	Undo []string `json:"undo"`
	Redo []string `json:"redo"`
}

// NewEventStacks returns empty stacks with non-nil slices so the persisted
// JSON always carries arrays.
func NewEventStacks() EventStacks {
	return EventStacks{Undo: []string{}, Redo: []string{}}
}

// RecordMutation pushes a freshly logged event id onto the undo stack and
// discards the redo branch. Any new edit invalidates redo history.
func (s *EventStacks) RecordMutation(eventID string) {
	s.Undo = append(s.Undo, eventID)
	s.Redo = []string{}
}

// PopUndo removes and returns the most recent undo entry.
func (s *EventStacks) PopUndo() (string, bool) {
	if len(s.Undo) == 0 {
		return "", false
	}
	id := s.Undo[len(s.Undo)-1]
	s.Undo = s.Undo[:len(s.Undo)-1]
	return id, true
}

// PopRedo removes and returns the most recent redo entry.
func (s *EventStacks) PopRedo() (string, bool) {
	if len(s.Redo) == 0 {
		return "", false
	}
	id := s.Redo[len(s.Redo)-1]
	s.Redo = s.Redo[:len(s.Redo)-1]
	return id, true
}

// PushUndo appends an id to the undo stack without touching redo. Used when
// a redo moves an event back into undoable history.
func (s *EventStacks) PushUndo(eventID string) {
	s.Undo = append(s.Undo, eventID)
}

// PushRedo appends an id to the redo stack.
func (s *EventStacks) PushRedo(eventID string) {
	s.Redo = append(s.Redo, eventID)
}
