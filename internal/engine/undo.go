package engine

import (
	"database/sql"
	"log"

	"github.com/dori/todostudio/internal/db"
	"github.com/dori/todostudio/internal/model"
)

// Undo reverses the most recently logged task mutation and moves its event
// id onto the redo stack. It returns the reversed event so the caller can
// describe what changed, or nil when there is nothing to undo.
func (e *Engine) Undo() (*model.Event, error) {
	return e.applyHistory(model.EventActionUndo)
}

// Redo reapplies the most recently undone mutation and moves its event id
// back onto the undo stack. Returns nil when there is nothing to redo.
func (e *Engine) Redo() (*model.Event, error) {
	return e.applyHistory(model.EventActionRedo)
}

func (e *Engine) applyHistory(action model.EventType) (*model.Event, error) {
	undoing := action == model.EventActionUndo

	var target *model.Event
	err := e.db.Transaction(func(tx *sql.Tx) error {
		stacks, err := db.GetEventStacks(tx)
		if err != nil {
			return err
		}

		var id string
		var ok bool
		if undoing {
			id, ok = stacks.PopUndo()
		} else {
			id, ok = stacks.PopRedo()
		}
		if !ok {
			return nil
		}

		ev, err := db.GetEvent(tx, id)
		if err != nil {
			return err
		}
		if ev == nil {
			// The stack references an event that was never imported or was
			// wiped. Drop the entry instead of stranding the stacks.
			log.Printf("%s: event %s not found, dropping stack entry", action, id)
			return db.PutEventStacks(tx, stacks)
		}

		if undoing {
			err = applyInverse(tx, ev)
			stacks.PushRedo(id)
		} else {
			err = applyForward(tx, ev)
			stacks.PushUndo(id)
		}
		if err != nil {
			return err
		}

		if err := db.PutEventStacks(tx, stacks); err != nil {
			return err
		}
		if err := e.appendAction(tx, action, ev); err != nil {
			return err
		}
		target = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// applyInverse rolls one task event back. An event missing the snapshot its
// inverse needs is logged and skipped, never fatal: failing here would leave
// the stacks popped but the data untouched.
func applyInverse(q db.Queryer, ev *model.Event) error {
	switch ev.Type {
	case model.EventTaskCreate:
		return db.DeleteTask(q, ev.TaskID)
	case model.EventTaskDelete:
		if ev.Before == nil {
			log.Printf("undo: event %s (%s) has no before snapshot, skipping", ev.ID, ev.Type)
			return nil
		}
		return db.PutTask(q, ev.Before)
	case model.EventTaskEdit, model.EventTaskComplete, model.EventTaskReopen:
		if ev.Before == nil {
			log.Printf("undo: event %s (%s) has no before snapshot, skipping", ev.ID, ev.Type)
			return nil
		}
		return db.PutTask(q, ev.Before)
	default:
		log.Printf("undo: event %s has unknown type %q, skipping", ev.ID, ev.Type)
		return nil
	}
}

// applyForward replays one task event after an undo.
func applyForward(q db.Queryer, ev *model.Event) error {
	switch ev.Type {
	case model.EventTaskCreate:
		if ev.After == nil {
			log.Printf("redo: event %s (%s) has no after snapshot, skipping", ev.ID, ev.Type)
			return nil
		}
		return db.PutTask(q, ev.After)
	case model.EventTaskDelete:
		return db.DeleteTask(q, ev.TaskID)
	case model.EventTaskEdit, model.EventTaskComplete, model.EventTaskReopen:
		if ev.After == nil {
			log.Printf("redo: event %s (%s) has no after snapshot, skipping", ev.ID, ev.Type)
			return nil
		}
		return db.PutTask(q, ev.After)
	default:
		log.Printf("redo: event %s has unknown type %q, skipping", ev.ID, ev.Type)
		return nil
	}
}

// appendAction records the undo/redo invocation itself for the activity log.
// Action events never enter the stacks, so they cannot be undone in turn.
func (e *Engine) appendAction(q db.Queryer, action model.EventType, target *model.Event) error {
	return db.AppendEvent(q, &model.Event{
		ID:            newID(),
		Type:          action,
		TaskID:        target.TaskID,
		ListID:        target.ListID,
		TargetEventID: target.ID,
		TargetType:    target.Type,
		TargetTitle:   target.Title(),
		CreatedAt:     e.now(),
	})
}
