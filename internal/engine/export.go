package engine

import (
	"database/sql"
	"encoding/json"

	"github.com/dori/todostudio/internal/db"
	"github.com/dori/todostudio/internal/model"
)

// SnapshotVersion is the interchange payload version written by ExportAll.
const SnapshotVersion = 2

// Snapshot is the versioned payload produced by ExportAll and accepted by
// ImportAll. It round-trips the whole store losslessly except the undo/redo
// stacks, which import always resets: imported rows have no matching events,
// so a carried-over undo chain would be lying.
type Snapshot struct {
	Version    int                        `json:"version"`
	ExportedAt int64                      `json:"exportedAt"`
	Lists      []model.List               `json:"lists"`
	Tasks      []model.Task               `json:"tasks"`
	Events     []model.Event              `json:"events"`
	Meta       map[string]json.RawMessage `json:"meta"`
}

// ImportMode selects how ImportAll treats existing data.
type ImportMode string

const (
	// ImportReplace clears all four tables before loading the payload.
	ImportReplace ImportMode = "replace"
	// ImportMerge upserts payload records by id without clearing anything.
	ImportMerge ImportMode = "merge"
)

// ParseSnapshot decodes a raw export payload. Malformed JSON or a payload
// without array-typed lists and tasks is a ValidationError.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, validationf("import payload is not valid JSON: %v", err)
	}
	if snap.Lists == nil || snap.Tasks == nil {
		return nil, validationf("import payload must contain lists and tasks arrays")
	}
	return &snap, nil
}

// ExportAll snapshots all four tables in one read transaction. It produces
// no events and changes nothing.
func (e *Engine) ExportAll() (*Snapshot, error) {
	snap := &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: e.now(),
	}

	err := e.db.Transaction(func(tx *sql.Tx) error {
		var err error
		if snap.Lists, err = db.GetLists(tx); err != nil {
			return err
		}
		if snap.Tasks, err = db.GetAllTasks(tx); err != nil {
			return err
		}
		if snap.Events, err = db.GetAllEvents(tx); err != nil {
			return err
		}
		snap.Meta, err = db.GetAllMeta(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Empty tables export as empty arrays, not null.
	if snap.Lists == nil {
		snap.Lists = []model.List{}
	}
	if snap.Tasks == nil {
		snap.Tasks = []model.Task{}
	}
	if snap.Events == nil {
		snap.Events = []model.Event{}
	}
	return snap, nil
}

// ImportAll loads a snapshot in one transaction. Replace mode clears the
// four tables first; merge mode upserts by id. Both modes reset the
// undo/redo stacks to empty.
func (e *Engine) ImportAll(snap *Snapshot, mode ImportMode) error {
	if snap == nil || snap.Lists == nil || snap.Tasks == nil {
		return validationf("import payload must contain lists and tasks arrays")
	}
	switch mode {
	case ImportReplace, ImportMerge:
	default:
		return validationf("unknown import mode %q", mode)
	}

	return e.db.Transaction(func(tx *sql.Tx) error {
		if mode == ImportReplace {
			if err := db.DeleteAllLists(tx); err != nil {
				return err
			}
			if err := db.DeleteAllTasks(tx); err != nil {
				return err
			}
			if err := db.DeleteAllEvents(tx); err != nil {
				return err
			}
			if err := db.DeleteAllMeta(tx); err != nil {
				return err
			}
		}

		for i := range snap.Lists {
			if err := db.PutList(tx, &snap.Lists[i]); err != nil {
				return err
			}
		}
		for i := range snap.Tasks {
			if err := db.PutTask(tx, &snap.Tasks[i]); err != nil {
				return err
			}
		}
		for i := range snap.Events {
			if err := db.PutEvent(tx, &snap.Events[i]); err != nil {
				return err
			}
		}
		for key, value := range snap.Meta {
			if err := db.PutMeta(tx, key, []byte(value)); err != nil {
				return err
			}
		}

		// Imported rows were not produced by the events on the stacks, so
		// any undo chain is invalid from here on.
		return db.PutEventStacks(tx, model.NewEventStacks())
	})
}
