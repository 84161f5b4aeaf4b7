package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dori/todostudio/internal/model"
)

const eventColumns = `id, type, task_id, list_id, before_snapshot,
	       after_snapshot, target_event_id, target_type, target_title, created_at`

// AppendEvent writes one immutable event record. There is deliberately no
// update counterpart: events are append-only and only ever read back.
func AppendEvent(q Queryer, e *model.Event) error {
	args, err := eventArgs(e)
	if err != nil {
		return err
	}
	_, err = q.Exec(`
		INSERT INTO events (id, type, task_id, list_id, before_snapshot,
			after_snapshot, target_event_id, target_type, target_title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	return err
}

// PutEvent inserts an event, leaving any existing record with the same id
// untouched. Used by merge-mode import, where re-importing an export must
// not rewrite history.
func PutEvent(q Queryer, e *model.Event) error {
	args, err := eventArgs(e)
	if err != nil {
		return err
	}
	_, err = q.Exec(`
		INSERT INTO events (id, type, task_id, list_id, before_snapshot,
			after_snapshot, target_event_id, target_type, target_title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, args...)
	return err
}

// GetEvent returns a single event by ID, or nil when it does not exist.
func GetEvent(q Queryer, id string) (*model.Event, error) {
	row := q.QueryRow(`
		SELECT `+eventColumns+`
		FROM events WHERE id = ?
	`, id)

	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetRecentEvents returns at most limit events, newest first. Ties on
// created_at are broken by insertion order (rowid) so the order is stable.
func GetRecentEvents(q Queryer, limit int) ([]model.Event, error) {
	rows, err := q.Query(`
		SELECT `+eventColumns+`
		FROM events
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetAllEvents returns every event in insertion order, oldest first.
func GetAllEvents(q Queryer) ([]model.Event, error) {
	rows, err := q.Query(`
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// DeleteAllEvents empties the events table (import in replace mode).
func DeleteAllEvents(q Queryer) error {
	_, err := q.Exec(`DELETE FROM events`)
	return err
}

// Helper functions

func eventArgs(e *model.Event) ([]interface{}, error) {
	before, err := marshalSnapshot(e.Before)
	if err != nil {
		return nil, fmt.Errorf("marshal before snapshot: %w", err)
	}
	after, err := marshalSnapshot(e.After)
	if err != nil {
		return nil, fmt.Errorf("marshal after snapshot: %w", err)
	}

	return []interface{}{
		e.ID, e.Type, nullable(e.TaskID), nullable(e.ListID), before, after,
		nullable(e.TargetEventID), nullable(string(e.TargetType)),
		nullable(e.TargetTitle), e.CreatedAt,
	}, nil
}

func marshalSnapshot(t *model.Task) (interface{}, error) {
	if t == nil {
		return nil, nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func scanEvent(s scanner) (*model.Event, error) {
	var e model.Event
	var taskID, listID, before, after sql.NullString
	var targetEventID, targetType, targetTitle sql.NullString

	err := s.Scan(
		&e.ID, &e.Type, &taskID, &listID, &before, &after,
		&targetEventID, &targetType, &targetTitle, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.TaskID = taskID.String
	e.ListID = listID.String
	e.TargetEventID = targetEventID.String
	e.TargetType = model.EventType(targetType.String)
	e.TargetTitle = targetTitle.String

	if before.Valid {
		var t model.Task
		if err := json.Unmarshal([]byte(before.String), &t); err != nil {
			return nil, fmt.Errorf("unmarshal before snapshot of event %s: %w", e.ID, err)
		}
		e.Before = &t
	}
	if after.Valid {
		var t model.Task
		if err := json.Unmarshal([]byte(after.String), &t); err != nil {
			return nil, fmt.Errorf("unmarshal after snapshot of event %s: %w", e.ID, err)
		}
		e.After = &t
	}

	return &e, nil
}
