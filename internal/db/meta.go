package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dori/todostudio/internal/model"
)

// MetaEventStacks is the fixed meta key holding the undo/redo stacks.
const MetaEventStacks = "eventStacks"

// GetMeta returns the raw JSON value stored under key, or nil when absent.
func GetMeta(q Queryer, key string) ([]byte, error) {
	var value string
	err := q.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// PutMeta inserts or replaces the value stored under key.
func PutMeta(q Queryer, key string, value []byte) error {
	_, err := q.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(value))
	return err
}

// GetAllMeta returns the whole meta table keyed by meta key.
func GetAllMeta(q Queryer) (map[string]json.RawMessage, error) {
	rows, err := q.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := map[string]json.RawMessage{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		meta[key] = json.RawMessage(value)
	}
	return meta, rows.Err()
}

// DeleteAllMeta empties the meta table (import in replace mode).
func DeleteAllMeta(q Queryer) error {
	_, err := q.Exec(`DELETE FROM meta`)
	return err
}

// GetEventStacks loads the undo/redo stacks, defaulting to empty stacks when
// the record has not been written yet.
func GetEventStacks(q Queryer) (model.EventStacks, error) {
	stacks := model.NewEventStacks()

	value, err := GetMeta(q, MetaEventStacks)
	if err != nil {
		return stacks, err
	}
	if value == nil {
		return stacks, nil
	}

	if err := json.Unmarshal(value, &stacks); err != nil {
		return stacks, fmt.Errorf("unmarshal event stacks: %w", err)
	}
	if stacks.Undo == nil {
		stacks.Undo = []string{}
	}
	if stacks.Redo == nil {
		stacks.Redo = []string{}
	}
	return stacks, nil
}

// PutEventStacks stores the undo/redo stacks.
func PutEventStacks(q Queryer, stacks model.EventStacks) error {
	if stacks.Undo == nil {
		stacks.Undo = []string{}
	}
	if stacks.Redo == nil {
		stacks.Redo = []string{}
	}
	value, err := json.Marshal(stacks)
	if err != nil {
		return fmt.Errorf("marshal event stacks: %w", err)
	}
	return PutMeta(q, MetaEventStacks, value)
}
