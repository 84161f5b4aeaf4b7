package db

import (
	"database/sql"

	"github.com/dori/todostudio/internal/model"
)

// GetLists returns all lists ordered by their manual position.
func GetLists(q Queryer) ([]model.List, error) {
	rows, err := q.Query(`
		SELECT id, name, position, created_at, updated_at
		FROM lists
		ORDER BY position, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []model.List
	for rows.Next() {
		var l model.List
		if err := rows.Scan(&l.ID, &l.Name, &l.Order, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// GetList returns a single list by ID, or nil when it does not exist.
func GetList(q Queryer, id string) (*model.List, error) {
	var l model.List
	err := q.QueryRow(`
		SELECT id, name, position, created_at, updated_at
		FROM lists WHERE id = ?
	`, id).Scan(&l.ID, &l.Name, &l.Order, &l.CreatedAt, &l.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// PutList inserts or replaces a list row.
func PutList(q Queryer, l *model.List) error {
	_, err := q.Exec(`
		INSERT INTO lists (id, name, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = excluded.position,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, l.ID, l.Name, l.Order, l.CreatedAt, l.UpdatedAt)
	return err
}

// DeleteList removes a list row. Cascading to the list's tasks is the
// caller's job so it happens in the same transaction.
func DeleteList(q Queryer, id string) error {
	_, err := q.Exec(`DELETE FROM lists WHERE id = ?`, id)
	return err
}

// DeleteAllLists empties the lists table (import in replace mode).
func DeleteAllLists(q Queryer) error {
	_, err := q.Exec(`DELETE FROM lists`)
	return err
}
