package db

import (
	"database/sql"

	"github.com/dori/todostudio/internal/model"
)

const taskColumns = `id, list_id, title, note, priority, due_date,
	       completed, completed_at, position, created_at, updated_at`

// GetAllTasks returns every task across all lists.
func GetAllTasks(q Queryer) ([]model.Task, error) {
	rows, err := q.Query(`
		SELECT ` + taskColumns + `
		FROM tasks
		ORDER BY position, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetTasksByList returns the tasks belonging to a list.
func GetTasksByList(q Queryer, listID string) ([]model.Task, error) {
	rows, err := q.Query(`
		SELECT `+taskColumns+`
		FROM tasks
		WHERE list_id = ?
		ORDER BY position, created_at
	`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetTask returns a single task by ID, or nil when it does not exist.
func GetTask(q Queryer, id string) (*model.Task, error) {
	row := q.QueryRow(`
		SELECT `+taskColumns+`
		FROM tasks WHERE id = ?
	`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// PutTask inserts or replaces a task row.
func PutTask(q Queryer, t *model.Task) error {
	var dueDate interface{}
	if t.DueDate != "" {
		dueDate = t.DueDate
	}

	completed := 0
	if t.Completed {
		completed = 1
	}

	_, err := q.Exec(`
		INSERT INTO tasks (id, list_id, title, note, priority, due_date,
			completed, completed_at, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			list_id = excluded.list_id,
			title = excluded.title,
			note = excluded.note,
			priority = excluded.priority,
			due_date = excluded.due_date,
			completed = excluded.completed,
			completed_at = excluded.completed_at,
			position = excluded.position,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, t.ID, t.ListID, t.Title, t.Note, t.Priority, dueDate,
		completed, t.CompletedAt, t.Order, t.CreatedAt, t.UpdatedAt)
	return err
}

// DeleteTask removes a task row. Deleting an absent id is not an error.
func DeleteTask(q Queryer, id string) error {
	_, err := q.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// DeleteTasksByList removes every task belonging to a list.
func DeleteTasksByList(q Queryer, listID string) error {
	_, err := q.Exec(`DELETE FROM tasks WHERE list_id = ?`, listID)
	return err
}

// DeleteAllTasks empties the tasks table (import in replace mode).
func DeleteAllTasks(q Queryer) error {
	_, err := q.Exec(`DELETE FROM tasks`)
	return err
}

// Helper functions

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var dueDate sql.NullString
	var completed int

	err := s.Scan(
		&t.ID, &t.ListID, &t.Title, &t.Note, &t.Priority, &dueDate,
		&completed, &t.CompletedAt, &t.Order, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Completed = completed == 1
	if dueDate.Valid {
		t.DueDate = dueDate.String
	}
	return &t, nil
}
