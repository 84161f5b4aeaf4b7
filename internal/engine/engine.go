package engine

import (
	"database/sql"
	"strings"
	"time"

	"github.com/dori/todostudio/internal/db"
	"github.com/dori/todostudio/internal/model"
	"github.com/google/uuid"
)

// Engine is the mutation surface over the task store. Every operation runs
// as one atomic transaction: the before-read, the data write, the event
// append and the stack update all commit together or not at all.
//
// Operations on ids that no longer exist return (nil, nil) instead of an
// error, so a stale reference (say, a double-fired delete) stays harmless.
type Engine struct {
	db  *db.DB
	now func() int64 // Unix milliseconds
}

// New creates an engine over an opened store handle.
func New(database *db.DB) *Engine {
	return &Engine{
		db:  database,
		now: func() int64 { return time.Now().UnixMilli() },
	}
}

func newID() string {
	return uuid.New().String()
}

// logMutation appends the event and records it on the undo stack, clearing
// redo, inside the caller's transaction. The event id is assigned here.
func (e *Engine) logMutation(tx *sql.Tx, ev *model.Event) error {
	ev.ID = newID()
	if err := db.AppendEvent(tx, ev); err != nil {
		return err
	}

	stacks, err := db.GetEventStacks(tx)
	if err != nil {
		return err
	}
	stacks.RecordMutation(ev.ID)
	return db.PutEventStacks(tx, stacks)
}

// Lists. List operations are structural: they are never event-logged and so
// never undoable, unlike task operations.

// CreateList creates a list ordered after all existing ones.
func (e *Engine) CreateList(name string) (*model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("list name is required")
	}

	now := e.now()
	list := &model.List{
		ID:        newID(),
		Name:      name,
		Order:     now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := e.db.Transaction(func(tx *sql.Tx) error {
		return db.PutList(tx, list)
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// RenameList renames a list. Returns nil when the list no longer exists.
func (e *Engine) RenameList(id, name string) (*model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("list name is required")
	}

	var renamed *model.List
	err := e.db.Transaction(func(tx *sql.Tx) error {
		list, err := db.GetList(tx, id)
		if err != nil || list == nil {
			return err
		}
		list.Name = name
		list.UpdatedAt = e.now()
		if err := db.PutList(tx, list); err != nil {
			return err
		}
		renamed = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// SwapListOrder exchanges the manual positions of two lists, which is how a
// caller moves a list up or down. A missing list makes the swap a no-op.
func (e *Engine) SwapListOrder(aID, bID string) error {
	if aID == bID {
		return nil
	}
	return e.db.Transaction(func(tx *sql.Tx) error {
		a, err := db.GetList(tx, aID)
		if err != nil {
			return err
		}
		b, err := db.GetList(tx, bID)
		if err != nil {
			return err
		}
		if a == nil || b == nil {
			return nil
		}

		now := e.now()
		a.Order, b.Order = b.Order, a.Order
		a.UpdatedAt = now
		b.UpdatedAt = now

		if err := db.PutList(tx, a); err != nil {
			return err
		}
		return db.PutList(tx, b)
	})
}

// DeleteList removes the list and cascades to every task referencing it, in
// one transaction. No tasks are left dangling. The deletion is irreversible.
func (e *Engine) DeleteList(id string) error {
	return e.db.Transaction(func(tx *sql.Tx) error {
		if err := db.DeleteList(tx, id); err != nil {
			return err
		}
		return db.DeleteTasksByList(tx, id)
	})
}

// GetLists returns all lists in manual order.
func (e *Engine) GetLists() ([]model.List, error) {
	return db.GetLists(e.db)
}

// Tasks.

// TaskInput carries the caller-supplied fields for a new task. Order is
// typically one past the highest order in the target list; NextTaskOrder
// computes that.
type TaskInput struct {
	ListID   string
	Title    string
	Note     string
	Priority model.Priority
	DueDate  string
	Order    int64
}

// CreateTask validates the input, stores the task and logs a task.create
// event. New tasks always start open with CompletedAt zero.
func (e *Engine) CreateTask(input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationf("task title is required")
	}
	if input.ListID == "" {
		return nil, validationf("task list id is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, validationf("unknown priority %q", priority)
	}

	now := e.now()
	task := &model.Task{
		ID:          newID(),
		ListID:      input.ListID,
		Title:       title,
		Note:        input.Note,
		Priority:    priority,
		DueDate:     input.DueDate,
		Completed:   false,
		CompletedAt: 0,
		Order:       input.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := e.db.Transaction(func(tx *sql.Tx) error {
		if err := db.PutTask(tx, task); err != nil {
			return err
		}
		return e.logMutation(tx, &model.Event{
			Type:      model.EventTaskCreate,
			TaskID:    task.ID,
			ListID:    task.ListID,
			After:     task,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// TaskPatch lists the fields an update may change. Nil fields are left
// alone. Setting DueDate to an empty string clears the due date. Completion
// state is not patchable; it belongs to ToggleCompletion.
type TaskPatch struct {
	ListID   *string
	Title    *string
	Note     *string
	Priority *model.Priority
	DueDate  *string
	Order    *int64
}

func (p TaskPatch) validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return validationf("task title is required")
	}
	if p.ListID != nil && *p.ListID == "" {
		return validationf("task list id is required")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return validationf("unknown priority %q", *p.Priority)
	}
	return nil
}

func (p TaskPatch) apply(t model.Task) model.Task {
	if p.ListID != nil {
		t.ListID = *p.ListID
	}
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Note != nil {
		t.Note = *p.Note
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	return t
}

// UpdateTask applies a patch to a task and logs a task.edit event carrying
// the full before and after snapshots. Returns nil when the task no longer
// exists (for example an edit racing a delete), with nothing logged.
func (e *Engine) UpdateTask(id string, patch TaskPatch) (*model.Task, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	return e.mutateTask(id, func(t model.Task, now int64) (model.Task, model.EventType) {
		return patch.apply(t), model.EventTaskEdit
	})
}

// ToggleCompletion marks a task completed or open. It shares the update path
// but logs under task.complete or task.reopen so the activity log can tell
// the transitions apart.
func (e *Engine) ToggleCompletion(id string, completed bool) (*model.Task, error) {
	return e.mutateTask(id, func(t model.Task, now int64) (model.Task, model.EventType) {
		t.Completed = completed
		if completed {
			t.CompletedAt = now
			return t, model.EventTaskComplete
		}
		t.CompletedAt = 0
		return t, model.EventTaskReopen
	})
}

// mutateTask is the shared read-merge-write-log path for task updates.
func (e *Engine) mutateTask(id string, merge func(model.Task, int64) (model.Task, model.EventType)) (*model.Task, error) {
	var updated *model.Task
	err := e.db.Transaction(func(tx *sql.Tx) error {
		before, err := db.GetTask(tx, id)
		if err != nil || before == nil {
			return err
		}

		now := e.now()
		after, eventType := merge(*before, now)
		after.UpdatedAt = now

		if err := db.PutTask(tx, &after); err != nil {
			return err
		}
		if err := e.logMutation(tx, &model.Event{
			Type:      eventType,
			TaskID:    id,
			ListID:    after.ListID,
			Before:    before,
			After:     &after,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		updated = &after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes a task and logs a task.delete event holding the final
// snapshot. Returns the deleted task, or nil when it was already gone.
func (e *Engine) DeleteTask(id string) (*model.Task, error) {
	var deleted *model.Task
	err := e.db.Transaction(func(tx *sql.Tx) error {
		var err error
		deleted, err = e.deleteTaskTx(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (e *Engine) deleteTaskTx(tx *sql.Tx, id string) (*model.Task, error) {
	before, err := db.GetTask(tx, id)
	if err != nil || before == nil {
		return nil, err
	}
	if err := db.DeleteTask(tx, id); err != nil {
		return nil, err
	}
	if err := e.logMutation(tx, &model.Event{
		Type:      model.EventTaskDelete,
		TaskID:    id,
		ListID:    before.ListID,
		Before:    before,
		CreatedAt: e.now(),
	}); err != nil {
		return nil, err
	}
	return before, nil
}

// ClearCompleted deletes every completed task in a list. Each deletion goes
// through the regular delete path, so each one is logged and individually
// undoable. Returns the number of tasks removed.
func (e *Engine) ClearCompleted(listID string) (int, error) {
	cleared := 0
	err := e.db.Transaction(func(tx *sql.Tx) error {
		cleared = 0
		tasks, err := db.GetTasksByList(tx, listID)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if !t.Completed {
				continue
			}
			if _, err := e.deleteTaskTx(tx, t.ID); err != nil {
				return err
			}
			cleared++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cleared, nil
}

// ReorderTasks rewrites the manual order of a list's tasks to match the
// slice order. Ids that no longer exist or belong to another list are
// skipped. Like list moves, reordering is structural and not event-logged.
func (e *Engine) ReorderTasks(listID string, orderedIDs []string) error {
	return e.db.Transaction(func(tx *sql.Tx) error {
		now := e.now()
		for i, id := range orderedIDs {
			task, err := db.GetTask(tx, id)
			if err != nil {
				return err
			}
			if task == nil || task.ListID != listID {
				continue
			}
			task.Order = int64(i)
			task.UpdatedAt = now
			if err := db.PutTask(tx, task); err != nil {
				return err
			}
		}
		return nil
	})
}

// NextTaskOrder returns one past the highest manual order in a list, the
// default order for a task appended at the end.
func (e *Engine) NextTaskOrder(listID string) (int64, error) {
	tasks, err := db.GetTasksByList(e.db, listID)
	if err != nil {
		return 0, err
	}
	next := int64(0)
	for _, t := range tasks {
		if t.Order >= next {
			next = t.Order + 1
		}
	}
	return next, nil
}

// Reads.

// GetTasksByList returns the tasks in a list; an empty id returns all tasks.
func (e *Engine) GetTasksByList(listID string) ([]model.Task, error) {
	if listID == "" {
		return db.GetAllTasks(e.db)
	}
	return db.GetTasksByList(e.db, listID)
}

// GetAllTasks returns every task across all lists.
func (e *Engine) GetAllTasks() ([]model.Task, error) {
	return db.GetAllTasks(e.db)
}

// GetRecentEvents returns at most limit events, newest first.
func (e *Engine) GetRecentEvents(limit int) ([]model.Event, error) {
	return db.GetRecentEvents(e.db, limit)
}

// GetAllEvents returns the whole event log, oldest first.
func (e *Engine) GetAllEvents() ([]model.Event, error) {
	return db.GetAllEvents(e.db)
}

// GetStacks returns the current undo/redo stacks.
func (e *Engine) GetStacks() (model.EventStacks, error) {
	return db.GetEventStacks(e.db)
}
