package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/dori/todostudio/internal/db"
	"github.com/dori/todostudio/internal/model"
	"github.com/matryer/is"
)

// newTestEngine opens a real on-disk store in a temp dir and pins the clock
// to a strictly increasing fake so timestamps are deterministic.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	e := New(database)
	var tick int64
	e.now = func() int64 {
		tick++
		return 1_700_000_000_000 + tick
	}
	return e
}

func mustCreateList(t *testing.T, e *Engine, name string) *model.List {
	t.Helper()
	list, err := e.CreateList(name)
	if err != nil {
		t.Fatalf("Failed to create list: %v", err)
	}
	return list
}

func mustCreateTask(t *testing.T, e *Engine, input TaskInput) *model.Task {
	t.Helper()
	task, err := e.CreateTask(input)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	return task
}

func TestCreateListTrimsAndOrders(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	list, err := e.CreateList("  Work  ")
	is.NoErr(err)
	is.Equal(list.Name, "Work")
	is.Equal(list.Order, list.CreatedAt) // new lists default to creation order

	_, err = e.CreateList("   ")
	var ve *ValidationError
	is.True(errors.As(err, &ve))
}

func TestRenameMissingListIsNoOp(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	list, err := e.RenameList("nope", "Anything")
	is.NoErr(err)
	is.Equal(list, (*model.List)(nil))
}

func TestSwapListOrder(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	a := mustCreateList(t, e, "First")
	b := mustCreateList(t, e, "Second")

	is.NoErr(e.SwapListOrder(a.ID, b.ID))

	lists, err := e.GetLists()
	is.NoErr(err)
	is.Equal(len(lists), 2)
	is.Equal(lists[0].ID, b.ID) // swapped orders reverse the listing
	is.Equal(lists[1].ID, a.ID)
}

func TestCreateTaskDefaultsAndEvent(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	list := mustCreateList(t, e, "Work")
	task := mustCreateTask(t, e, TaskInput{
		ListID:   list.ID,
		Title:    "Draft spec",
		Priority: model.PriorityHigh,
		DueDate:  "2026-09-15",
	})

	is.Equal(task.Completed, false)
	is.Equal(task.CompletedAt, int64(0))
	is.Equal(task.Priority, model.PriorityHigh)

	events, err := e.GetAllEvents()
	is.NoErr(err)
	is.Equal(len(events), 1)
	ev := events[0]
	is.Equal(ev.Type, model.EventTaskCreate)
	is.Equal(ev.Before, (*model.Task)(nil))
	is.Equal(*ev.After, *task) // after snapshot equals the stored task

	stacks, err := e.GetStacks()
	is.NoErr(err)
	is.Equal(stacks.Undo, []string{ev.ID})
	is.Equal(len(stacks.Redo), 0)
}

func TestCreateTaskValidation(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)
	list := mustCreateList(t, e, "Work")

	var ve *ValidationError

	_, err := e.CreateTask(TaskInput{ListID: list.ID, Title: "   "})
	is.True(errors.As(err, &ve))

	_, err = e.CreateTask(TaskInput{Title: "No list"})
	is.True(errors.As(err, &ve))

	_, err = e.CreateTask(TaskInput{ListID: list.ID, Title: "Bad", Priority: "urgent"})
	is.True(errors.As(err, &ve))

	// Nothing was written by the failed attempts.
	events, err := e.GetAllEvents()
	is.NoErr(err)
	is.Equal(len(events), 0)
}

func TestUpdateTaskPatchesOnlyGivenFields(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	list := mustCreateList(t, e, "Work")
	task := mustCreateTask(t, e, TaskInput{ListID: list.ID, Title: "Draft", Note: "keep me", DueDate: "2026-09-15"})

	title := "Draft v2"
	updated, err := e.UpdateTask(task.ID, TaskPatch{Title: &title})
	is.NoErr(err)
	is.Equal(updated.Title, "Draft v2")
	is.Equal(updated.Note, "keep me")
	is.Equal(updated.DueDate, "2026-09-15")
	is.True(updated.UpdatedAt > task.UpdatedAt)

	events, err := e.GetAllEvents()
	is.NoErr(err)
	is.Equal(len(events), 2)
	edit := events[1]
	is.Equal(edit.Type, model.EventTaskEdit)
	is.Equal(*edit.Before, *task)
	is.Equal(*edit.After, *updated)
}

func TestUpdateMissingTaskIsNoOp(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	title := "Anything"
	task, err := e.UpdateTask("gone", TaskPatch{Title: &title})
	is.NoErr(err)
	is.Equal(task, (*model.Task)(nil))

	events, err := e.GetAllEvents()
	is.NoErr(err)
	is.Equal(len(events), 0)
}

func TestToggleCompletion(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	list := mustCreateList(t, e, "Work")
	task := mustCreateTask(t, e, TaskInput{ListID: list.ID, Title: "Draft"})

	done, err := e.ToggleCompletion(task.ID, true)
	is.NoErr(err)
	is.True(done.Completed)
	is.True(done.CompletedAt > 0)

	reopened, err := e.ToggleCompletion(task.ID, false)
	is.NoErr(err)
	is.Equal(reopened.Completed, false)
	is.Equal(reopened.CompletedAt, int64(0))

	events, err := e.GetAllEvents()
	is.NoErr(err)
	is.Equal(len(events), 3)
	is.Equal(events[1].Type, model.EventTaskComplete)
	is.Equal(events[2].Type, model.EventTaskReopen)
}

func TestDeleteMissingTaskIsNoOp(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	task, err := e.DeleteTask("gone")
	is.NoErr(err)
	is.Equal(task, (*model.Task)(nil))
}

func TestDeleteListCascades(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	doomed := mustCreateList(t, e, "Doomed")
	safe := mustCreateList(t, e, "Safe")
	mustCreateTask(t, e, TaskInput{ListID: doomed.ID, Title: "A"})
	mustCreateTask(t, e, TaskInput{ListID: doomed.ID, Title: "B"})
	keeper := mustCreateTask(t, e, TaskInput{ListID: safe.ID, Title: "C"})

	is.NoErr(e.DeleteList(doomed.ID))

	tasks, err := e.GetAllTasks()
	is.NoErr(err)
	is.Equal(len(tasks), 1) // no task with the deleted listId remains
	is.Equal(tasks[0].ID, keeper.ID)

	lists, err := e.GetLists()
	is.NoErr(err)
	is.Equal(len(lists), 1)
	is.Equal(lists[0].ID, safe.ID)
}

func TestClearCompleted(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	list := mustCreateList(t, e, "Work")
	a := mustCreateTask(t, e, TaskInput{ListID: list.ID, Title: "A"})
	b := mustCreateTask(t, e, TaskInput{ListID: list.ID, Title: "B"})
	mustCreateTask(t, e, TaskInput{ListID: list.ID, Title: "C"})

	_, err := e.ToggleCompletion(a.ID, true)
	is.NoErr(err)
	_, err = e.ToggleCompletion(b.ID, true)
	is.NoErr(err)

	cleared, err := e.ClearCompleted(list.ID)
	is.NoErr(err)
	is.Equal(cleared, 2)

	tasks, err := e.GetTasksByList(list.ID)
	is.NoErr(err)
	is.Equal(len(tasks), 1)
	is.Equal(tasks[0].Title, "C")

	// Each cleared task was logged separately and is individually undoable.
	ev, err := e.Undo()
	is.NoErr(err)
	is.Equal(ev.Type, model.EventTaskDelete)
	ev, err = e.Undo()
	is.NoErr(err)
	is.Equal(ev.Type, model.EventTaskDelete)

	tasks, err = e.GetTasksByList(list.ID)
	is.NoErr(err)
	is.Equal(len(tasks), 3)
}

func TestReorderTasksSkipsForeignIDs(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	list := mustCreateList(t, e, "Work")
	other := mustCreateList(t, e, "Other")
	a := mustCreateTask(t, e, TaskInput{ListID: list.ID, Title: "A", Order: 0})
	b := mustCreateTask(t, e, TaskInput{ListID: list.ID, Title: "B", Order: 1})
	foreign := mustCreateTask(t, e, TaskInput{ListID: other.ID, Title: "X", Order: 7})

	is.NoErr(e.ReorderTasks(list.ID, []string{b.ID, a.ID, foreign.ID, "missing"}))

	tasks, err := e.GetTasksByList(list.ID)
	is.NoErr(err)
	is.Equal(tasks[0].ID, b.ID)
	is.Equal(tasks[1].ID, a.ID)

	// The foreign task kept its order and list.
	got, err := e.GetTasksByList(other.ID)
	is.NoErr(err)
	is.Equal(got[0].Order, int64(7))
}

func TestNextTaskOrder(t *testing.T) {
	is := is.New(t)
	e := newTestEngine(t)

	list := mustCreateList(t, e, "Work")

	next, err := e.NextTaskOrder(list.ID)
	is.NoErr(err)
	is.Equal(next, int64(0))

	mustCreateTask(t, e, TaskInput{ListID: list.ID, Title: "A", Order: 4})

	next, err = e.NextTaskOrder(list.ID)
	is.NoErr(err)
	is.Equal(next, int64(5))
}
