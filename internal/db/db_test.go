package db

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dori/todostudio/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestOpenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	list := &model.List{ID: "l1", Name: "Work", Order: 1, CreatedAt: 1, UpdatedAt: 1}
	if err := PutList(database, list); err != nil {
		t.Fatalf("Failed to insert list: %v", err)
	}
	database.Close()

	// Opening again must re-run migrations harmlessly and see the same data.
	database, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer database.Close()

	got, err := GetList(database, "l1")
	if err != nil {
		t.Fatalf("Failed to read list: %v", err)
	}
	if got == nil || got.Name != "Work" {
		t.Fatalf("List did not survive reopen: %+v", got)
	}
}

func TestTransactionRollsBackCompletely(t *testing.T) {
	database := openTestDB(t)

	boom := fmt.Errorf("boom")
	err := database.Transaction(func(tx *sql.Tx) error {
		if err := PutList(tx, &model.List{ID: "l1", Name: "Work", Order: 1, CreatedAt: 1, UpdatedAt: 1}); err != nil {
			return err
		}
		if err := PutTask(tx, &model.Task{ID: "t1", ListID: "l1", Title: "Task", Priority: model.PriorityMedium, CreatedAt: 1, UpdatedAt: 1}); err != nil {
			return err
		}
		return boom
	})

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StorageError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("StorageError should wrap the cause, got %v", err)
	}

	// Neither write may have survived.
	if list, _ := GetList(database, "l1"); list != nil {
		t.Fatalf("List leaked out of a rolled-back transaction: %+v", list)
	}
	if task, _ := GetTask(database, "t1"); task != nil {
		t.Fatalf("Task leaked out of a rolled-back transaction: %+v", task)
	}
}

func TestRecentEventsOrderIsStable(t *testing.T) {
	database := openTestDB(t)

	// Same created_at on purpose: insertion order must break the tie.
	for i := 1; i <= 3; i++ {
		ev := &model.Event{
			ID:        fmt.Sprintf("e%d", i),
			Type:      model.EventTaskCreate,
			TaskID:    fmt.Sprintf("t%d", i),
			CreatedAt: 100,
		}
		if err := AppendEvent(database, ev); err != nil {
			t.Fatalf("Failed to append event: %v", err)
		}
	}

	recent, err := GetRecentEvents(database, 2)
	if err != nil {
		t.Fatalf("Failed to read recent events: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(recent))
	}
	if recent[0].ID != "e3" || recent[1].ID != "e2" {
		t.Fatalf("Wrong order: %s, %s", recent[0].ID, recent[1].ID)
	}

	all, err := GetAllEvents(database)
	if err != nil {
		t.Fatalf("Failed to read all events: %v", err)
	}
	if len(all) != 3 || all[0].ID != "e1" || all[2].ID != "e3" {
		t.Fatalf("GetAllEvents not in insertion order: %+v", all)
	}
}

func TestEventSnapshotsRoundTrip(t *testing.T) {
	database := openTestDB(t)

	before := &model.Task{ID: "t1", ListID: "l1", Title: "Old", Priority: model.PriorityLow, Order: 3, CreatedAt: 1, UpdatedAt: 1}
	after := &model.Task{ID: "t1", ListID: "l1", Title: "New", Priority: model.PriorityHigh, DueDate: "2026-09-01", Order: 3, CreatedAt: 1, UpdatedAt: 2}

	ev := &model.Event{
		ID:        "e1",
		Type:      model.EventTaskEdit,
		TaskID:    "t1",
		ListID:    "l1",
		Before:    before,
		After:     after,
		CreatedAt: 2,
	}
	if err := AppendEvent(database, ev); err != nil {
		t.Fatalf("Failed to append event: %v", err)
	}

	got, err := GetEvent(database, "e1")
	if err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	if got == nil {
		t.Fatal("Event not found")
	}
	if *got.Before != *before || *got.After != *after {
		t.Fatalf("Snapshots did not round-trip: %+v / %+v", got.Before, got.After)
	}
}

func TestEventStacksDefaultToEmpty(t *testing.T) {
	database := openTestDB(t)

	stacks, err := GetEventStacks(database)
	if err != nil {
		t.Fatalf("Failed to read stacks: %v", err)
	}
	if stacks.Undo == nil || stacks.Redo == nil {
		t.Fatal("Stacks slices must not be nil")
	}
	if len(stacks.Undo) != 0 || len(stacks.Redo) != 0 {
		t.Fatalf("Expected empty stacks, got %+v", stacks)
	}

	stacks.RecordMutation("e1")
	stacks.RecordMutation("e2")
	if err := PutEventStacks(database, stacks); err != nil {
		t.Fatalf("Failed to store stacks: %v", err)
	}

	got, err := GetEventStacks(database)
	if err != nil {
		t.Fatalf("Failed to re-read stacks: %v", err)
	}
	if len(got.Undo) != 2 || got.Undo[1] != "e2" {
		t.Fatalf("Stacks did not round-trip: %+v", got)
	}
}
