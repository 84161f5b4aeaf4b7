package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dori/todostudio/internal/app"
	"github.com/dori/todostudio/internal/engine"
	"github.com/dori/todostudio/internal/model"
)

var (
	version = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "lists":
		withApp(handleLists)
	case "mklist":
		withApp(handleMakeList)
	case "rename-list":
		withApp(handleRenameList)
	case "mvlist":
		withApp(handleMoveList)
	case "rmlist":
		withApp(handleRemoveList)
	case "add":
		withApp(handleAdd)
	case "tasks":
		withApp(handleTasks)
	case "edit":
		withApp(handleEdit)
	case "done":
		withApp(func(a *app.App, args []string) error { return handleToggle(a, args, true) })
	case "reopen":
		withApp(func(a *app.App, args []string) error { return handleToggle(a, args, false) })
	case "rm":
		withApp(handleRemove)
	case "clear":
		withApp(handleClear)
	case "undo":
		withApp(handleUndo)
	case "redo":
		withApp(handleRedo)
	case "log":
		withApp(handleLog)
	case "export":
		withApp(handleExport)
	case "import":
		withApp(handleImport)
	case "version":
		fmt.Printf("todostudio v%s\n", version)
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	help := `todostudio - a local task tracker with an undoable event log

Usage:
  todostudio lists                          Show all lists
  todostudio mklist <name>                  Create a list
  todostudio rename-list <list-id> <name>   Rename a list
  todostudio mvlist <list-id> <list-id>     Swap the order of two lists
  todostudio rmlist <list-id>               Delete a list and its tasks

  todostudio add <list-id> <title> [--note <text>] [--priority high|medium|low] [--due YYYY-MM-DD]
  todostudio tasks [list-id]                Show tasks (all lists by default)
  todostudio edit <task-id> [--title ...] [--note ...] [--priority ...] [--due ...] [--list <list-id>]
  todostudio done <task-id>                 Mark a task completed
  todostudio reopen <task-id>               Mark a task open again
  todostudio rm <task-id>                   Delete a task
  todostudio clear <list-id>                Delete the list's completed tasks

  todostudio undo                           Undo the last task change
  todostudio redo                           Redo the last undone change
  todostudio log [-n <count>]               Show recent activity

  todostudio export <file>                  Write a JSON backup
  todostudio import <file> [--merge]        Load a backup (replaces by default)

  todostudio version
  todostudio help

List and task operations act on ids; "lists" and "tasks" print them.
Everything except list operations, reordering, and import/export is undoable.`

	fmt.Println(help)
}

// withApp opens the store (taking the single-instance lock), runs the
// handler with the remaining args and exits non-zero on failure.
func withApp(fn func(*app.App, []string) error) {
	a, err := app.New(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := fn(a, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		a.Close()
		os.Exit(1)
	}
}

func handleLists(a *app.App, args []string) error {
	lists, err := a.Engine.GetLists()
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		fmt.Println("No lists yet. Create one with: todostudio mklist <name>")
		return nil
	}
	for _, l := range lists {
		tasks, err := a.Engine.GetTasksByList(l.ID)
		if err != nil {
			return err
		}
		open := 0
		for _, t := range tasks {
			if !t.Completed {
				open++
			}
		}
		fmt.Printf("%s  %s (%d open / %d total)\n", l.ID, l.Name, open, len(tasks))
	}
	return nil
}

func handleMakeList(a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: todostudio mklist <name>")
	}
	list, err := a.Engine.CreateList(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Created list %s (%s)\n", list.Name, list.ID)
	return nil
}

func handleRenameList(a *app.App, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: todostudio rename-list <list-id> <name>")
	}
	list, err := a.Engine.RenameList(args[0], args[1])
	if err != nil {
		return err
	}
	if list == nil {
		fmt.Println("No such list.")
		return nil
	}
	fmt.Printf("Renamed list to %s\n", list.Name)
	return nil
}

func handleMoveList(a *app.App, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: todostudio mvlist <list-id> <list-id>")
	}
	return a.Engine.SwapListOrder(args[0], args[1])
}

func handleRemoveList(a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: todostudio rmlist <list-id>")
	}
	if err := a.Engine.DeleteList(args[0]); err != nil {
		return err
	}
	fmt.Println("Deleted list and its tasks. This cannot be undone.")
	return nil
}

func handleAdd(a *app.App, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: todostudio add <list-id> <title> [options]")
	}
	listID, title := args[0], args[1]

	fs := flag.NewFlagSet("add", flag.ExitOnError)
	note := fs.String("note", "", "task note")
	priority := fs.String("priority", "medium", "high, medium or low")
	due := fs.String("due", "", "due date (YYYY-MM-DD)")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	order, err := a.Engine.NextTaskOrder(listID)
	if err != nil {
		return err
	}

	task, err := a.Engine.CreateTask(engine.TaskInput{
		ListID:   listID,
		Title:    title,
		Note:     *note,
		Priority: model.Priority(*priority),
		DueDate:  *due,
		Order:    order,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created: %s (%s)\n", task.Title, task.ID)
	if task.DueDate != "" {
		fmt.Printf("Due: %s\n", task.DueDate)
	}
	return nil
}

func handleTasks(a *app.App, args []string) error {
	listID := ""
	if len(args) > 0 {
		listID = args[0]
	}
	tasks, err := a.Engine.GetTasksByList(listID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		line := fmt.Sprintf("[%s] %s  %s (%s)", mark, t.ID, t.Title, t.Priority)
		if t.DueDate != "" {
			line += " due " + t.DueDate
		}
		fmt.Println(line)
	}
	return nil
}

func handleEdit(a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: todostudio edit <task-id> [options]")
	}
	taskID := args[0]

	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	title := fs.String("title", "", "new title")
	note := fs.String("note", "", "new note")
	priority := fs.String("priority", "", "high, medium or low")
	due := fs.String("due", "", "due date (YYYY-MM-DD), \"none\" to clear")
	list := fs.String("list", "", "move to list id")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var patch engine.TaskPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "note":
			patch.Note = note
		case "priority":
			p := model.Priority(*priority)
			patch.Priority = &p
		case "due":
			d := *due
			if d == "none" {
				d = ""
			}
			patch.DueDate = &d
		case "list":
			patch.ListID = list
		}
	})

	task, err := a.Engine.UpdateTask(taskID, patch)
	if err != nil {
		return err
	}
	if task == nil {
		fmt.Println("No such task.")
		return nil
	}
	fmt.Printf("Updated: %s\n", task.Title)
	return nil
}

func handleToggle(a *app.App, args []string, completed bool) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: todostudio done|reopen <task-id>")
	}
	task, err := a.Engine.ToggleCompletion(args[0], completed)
	if err != nil {
		return err
	}
	if task == nil {
		fmt.Println("No such task.")
		return nil
	}
	if completed {
		fmt.Printf("Completed: %s\n", task.Title)
	} else {
		fmt.Printf("Reopened: %s\n", task.Title)
	}
	return nil
}

func handleRemove(a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: todostudio rm <task-id>")
	}
	task, err := a.Engine.DeleteTask(args[0])
	if err != nil {
		return err
	}
	if task == nil {
		fmt.Println("No such task.")
		return nil
	}
	fmt.Printf("Deleted: %s (undo with: todostudio undo)\n", task.Title)
	return nil
}

func handleClear(a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: todostudio clear <list-id>")
	}
	cleared, err := a.Engine.ClearCompleted(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Cleared %d completed task(s).\n", cleared)
	return nil
}

func handleUndo(a *app.App, args []string) error {
	ev, err := a.Engine.Undo()
	if err != nil {
		return err
	}
	if ev == nil {
		fmt.Println("Nothing to undo.")
		return nil
	}
	fmt.Printf("Undid %s: %s\n", eventLabel(ev.Type), ev.Title())
	return nil
}

func handleRedo(a *app.App, args []string) error {
	ev, err := a.Engine.Redo()
	if err != nil {
		return err
	}
	if ev == nil {
		fmt.Println("Nothing to redo.")
		return nil
	}
	fmt.Printf("Redid %s: %s\n", eventLabel(ev.Type), ev.Title())
	return nil
}

func handleLog(a *app.App, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	count := fs.Int("n", 20, "number of events to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	events, err := a.Engine.GetRecentEvents(*count)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No activity yet.")
		return nil
	}
	for _, ev := range events {
		when := time.UnixMilli(ev.CreatedAt).Format("2006-01-02 15:04:05")
		if ev.IsAction() {
			fmt.Printf("%s  %s of %s: %s\n", when, eventLabel(ev.Type), eventLabel(ev.TargetType), ev.TargetTitle)
			continue
		}
		fmt.Printf("%s  %s: %s\n", when, eventLabel(ev.Type), ev.Title())
	}
	return nil
}

func handleExport(a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: todostudio export <file>")
	}
	snap, err := a.Engine.ExportAll()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return err
	}
	fmt.Printf("Exported %d list(s), %d task(s), %d event(s) to %s\n",
		len(snap.Lists), len(snap.Tasks), len(snap.Events), args[0])
	return nil
}

func handleImport(a *app.App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: todostudio import <file> [--merge]")
	}
	file := args[0]

	fs := flag.NewFlagSet("import", flag.ExitOnError)
	merge := fs.Bool("merge", false, "merge into existing data instead of replacing it")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	snap, err := engine.ParseSnapshot(data)
	if err != nil {
		return err
	}

	mode := engine.ImportReplace
	if *merge {
		mode = engine.ImportMerge
	}
	if err := a.Engine.ImportAll(snap, mode); err != nil {
		return err
	}
	fmt.Printf("Imported %d list(s) and %d task(s) (%s mode). Undo history was reset.\n",
		len(snap.Lists), len(snap.Tasks), mode)
	return nil
}

func eventLabel(t model.EventType) string {
	switch t {
	case model.EventTaskCreate:
		return "create"
	case model.EventTaskEdit:
		return "edit"
	case model.EventTaskComplete:
		return "complete"
	case model.EventTaskReopen:
		return "reopen"
	case model.EventTaskDelete:
		return "delete"
	case model.EventActionUndo:
		return "undo"
	case model.EventActionRedo:
		return "redo"
	default:
		return string(t)
	}
}
