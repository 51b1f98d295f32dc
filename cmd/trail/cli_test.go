package main

import (
	"testing"

	"github.com/hpungsan/trail/internal/config"
	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/ops"
)

// setupTestStore creates a temporary database for testing.
func setupTestStore(t *testing.T) *db.Store {
	t.Helper()
	conn, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return db.NewStore(conn)
}

func TestProjectAddAndList(t *testing.T) {
	store := setupTestStore(t)
	app := newCLIApp(store, config.DefaultConfig(), t.TempDir())

	if err := app.Run([]string{"trail", "project", "add", "--name", "Thesis", "--goal", "finish"}); err != nil {
		t.Fatalf("project add failed: %v", err)
	}

	out, err := ops.ListProjects(store, ops.ProjectListInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || out.Projects[0].Name != "Thesis" {
		t.Errorf("got %+v", out)
	}
}

func TestTaskAddUpdateDelete(t *testing.T) {
	store := setupTestStore(t)
	app := newCLIApp(store, config.DefaultConfig(), t.TempDir())

	p, err := ops.CreateProject(store, ops.ProjectCreateInput{Name: "P"})
	if err != nil {
		t.Fatal(err)
	}

	if err := app.Run([]string{"trail", "task", "add", "--project", "1", "--name", "T", "--status", "in_progress"}); err != nil {
		t.Fatalf("task add failed: %v", err)
	}

	tasks, err := ops.ListTasks(store, ops.TaskListInput{ProjectID: p.ID})
	if err != nil {
		t.Fatal(err)
	}
	if tasks.Total != 1 {
		t.Fatalf("Total = %d, want 1", tasks.Total)
	}
	taskID := tasks.Tasks[0].ID

	if err := app.Run([]string{"trail", "task", "update", "--status", "done", "1"}); err != nil {
		t.Fatalf("task update failed: %v", err)
	}
	updated, err := ops.GetTask(store, taskID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != "done" {
		t.Errorf("Status = %q, want done", updated.Status)
	}

	if err := app.Run([]string{"trail", "task", "delete", "1"}); err != nil {
		t.Fatalf("task delete failed: %v", err)
	}
	if _, err := ops.GetTask(store, taskID); err == nil {
		t.Error("expected task to be gone after delete")
	}
}

func TestInvalidIDArgument(t *testing.T) {
	store := setupTestStore(t)
	app := newCLIApp(store, config.DefaultConfig(), t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"non-numeric", []string{"trail", "project", "delete", "abc"}},
		{"zero", []string{"trail", "project", "delete", "0"}},
		{"negative", []string{"trail", "project", "delete", "-1"}},
		{"missing", []string{"trail", "project", "delete"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := app.Run(tt.args); err == nil {
				t.Errorf("expected error for args %v", tt.args)
			}
		})
	}
}

func TestAssociateCommand(t *testing.T) {
	store := setupTestStore(t)
	app := newCLIApp(store, config.DefaultConfig(), t.TempDir())

	p, err := ops.CreateProject(store, ops.ProjectCreateInput{Name: "P"})
	if err != nil {
		t.Fatal(err)
	}
	task, err := ops.CreateTask(store, ops.TaskCreateInput{ProjectID: p.ID, Name: "T"})
	if err != nil {
		t.Fatal(err)
	}
	appName := "vscode"
	eventID, err := store.InsertEvent(&appName, nil, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if err := app.Run([]string{"trail", "associate", "--event", "1", "--task", "1"}); err != nil {
		t.Fatalf("associate failed: %v", err)
	}

	detail, err := ops.GetContext(store, eventID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.TaskID == nil || *detail.TaskID != task.ID {
		t.Errorf("TaskID = %v, want %d", detail.TaskID, task.ID)
	}
}
