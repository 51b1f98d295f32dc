package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/errors"
	"github.com/hpungsan/trail/internal/project"
)

// TaskCreateInput contains parameters for CreateTask.
type TaskCreateInput struct {
	ProjectID    int64   // required
	Name         string  // required
	Description  *string // optional
	Status       string  // default: pending
	ParentTaskID *int64  // optional, must belong to the same project
}

// TaskOutput is the external shape of a task.
type TaskOutput struct {
	ID           int64   `json:"id"`
	ProjectID    int64   `json:"project_id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	Status       string  `json:"status"`
	ParentTaskID *int64  `json:"parent_task_id,omitempty"`
	CreatedAt    int64   `json:"created_at"`
	UpdatedAt    int64   `json:"updated_at"`
}

// CreateTask creates a task under a project.
func CreateTask(store *db.Store, input TaskCreateInput) (*TaskOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	status := input.Status
	if status == "" {
		status = project.StatusPending
	}
	if !project.ValidStatus(status) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("status must be one of: pending, in_progress, done (got %q)", status))
	}

	// Project must exist
	if _, err := store.GetProject(input.ProjectID); err != nil {
		return nil, err
	}
	// Parent must exist and live in the same project
	if input.ParentTaskID != nil {
		parent, err := store.GetTask(*input.ParentTaskID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != input.ProjectID {
			return nil, errors.NewInvalidRequest("parent task belongs to a different project")
		}
	}

	id, err := store.InsertTask(input.ProjectID, name, cleanOptionalString(input.Description), status, input.ParentTaskID)
	if err != nil {
		return nil, err
	}
	return GetTask(store, id)
}

// GetTask returns one task by id.
func GetTask(store *db.Store, taskID int64) (*TaskOutput, error) {
	t, err := store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	out := taskOutput(*t)
	return &out, nil
}

// TaskListInput contains parameters for ListTasks.
type TaskListInput struct {
	ProjectID int64  // required
	Status    string // optional filter; empty means all
}

// TaskListOutput contains the result of ListTasks.
type TaskListOutput struct {
	Tasks []TaskOutput `json:"tasks"`
	Total int          `json:"total"`
}

// ListTasks returns a project's tasks, optionally filtered by status.
func ListTasks(store *db.Store, input TaskListInput) (*TaskListOutput, error) {
	if input.Status != "" && !project.ValidStatus(input.Status) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("status must be one of: pending, in_progress, done (got %q)", input.Status))
	}
	if _, err := store.GetProject(input.ProjectID); err != nil {
		return nil, err
	}

	tasks, err := store.ListTasks(input.ProjectID, input.Status)
	if err != nil {
		return nil, err
	}

	out := &TaskListOutput{Tasks: []TaskOutput{}, Total: len(tasks)}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, taskOutput(t))
	}
	return out, nil
}

// TaskUpdateInput contains parameters for UpdateTask. Nil fields are left
// untouched.
type TaskUpdateInput struct {
	Name        *string
	Description *string
	Status      *string
}

// UpdateTask updates a task's name, description and/or status.
func UpdateTask(store *db.Store, taskID int64, input TaskUpdateInput) (*TaskOutput, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, errors.NewInvalidRequest("name must not be empty")
	}
	if input.Status != nil && !project.ValidStatus(*input.Status) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("status must be one of: pending, in_progress, done (got %q)", *input.Status))
	}

	if err := store.UpdateTask(taskID, db.TaskUpdate{
		Name:        input.Name,
		Description: input.Description,
		Status:      input.Status,
	}); err != nil {
		return nil, err
	}
	return GetTask(store, taskID)
}

// DeleteTask removes a task and its whole subtree.
func DeleteTask(store *db.Store, taskID int64) error {
	return store.DeleteTask(taskID)
}

// TaskChildren returns the direct children of a task.
func TaskChildren(store *db.Store, taskID int64) (*TaskListOutput, error) {
	if _, err := store.GetTask(taskID); err != nil {
		return nil, err
	}
	children, err := store.TaskChildren(taskID)
	if err != nil {
		return nil, err
	}
	out := &TaskListOutput{Tasks: []TaskOutput{}, Total: len(children)}
	for _, t := range children {
		out.Tasks = append(out.Tasks, taskOutput(t))
	}
	return out, nil
}

func taskOutput(t project.Task) TaskOutput {
	return TaskOutput{
		ID:           t.ID,
		ProjectID:    t.ProjectID,
		Name:         t.Name,
		Description:  t.Description,
		Status:       t.Status,
		ParentTaskID: t.ParentTaskID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
