package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/trail/internal/errors"
	"github.com/hpungsan/trail/internal/project"
)

// TaskUpdate carries the mutable task fields for UpdateTask.
// Nil fields are left untouched.
type TaskUpdate struct {
	Name        *string
	Description *string
	Status      *string
}

// InsertTask stores a new task under a project and returns its ID.
func (s *Store) InsertTask(projectID int64, name string, description *string, status string, parentTaskID *int64) (int64, error) {
	now := time.Now().Unix()
	res, err := s.conn.Exec(`
		INSERT INTO tasks (project_id, name, description, status, parent_task_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, projectID, name, toNullString(description), status, toNullInt64(parentTaskID), now, now)
	if err != nil {
		return 0, wrapConstraint(err, "task references a missing project or parent")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(taskID int64) (*project.Task, error) {
	row := s.conn.QueryRow(`
		SELECT id, project_id, name, description, status, parent_task_id, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`, taskID)

	tk, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("task", taskID)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return tk, nil
}

// ListTasks returns the tasks of a project, oldest first. An empty
// statusFilter returns all statuses; the mapper passes
// project.StatusInProgress to build its candidate set.
func (s *Store) ListTasks(projectID int64, statusFilter string) ([]project.Task, error) {
	query := `
		SELECT id, project_id, name, description, status, parent_task_id, created_at, updated_at
		FROM tasks
		WHERE project_id = ?
	`
	args := []any{projectID}
	if statusFilter != "" {
		query += " AND status = ?"
		args = append(args, statusFilter)
	}
	query += " ORDER BY id"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// TaskChildren returns the direct sub-tasks of a task.
func (s *Store) TaskChildren(taskID int64) ([]project.Task, error) {
	rows, err := s.conn.Query(`
		SELECT id, project_id, name, description, status, parent_task_id, created_at, updated_at
		FROM tasks
		WHERE parent_task_id = ?
		ORDER BY id
	`, taskID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// UpdateTask applies the non-nil fields of upd to a task.
func (s *Store) UpdateTask(taskID int64, upd TaskUpdate) error {
	if upd.Name == nil && upd.Description == nil && upd.Status == nil {
		return errors.NewInvalidRequest("no task fields to update")
	}

	query := "UPDATE tasks SET updated_at = ?"
	args := []any{time.Now().Unix()}
	if upd.Name != nil {
		query += ", name = ?"
		args = append(args, *upd.Name)
	}
	if upd.Description != nil {
		query += ", description = ?"
		args = append(args, *upd.Description)
	}
	if upd.Status != nil {
		query += ", status = ?"
		args = append(args, *upd.Status)
	}
	query += " WHERE id = ?"
	args = append(args, taskID)

	res, err := s.conn.Exec(query, args...)
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFound("task", taskID)
	}
	return nil
}

// DeleteTask removes a task and, recursively, its sub-tasks.
func (s *Store) DeleteTask(taskID int64) error {
	if _, err := s.GetTask(taskID); err != nil {
		return err
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	// Walk the subtree breadth-first, then delete leaf-to-root so the
	// parent_task_id references never dangle mid-transaction.
	pending := []int64{taskID}
	var subtree []int64
	for len(pending) > 0 {
		id := pending[0]
		pending = pending[1:]
		subtree = append(subtree, id)

		rows, err := tx.Query(`SELECT id FROM tasks WHERE parent_task_id = ?`, id)
		if err != nil {
			return errors.NewInternal(err)
		}
		for rows.Next() {
			var child int64
			if err := rows.Scan(&child); err != nil {
				rows.Close()
				return errors.NewInternal(err)
			}
			pending = append(pending, child)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return errors.NewInternal(err)
		}
		rows.Close()
	}

	for i := len(subtree) - 1; i >= 0; i-- {
		if _, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, subtree[i]); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// CountTasks returns the number of tasks, optionally filtered by status.
func (s *Store) CountTasks(statusFilter string) (int, error) {
	query := `SELECT COUNT(*) FROM tasks`
	var args []any
	if statusFilter != "" {
		query += " WHERE status = ?"
		args = append(args, statusFilter)
	}

	var count int
	if err := s.conn.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// scanTask scans a single row into a Task struct.
func scanTask(row *sql.Row) (*project.Task, error) {
	var (
		tk       project.Task
		desc     sql.NullString
		parentID sql.NullInt64
	)
	err := row.Scan(&tk.ID, &tk.ProjectID, &tk.Name, &desc, &tk.Status,
		&parentID, &tk.CreatedAt, &tk.UpdatedAt)
	if err != nil {
		return nil, err
	}
	tk.Description = fromNullString(desc)
	tk.ParentTaskID = fromNullInt64(parentID)
	return &tk, nil
}

// collectTasks scans all rows into Task structs.
func collectTasks(rows *sql.Rows) ([]project.Task, error) {
	var tasks []project.Task
	for rows.Next() {
		var (
			tk       project.Task
			desc     sql.NullString
			parentID sql.NullInt64
		)
		if err := rows.Scan(&tk.ID, &tk.ProjectID, &tk.Name, &desc, &tk.Status,
			&parentID, &tk.CreatedAt, &tk.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		tk.Description = fromNullString(desc)
		tk.ParentTaskID = fromNullInt64(parentID)
		tasks = append(tasks, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return tasks, nil
}
