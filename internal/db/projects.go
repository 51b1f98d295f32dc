package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/trail/internal/errors"
	"github.com/hpungsan/trail/internal/project"
)

// InsertProject stores a new project and returns its ID.
func (s *Store) InsertProject(name string, goal *string) (int64, error) {
	now := time.Now().Unix()
	res, err := s.conn.Exec(`
		INSERT INTO projects (name, goal, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, name, toNullString(goal), now, now)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// GetProject retrieves a project by ID.
func (s *Store) GetProject(projectID int64) (*project.Project, error) {
	row := s.conn.QueryRow(`
		SELECT id, name, goal, created_at, updated_at
		FROM projects
		WHERE id = ?
	`, projectID)

	var (
		p    project.Project
		goal sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &goal, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project", projectID)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	p.Goal = fromNullString(goal)
	return &p, nil
}

// ListProjects returns projects in creation order. The mapper feeds this
// catalog (id, name, goal) to the LLM, and the first entry doubles as the
// conservative fallback for context-free events.
func (s *Store) ListProjects(limit, offset int) ([]project.Project, error) {
	rows, err := s.conn.Query(`
		SELECT id, name, goal, created_at, updated_at
		FROM projects
		ORDER BY id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		var (
			p    project.Project
			goal sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &goal, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		p.Goal = fromNullString(goal)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return projects, nil
}

// UpdateProject updates the name and/or goal of a project.
// Nil fields are left untouched.
func (s *Store) UpdateProject(projectID int64, name *string, goal *string) error {
	now := time.Now().Unix()

	if name != nil {
		res, err := s.conn.Exec(`
			UPDATE projects SET name = ?, updated_at = ? WHERE id = ?
		`, *name, now, projectID)
		if err != nil {
			return errors.NewInternal(err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return errors.NewNotFound("project", projectID)
		}
	}
	if goal != nil {
		res, err := s.conn.Exec(`
			UPDATE projects SET goal = ?, updated_at = ? WHERE id = ?
		`, *goal, now, projectID)
		if err != nil {
			return errors.NewInternal(err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return errors.NewNotFound("project", projectID)
		}
	}
	return nil
}

// DeleteProject removes a project. Fails while tasks still reference it.
func (s *Store) DeleteProject(projectID int64) error {
	var taskCount int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM tasks WHERE project_id = ?`, projectID).Scan(&taskCount); err != nil {
		return errors.NewInternal(err)
	}
	if taskCount > 0 {
		return errors.NewConflict("project still has tasks; delete them first")
	}

	res, err := s.conn.Exec(`DELETE FROM projects WHERE id = ?`, projectID)
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewNotFound("project", projectID)
	}
	return nil
}

// CountProjects returns the total number of projects.
func (s *Store) CountProjects() (int, error) {
	var count int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}
