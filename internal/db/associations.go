package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/trail/internal/activity"
	"github.com/hpungsan/trail/internal/errors"
)

// ContextFilter narrows ListContexts/CountContexts. Nil pointer fields
// mean "no filter".
type ContextFilter struct {
	Associated       *bool  // true: has a task association; false: has none
	MappingAttempted *bool  // filter on the permanent attempted flag
	UsedInSummary    *bool  // filter on summary consumption
	ProjectID        *int64 // filter by associated project
	TaskID           *int64 // filter by associated task
	Limit            int
	Offset           int
}

// UpsertAssociation creates or updates the association row for an event.
// Nil fields of w are left untouched on an existing row (a concurrent
// manual association must not be erased by an auto write); on a fresh row
// they become NULL. At most one row per event_id ever exists.
func (s *Store) UpsertAssociation(w activity.AssociationWrite) error {
	if w.Method == "" {
		w.Method = activity.MethodAuto
	}
	now := time.Now().Unix()

	tx, err := s.conn.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM event_associations WHERE event_id = ?`, w.EventID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return errors.NewInternal(err)
	}

	if err == sql.ErrNoRows {
		_, err = tx.Exec(`
			INSERT INTO event_associations (
				event_id, project_id, task_id, project_confidence,
				task_confidence, reasoning, association_method,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, w.EventID, toNullInt64(w.ProjectID), toNullInt64(w.TaskID),
			toNullFloat64(w.ProjectConfidence), toNullFloat64(w.TaskConfidence),
			toNullString(w.Reasoning), w.Method, now, now)
		if err != nil {
			return wrapConstraint(err, "association references a missing row")
		}
	} else {
		query := "UPDATE event_associations SET association_method = ?, updated_at = ?"
		args := []any{w.Method, now}
		if w.ProjectID != nil {
			query += ", project_id = ?"
			args = append(args, *w.ProjectID)
		}
		if w.TaskID != nil {
			query += ", task_id = ?"
			args = append(args, *w.TaskID)
		}
		if w.ProjectConfidence != nil {
			query += ", project_confidence = ?"
			args = append(args, *w.ProjectConfidence)
		}
		if w.TaskConfidence != nil {
			query += ", task_confidence = ?"
			args = append(args, *w.TaskConfidence)
		}
		if w.Reasoning != nil {
			query += ", reasoning = ?"
			args = append(args, *w.Reasoning)
		}
		query += " WHERE event_id = ?"
		args = append(args, w.EventID)

		if _, err := tx.Exec(query, args...); err != nil {
			return wrapConstraint(err, "association references a missing row")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// SetAssociationTask explicitly sets (or clears, with a nil taskID) the
// task of an event's association. This is the manual path: unlike
// UpsertAssociation, a nil taskID here means "write NULL", not "skip".
func (s *Store) SetAssociationTask(eventID int64, taskID, projectID *int64) error {
	now := time.Now().Unix()

	tx, err := s.conn.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM event_associations WHERE event_id = ?`, eventID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return errors.NewInternal(err)
	}

	if err == sql.ErrNoRows {
		_, err = tx.Exec(`
			INSERT INTO event_associations (event_id, project_id, task_id, association_method, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, eventID, toNullInt64(projectID), toNullInt64(taskID), activity.MethodManual, now, now)
		if err != nil {
			return wrapConstraint(err, "association references a missing row")
		}
	} else {
		if projectID != nil {
			_, err = tx.Exec(`
				UPDATE event_associations
				SET task_id = ?, project_id = ?, association_method = ?, updated_at = ?
				WHERE event_id = ?
			`, toNullInt64(taskID), *projectID, activity.MethodManual, now, eventID)
		} else {
			_, err = tx.Exec(`
				UPDATE event_associations
				SET task_id = ?, association_method = ?, updated_at = ?
				WHERE event_id = ?
			`, toNullInt64(taskID), activity.MethodManual, now, eventID)
		}
		if err != nil {
			return wrapConstraint(err, "association references a missing row")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetAssociation retrieves the association row for an event, or nil if
// none exists yet.
func (s *Store) GetAssociation(eventID int64) (*activity.Association, error) {
	row := s.conn.QueryRow(`
		SELECT event_id, project_id, task_id, project_confidence,
			task_confidence, reasoning, association_method, used_in_summary,
			created_at, updated_at
		FROM event_associations
		WHERE event_id = ?
	`, eventID)

	var (
		a          activity.Association
		projectID  sql.NullInt64
		taskID     sql.NullInt64
		projConf   sql.NullFloat64
		taskConf   sql.NullFloat64
		reasoning  sql.NullString
		usedInSumm int
	)
	err := row.Scan(&a.EventID, &projectID, &taskID, &projConf, &taskConf,
		&reasoning, &a.Method, &usedInSumm, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	a.ProjectID = fromNullInt64(projectID)
	a.TaskID = fromNullInt64(taskID)
	a.ProjectConfidence = fromNullFloat64(projConf)
	a.TaskConfidence = fromNullFloat64(taskConf)
	a.Reasoning = fromNullString(reasoning)
	a.UsedInSummary = usedInSumm != 0
	return &a, nil
}

// MarkUsedInSummary flags an event's association as consumed by report
// generation so later summaries skip it. Missing rows are a no-op.
func (s *Store) MarkUsedInSummary(eventID int64) error {
	_, err := s.conn.Exec(`
		UPDATE event_associations SET used_in_summary = 1, updated_at = ? WHERE event_id = ?
	`, time.Now().Unix(), eventID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListContexts returns events joined with their associations, most recent
// span first.
func (s *Store) ListContexts(f ContextFilter) ([]activity.Context, error) {
	query := `
		SELECT e.id, e.app_name, e.window_title, e.start_time, e.end_time,
			e.created_at, e.auto_association_attempted,
			a.project_id, a.task_id, a.association_method, a.used_in_summary
		FROM events e
		LEFT JOIN event_associations a ON e.id = a.event_id
	`
	where, args := contextWhere(f)
	query += where + " ORDER BY e.start_time DESC, e.id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var contexts []activity.Context
	for rows.Next() {
		var (
			c           activity.Context
			appName     sql.NullString
			windowTitle sql.NullString
			endTime     sql.NullInt64
			attempted   int
			projectID   sql.NullInt64
			taskID      sql.NullInt64
			method      sql.NullString
			usedInSumm  sql.NullInt64
		)
		err := rows.Scan(&c.ID, &appName, &windowTitle, &c.StartTime, &endTime,
			&c.CreatedAt, &attempted, &projectID, &taskID, &method, &usedInSumm)
		if err != nil {
			return nil, errors.NewInternal(err)
		}

		c.AppName = fromNullString(appName)
		c.WindowTitle = fromNullString(windowTitle)
		c.EndTime = fromNullInt64(endTime)
		c.AutoAssociationAttempted = attempted != 0
		c.ProjectID = fromNullInt64(projectID)
		c.TaskID = fromNullInt64(taskID)
		c.Method = fromNullString(method)
		c.UsedInSummary = usedInSumm.Valid && usedInSumm.Int64 != 0
		contexts = append(contexts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return contexts, nil
}

// CountContexts returns the number of events matching the filter.
func (s *Store) CountContexts(f ContextFilter) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM events e
		LEFT JOIN event_associations a ON e.id = a.event_id
	`
	where, args := contextWhere(f)
	query += where

	var count int
	if err := s.conn.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// contextWhere builds the WHERE clause shared by ListContexts and
// CountContexts.
func contextWhere(f ContextFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Associated != nil {
		if *f.Associated {
			conds = append(conds, "a.task_id IS NOT NULL")
		} else {
			conds = append(conds, "a.task_id IS NULL")
		}
	}
	if f.MappingAttempted != nil {
		if *f.MappingAttempted {
			conds = append(conds, "e.auto_association_attempted = 1")
		} else {
			conds = append(conds, "e.auto_association_attempted = 0")
		}
	}
	if f.UsedInSummary != nil {
		if *f.UsedInSummary {
			conds = append(conds, "a.used_in_summary = 1")
		} else {
			conds = append(conds, "(a.used_in_summary IS NULL OR a.used_in_summary = 0)")
		}
	}
	if f.ProjectID != nil {
		conds = append(conds, "a.project_id = ?")
		args = append(args, *f.ProjectID)
	}
	if f.TaskID != nil {
		conds = append(conds, "a.task_id = ?")
		args = append(args, *f.TaskID)
	}

	if len(conds) == 0 {
		return "", args
	}

	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}
