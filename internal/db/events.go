package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/trail/internal/activity"
	"github.com/hpungsan/trail/internal/errors"
)

// InsertEvent stores a new activity event and returns its ID.
// Called by the capture collaborator on an app/window context switch.
func (s *Store) InsertEvent(appName, windowTitle *string, startTime int64) (int64, error) {
	now := time.Now().Unix()
	res, err := s.conn.Exec(`
		INSERT INTO events (app_name, window_title, start_time, created_at)
		VALUES (?, ?, ?, ?)
	`, toNullString(appName), toNullString(windowTitle), startTime, now)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// CloseEvent sets the end time of an open event.
func (s *Store) CloseEvent(eventID, endTime int64) error {
	res, err := s.conn.Exec(`
		UPDATE events SET end_time = ? WHERE id = ?
	`, endTime, eventID)
	if err != nil {
		return errors.NewInternal(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound("event", eventID)
	}
	return nil
}

// GetEvent retrieves a single event by ID.
func (s *Store) GetEvent(eventID int64) (*activity.Event, error) {
	row := s.conn.QueryRow(`
		SELECT id, app_name, window_title, start_time, end_time, created_at,
			auto_association_attempted
		FROM events
		WHERE id = ?
	`, eventID)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("event", eventID)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return ev, nil
}

// ListUnattempted returns events whose auto-association has never been
// attempted, in creation order. This is the mapper's sole gating query:
// there is no secondary "is it associated" filter here, because an event
// can be attempted-and-unassociated.
func (s *Store) ListUnattempted(limit, offset int) ([]activity.Event, error) {
	rows, err := s.conn.Query(`
		SELECT id, app_name, window_title, start_time, end_time, created_at,
			auto_association_attempted
		FROM events
		WHERE auto_association_attempted = 0
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var events []activity.Event
	for rows.Next() {
		ev, err := scanEventRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return events, nil
}

// MarkAttempted sets the permanent auto_association_attempted flag.
// The transition is monotonic (false -> true, never reset) and marking an
// already-marked event is a harmless no-op.
func (s *Store) MarkAttempted(eventID int64) error {
	res, err := s.conn.Exec(`
		UPDATE events SET auto_association_attempted = 1 WHERE id = ?
	`, eventID)
	if err != nil {
		return errors.NewInternal(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound("event", eventID)
	}
	return nil
}

// CountEvents returns the total number of events.
func (s *Store) CountEvents() (int, error) {
	var count int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// scanEvent scans a single row into an Event struct.
func scanEvent(row *sql.Row) (*activity.Event, error) {
	var (
		ev          activity.Event
		appName     sql.NullString
		windowTitle sql.NullString
		endTime     sql.NullInt64
		attempted   int
	)

	err := row.Scan(&ev.ID, &appName, &windowTitle, &ev.StartTime, &endTime,
		&ev.CreatedAt, &attempted)
	if err != nil {
		return nil, err
	}

	ev.AppName = fromNullString(appName)
	ev.WindowTitle = fromNullString(windowTitle)
	ev.EndTime = fromNullInt64(endTime)
	ev.AutoAssociationAttempted = attempted != 0
	return &ev, nil
}

// scanEventRows scans the current rows cursor into an Event struct.
func scanEventRows(rows *sql.Rows) (*activity.Event, error) {
	var (
		ev          activity.Event
		appName     sql.NullString
		windowTitle sql.NullString
		endTime     sql.NullInt64
		attempted   int
	)

	err := rows.Scan(&ev.ID, &appName, &windowTitle, &ev.StartTime, &endTime,
		&ev.CreatedAt, &attempted)
	if err != nil {
		return nil, err
	}

	ev.AppName = fromNullString(appName)
	ev.WindowTitle = fromNullString(windowTitle)
	ev.EndTime = fromNullInt64(endTime)
	ev.AutoAssociationAttempted = attempted != 0
	return &ev, nil
}
