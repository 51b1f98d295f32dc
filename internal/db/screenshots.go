package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/trail/internal/activity"
	"github.com/hpungsan/trail/internal/errors"
)

// InsertScreenshot stores a screenshot row, optionally assigned to an event.
func (s *Store) InsertScreenshot(eventID *int64, filePath string) (int64, error) {
	now := time.Now().Unix()
	res, err := s.conn.Exec(`
		INSERT INTO screenshots (event_id, file_path, created_at)
		VALUES (?, ?, ?)
	`, toNullInt64(eventID), filePath, now)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// EventScreenshots returns the screenshots belonging to an event,
// earliest first.
func (s *Store) EventScreenshots(eventID int64) ([]activity.Screenshot, error) {
	rows, err := s.conn.Query(`
		SELECT id, event_id, file_path, created_at
		FROM screenshots
		WHERE event_id = ?
		ORDER BY created_at, id
	`, eventID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return collectScreenshots(rows)
}

// InsertOCRResult stores recognized text for a screenshot.
func (s *Store) InsertOCRResult(screenshotID int64, text string) (int64, error) {
	now := time.Now().Unix()
	res, err := s.conn.Exec(`
		INSERT INTO ocr_results (screenshot_id, text_content, created_at)
		VALUES (?, ?, ?)
	`, screenshotID, text, now)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// OCRResultsByScreenshot returns all OCR rows for a screenshot in
// insertion order.
func (s *Store) OCRResultsByScreenshot(screenshotID int64) ([]activity.OCRResult, error) {
	rows, err := s.conn.Query(`
		SELECT id, screenshot_id, text_content, created_at
		FROM ocr_results
		WHERE screenshot_id = ?
		ORDER BY id
	`, screenshotID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var results []activity.OCRResult
	for rows.Next() {
		var r activity.OCRResult
		if err := rows.Scan(&r.ID, &r.ScreenshotID, &r.Text, &r.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return results, nil
}

// CountScreenshots returns the number of screenshots that still have an
// image file. Rows whose file was removed by file-only cleanup do not
// count against the retention cap.
func (s *Store) CountScreenshots() (int, error) {
	var count int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM screenshots WHERE file_path != ''`).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// OldestScreenshots returns the n oldest screenshots that still have an
// image file, for the retention cleanup job.
func (s *Store) OldestScreenshots(n int) ([]activity.Screenshot, error) {
	rows, err := s.conn.Query(`
		SELECT id, event_id, file_path, created_at
		FROM screenshots
		WHERE file_path != ''
		ORDER BY created_at, id
		LIMIT ?
	`, n)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return collectScreenshots(rows)
}

// ClearScreenshotFile blanks the file path after file-only cleanup removed
// the image, keeping the row and its OCR text for history.
func (s *Store) ClearScreenshotFile(screenshotID int64) error {
	if _, err := s.conn.Exec(`UPDATE screenshots SET file_path = '' WHERE id = ?`, screenshotID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteScreenshotData removes a screenshot row together with its OCR rows.
// File removal is the caller's concern.
func (s *Store) DeleteScreenshotData(screenshotID int64) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ocr_results WHERE screenshot_id = ?`, screenshotID); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := tx.Exec(`DELETE FROM screenshots WHERE id = ?`, screenshotID); err != nil {
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// collectScreenshots scans all rows into Screenshot structs.
func collectScreenshots(rows *sql.Rows) ([]activity.Screenshot, error) {
	var shots []activity.Screenshot
	for rows.Next() {
		var (
			shot    activity.Screenshot
			eventID sql.NullInt64
		)
		if err := rows.Scan(&shot.ID, &eventID, &shot.FilePath, &shot.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		shot.EventID = fromNullInt64(eventID)
		shots = append(shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return shots, nil
}
