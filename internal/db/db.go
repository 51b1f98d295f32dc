package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/trail/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/trail.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.trail.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Create screenshots subdirectory for the capture pipeline
	screenshotsDir := filepath.Join(baseDir, "screenshots")
	if err := os.MkdirAll(screenshotsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create screenshots directory: %w", err)
	}
	_ = os.Chmod(screenshotsDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "trail.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ScreenshotsDir returns the screenshot storage directory under baseDir.
func ScreenshotsDir(baseDir string) string {
	return filepath.Join(baseDir, "screenshots")
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
// Call after Init if you need to tune pool behavior for contention.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS projects (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  name       TEXT NOT NULL,
		  goal       TEXT,
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tasks (
		  id             INTEGER PRIMARY KEY AUTOINCREMENT,
		  project_id     INTEGER NOT NULL REFERENCES projects(id),
		  name           TEXT NOT NULL,
		  description    TEXT,
		  status         TEXT NOT NULL DEFAULT 'pending',
		  parent_task_id INTEGER REFERENCES tasks(id),
		  created_at     INTEGER NOT NULL,
		  updated_at     INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS events (
		  id                         INTEGER PRIMARY KEY AUTOINCREMENT,
		  app_name                   TEXT,
		  window_title               TEXT,
		  start_time                 INTEGER NOT NULL,
		  end_time                   INTEGER,
		  created_at                 INTEGER NOT NULL,
		  auto_association_attempted INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS screenshots (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  event_id   INTEGER REFERENCES events(id),
		  file_path  TEXT NOT NULL,
		  created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ocr_results (
		  id            INTEGER PRIMARY KEY AUTOINCREMENT,
		  screenshot_id INTEGER NOT NULL REFERENCES screenshots(id),
		  text_content  TEXT NOT NULL,
		  created_at    INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS event_associations (
		  event_id           INTEGER PRIMARY KEY REFERENCES events(id),
		  project_id         INTEGER REFERENCES projects(id),
		  task_id            INTEGER REFERENCES tasks(id),
		  project_confidence REAL,
		  task_confidence    REAL,
		  reasoning          TEXT,
		  association_method TEXT NOT NULL DEFAULT 'auto',
		  used_in_summary    INTEGER NOT NULL DEFAULT 0,
		  created_at         INTEGER NOT NULL,
		  updated_at         INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS llm_usage (
		  id            INTEGER PRIMARY KEY AUTOINCREMENT,
		  operation     TEXT NOT NULL,
		  model         TEXT,
		  run_id        TEXT,
		  input_tokens  INTEGER NOT NULL,
		  output_tokens INTEGER NOT NULL,
		  created_at    INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_unattempted
		ON events(created_at, id)
		WHERE auto_association_attempted = 0;

		CREATE INDEX IF NOT EXISTS idx_tasks_project_status
		ON tasks(project_id, status);

		CREATE INDEX IF NOT EXISTS idx_screenshots_event
		ON screenshots(event_id, created_at);

		CREATE INDEX IF NOT EXISTS idx_ocr_results_screenshot
		ON ocr_results(screenshot_id);

		CREATE INDEX IF NOT EXISTS idx_associations_task
		ON event_associations(task_id)
		WHERE task_id IS NOT NULL;

		CREATE INDEX IF NOT EXISTS idx_llm_usage_operation
		ON llm_usage(operation, created_at);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
