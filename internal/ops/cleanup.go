package ops

import (
	"log"
	"os"

	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/errors"
)

// CleanupInput contains parameters for Cleanup.
type CleanupInput struct {
	// MaxScreenshots is the retention cap. Screenshots beyond it are
	// removed oldest-first.
	MaxScreenshots int

	// DeleteFileOnly removes image files but keeps the rows and their OCR
	// text for history.
	DeleteFileOnly bool
}

// CleanupOutput contains the result of one cleanup pass.
type CleanupOutput struct {
	FilesDeleted int `json:"files_deleted"`
	RowsDeleted  int `json:"rows_deleted"`
}

// Cleanup enforces the screenshot retention cap: counts stored screenshots
// and removes the oldest beyond MaxScreenshots. The image file is always
// deleted; the row and its OCR text survive in file-only mode. A missing
// file is not an error, the row is cleaned up regardless.
func Cleanup(store *db.Store, input CleanupInput) (*CleanupOutput, error) {
	if input.MaxScreenshots < 0 {
		return nil, errors.NewInvalidRequest("max_screenshots must not be negative")
	}

	out := &CleanupOutput{}

	count, err := store.CountScreenshots()
	if err != nil {
		return nil, err
	}
	excess := count - input.MaxScreenshots
	if excess <= 0 {
		return out, nil
	}

	victims, err := store.OldestScreenshots(excess)
	if err != nil {
		return nil, err
	}

	for _, shot := range victims {
		if shot.FilePath != "" {
			if err := os.Remove(shot.FilePath); err != nil {
				if !os.IsNotExist(err) {
					log.Printf("[cleanup] remove %s: %v", shot.FilePath, err)
					continue
				}
			} else {
				out.FilesDeleted++
			}
		}

		if input.DeleteFileOnly {
			if err := store.ClearScreenshotFile(shot.ID); err != nil {
				return out, err
			}
		} else {
			if err := store.DeleteScreenshotData(shot.ID); err != nil {
				return out, err
			}
			out.RowsDeleted++
		}
	}

	return out, nil
}
