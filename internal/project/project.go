package project

// Task statuses. Only in-progress tasks are eligible for auto-association.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Project is a user-created grouping of tasks. The mapper only reads
// projects; it never writes them.
type Project struct {
	ID        int64
	Name      string
	Goal      *string
	CreatedAt int64
	UpdatedAt int64
}

// Task belongs to a project and may nest under a parent task.
type Task struct {
	ID           int64
	ProjectID    int64
	Name         string
	Description  *string
	Status       string
	ParentTaskID *int64
	CreatedAt    int64
	UpdatedAt    int64
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}
