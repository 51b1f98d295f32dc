package activity

// Association methods.
const (
	MethodAuto   = "auto"
	MethodManual = "manual"
)

// Event represents a continuous span of a single (app, window title) pair,
// the atomic unit of captured activity. Events are created by the capture
// pipeline on a context switch and closed when the context changes again.
type Event struct {
	// ID is the autoincrement event ID
	ID int64

	// AppName is the foreground application name (nullable)
	AppName *string

	// WindowTitle is the foreground window title (nullable)
	WindowTitle *string

	// StartTime is the Unix timestamp when the span began
	StartTime int64

	// EndTime is the Unix timestamp when the span ended (nil while open)
	EndTime *int64

	// CreatedAt is the Unix timestamp when the row was created
	CreatedAt int64

	// AutoAssociationAttempted is a permanent marker preventing the mapper
	// from selecting this event again. It transitions false->true exactly
	// once and is never reset.
	AutoAssociationAttempted bool
}

// Screenshot is a single capture belonging to at most one event.
type Screenshot struct {
	ID        int64
	EventID   *int64 // nil before assignment
	FilePath  string
	CreatedAt int64
}

// OCRResult holds the recognized text of one screenshot.
type OCRResult struct {
	ID           int64
	ScreenshotID int64
	Text         string
	CreatedAt    int64
}

// Association is the (project, task) classification attached to an event,
// with confidence scores and the LLM's reasoning. At most one row exists
// per event.
type Association struct {
	EventID           int64
	ProjectID         *int64
	TaskID            *int64
	ProjectConfidence *float64
	TaskConfidence    *float64
	Reasoning         *string

	// Method is "auto" for mapper-written rows, "manual" for user edits
	Method string

	// UsedInSummary marks events already consumed by report generation
	UsedInSummary bool

	CreatedAt int64
	UpdatedAt int64
}

// AssociationWrite is a field-wise upsert request for an association row.
// Nil pointer fields are left untouched on an existing row; on a fresh row
// they become NULL.
type AssociationWrite struct {
	EventID           int64
	ProjectID         *int64
	TaskID            *int64
	ProjectConfidence *float64
	TaskConfidence    *float64
	Reasoning         *string
	Method            string
}

// Context is an event joined with its association, the read model served
// to the API and consumed by the mapper and the summary subsystem.
type Context struct {
	Event
	ProjectID     *int64
	TaskID        *int64
	Method        *string
	UsedInSummary bool
}
