package ops

import (
	"github.com/hpungsan/trail/internal/db"
)

// AssociateInput contains parameters for Associate. A nil TaskID clears
// the event's task assignment.
type AssociateInput struct {
	EventID int64
	TaskID  *int64
}

// Associate manually assigns (or clears) an event's task. The project is
// derived from the task, never supplied by the caller, and the resulting
// row is marked method "manual" so the mapper's audit trail stays honest.
func Associate(store *db.Store, input AssociateInput) (*ContextDetailOutput, error) {
	if _, err := store.GetEvent(input.EventID); err != nil {
		return nil, err
	}

	var projectID *int64
	if input.TaskID != nil {
		task, err := store.GetTask(*input.TaskID)
		if err != nil {
			return nil, err
		}
		projectID = &task.ProjectID
	}

	if err := store.SetAssociationTask(input.EventID, input.TaskID, projectID); err != nil {
		return nil, err
	}
	return GetContext(store, input.EventID)
}

// MarkUsedInSummary flags an event's association as consumed by a summary.
func MarkUsedInSummary(store *db.Store, eventID int64) error {
	if _, err := store.GetEvent(eventID); err != nil {
		return err
	}
	return store.MarkUsedInSummary(eventID)
}
