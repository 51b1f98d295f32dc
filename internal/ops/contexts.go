package ops

import (
	"github.com/hpungsan/trail/internal/activity"
	"github.com/hpungsan/trail/internal/db"
)

// ContextListInput contains filter parameters for ListContexts. Nil bool
// filters match both values.
type ContextListInput struct {
	Associated       *bool  // has a task assigned
	MappingAttempted *bool  // auto-association attempted
	UsedInSummary    *bool  // consumed by a summary
	ProjectID        *int64 // exact project filter
	TaskID           *int64 // exact task filter
	Limit            int
	Offset           int
}

// ContextOutput is one event joined with its association.
type ContextOutput struct {
	EventID       int64   `json:"event_id"`
	AppName       *string `json:"app_name,omitempty"`
	WindowTitle   *string `json:"window_title,omitempty"`
	StartTime     int64   `json:"start_time"`
	EndTime       *int64  `json:"end_time,omitempty"`
	Attempted     bool    `json:"mapping_attempted"`
	ProjectID     *int64  `json:"project_id,omitempty"`
	TaskID        *int64  `json:"task_id,omitempty"`
	Method        *string `json:"method,omitempty"`
	UsedInSummary bool    `json:"used_in_summary"`
}

// ContextListOutput contains the result of ListContexts.
type ContextListOutput struct {
	Contexts []ContextOutput `json:"contexts"`
	Total    int             `json:"total"`
}

// ListContexts returns events joined with their associations, newest
// first.
func ListContexts(store *db.Store, input ContextListInput) (*ContextListOutput, error) {
	limit, offset := clampList(input.Limit, input.Offset)
	filter := db.ContextFilter{
		Associated:       input.Associated,
		MappingAttempted: input.MappingAttempted,
		UsedInSummary:    input.UsedInSummary,
		ProjectID:        input.ProjectID,
		TaskID:           input.TaskID,
		Limit:            limit,
		Offset:           offset,
	}

	contexts, err := store.ListContexts(filter)
	if err != nil {
		return nil, err
	}
	total, err := store.CountContexts(filter)
	if err != nil {
		return nil, err
	}

	out := &ContextListOutput{Contexts: []ContextOutput{}, Total: total}
	for _, c := range contexts {
		out.Contexts = append(out.Contexts, contextOutput(c))
	}
	return out, nil
}

// ContextDetailOutput is one event with the full association record,
// including confidences and the model's reasoning.
type ContextDetailOutput struct {
	ContextOutput
	ProjectConfidence *float64 `json:"project_confidence,omitempty"`
	TaskConfidence    *float64 `json:"task_confidence,omitempty"`
	Reasoning         *string  `json:"reasoning,omitempty"`
}

// GetContext returns one event with its association detail.
func GetContext(store *db.Store, eventID int64) (*ContextDetailOutput, error) {
	ev, err := store.GetEvent(eventID)
	if err != nil {
		return nil, err
	}

	out := &ContextDetailOutput{ContextOutput: ContextOutput{
		EventID:     ev.ID,
		AppName:     ev.AppName,
		WindowTitle: ev.WindowTitle,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		Attempted:   ev.AutoAssociationAttempted,
	}}

	assoc, err := store.GetAssociation(eventID)
	if err != nil {
		return nil, err
	}
	if assoc != nil {
		out.ProjectID = assoc.ProjectID
		out.TaskID = assoc.TaskID
		out.Method = &assoc.Method
		out.UsedInSummary = assoc.UsedInSummary
		out.ProjectConfidence = assoc.ProjectConfidence
		out.TaskConfidence = assoc.TaskConfidence
		out.Reasoning = assoc.Reasoning
	}
	return out, nil
}

func contextOutput(c activity.Context) ContextOutput {
	return ContextOutput{
		EventID:       c.ID,
		AppName:       c.AppName,
		WindowTitle:   c.WindowTitle,
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		Attempted:     c.AutoAssociationAttempted,
		ProjectID:     c.ProjectID,
		TaskID:        c.TaskID,
		Method:        c.Method,
		UsedInSummary: c.UsedInSummary,
	}
}
