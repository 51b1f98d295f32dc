package mapper

import (
	"context"
	"log"

	"github.com/hpungsan/trail/internal/activity"
	"github.com/hpungsan/trail/internal/project"
)

// taskVerdict is the outcome of task association. A nil TaskID means the
// model judged that no listed task matches.
type taskVerdict struct {
	TaskID     *int64
	Confidence float64
	Reasoning  string
}

// determineTask decides which in-progress task of the given project an
// event belongs to. Any failure (store read, completion call, unusable
// reply, no candidate tasks) returns nil, which the caller treats as
// no-match: the project half of the association is persisted regardless.
func (e *Engine) determineTask(ctx context.Context, runID string, ev activity.Event, projectID int64) *taskVerdict {
	proj, err := e.store.GetProject(projectID)
	if err != nil {
		log.Printf("[mapper] run=%s event=%d read project %d failed: %v", runID, ev.ID, projectID, err)
		return nil
	}

	tasks, err := e.store.ListTasks(projectID, project.StatusInProgress)
	if err != nil {
		log.Printf("[mapper] run=%s event=%d list tasks failed: %v", runID, ev.ID, err)
		return nil
	}
	if len(tasks) == 0 {
		return nil
	}

	blocks, err := e.eventOCRBlocks(ev.ID)
	if err != nil {
		log.Printf("[mapper] run=%s event=%d read screen text failed: %v", runID, ev.ID, err)
		return nil
	}

	comp, err := e.client.Complete(ctx, taskSystemPrompt, buildTaskPrompt(ev, proj, blocks, tasks), taskMaxTokens)
	if err != nil {
		log.Printf("[mapper] run=%s event=%d task call failed: %v", runID, ev.ID, err)
		return nil
	}
	e.recordUsage(opTaskAssociation, runID, comp)

	result, err := parseTaskResult(comp.Text)
	if err != nil {
		log.Printf("[mapper] run=%s event=%d task reply unusable: %v", runID, ev.ID, err)
		return nil
	}

	if result.TaskID != nil && !taskInCatalog(tasks, *result.TaskID) {
		log.Printf("[mapper] run=%s event=%d task reply named unknown id %d, treating as no match", runID, ev.ID, *result.TaskID)
		result.TaskID = nil
	}

	return &taskVerdict{
		TaskID:     result.TaskID,
		Confidence: result.ConfidenceScore,
		Reasoning:  result.Reasoning,
	}
}

func taskInCatalog(tasks []project.Task, id int64) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
