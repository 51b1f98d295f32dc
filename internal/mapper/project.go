package mapper

import (
	"context"
	"log"

	"github.com/hpungsan/trail/internal/activity"
	"github.com/hpungsan/trail/internal/llm"
)

// fallbackConfidence is attached to the default-project guess used when an
// event carries no usable screen context or the classification call fails.
const fallbackConfidence = 0.5

// projectGuess is the outcome of project determination.
type projectGuess struct {
	ProjectID  int64
	Confidence float64
}

// determineProject decides which project an event belongs to. It is total
// over classification failures: no screenshots, a failed completion, an
// unparseable reply, or an id outside the catalog all fall back to the
// first project with fallbackConfidence. It returns nil only when no
// projects exist, and an error only when the store itself fails.
func (e *Engine) determineProject(ctx context.Context, runID string, ev activity.Event) (*projectGuess, error) {
	projects, err := e.store.ListProjects(maxCatalogProjects, 0)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, nil
	}

	fallback := &projectGuess{ProjectID: projects[0].ID, Confidence: fallbackConfidence}

	blocks, err := e.eventOCRBlocks(ev.ID)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return fallback, nil
	}

	comp, err := e.client.Complete(ctx, projectSystemPrompt, buildProjectPrompt(ev, blocks, projects), projectMaxTokens)
	if err != nil {
		log.Printf("[mapper] run=%s event=%d project call failed, using fallback: %v", runID, ev.ID, err)
		return fallback, nil
	}
	e.recordUsage(opProjectDetermination, runID, comp)

	result, err := parseProjectResult(comp.Text)
	if err != nil {
		log.Printf("[mapper] run=%s event=%d project reply unusable, using fallback: %v", runID, ev.ID, err)
		return fallback, nil
	}

	for _, p := range projects {
		if p.ID == result.ProjectID {
			return &projectGuess{ProjectID: result.ProjectID, Confidence: result.Confidence}, nil
		}
	}
	log.Printf("[mapper] run=%s event=%d project reply named unknown id %d, using fallback", runID, ev.ID, result.ProjectID)
	return fallback, nil
}

// eventOCRBlocks collects the recognized text of an event's screenshots,
// one block per screenshot, earliest first, capped at maxEventScreenshots.
// Screenshots without OCR text contribute nothing.
func (e *Engine) eventOCRBlocks(eventID int64) ([]string, error) {
	shots, err := e.store.EventScreenshots(eventID)
	if err != nil {
		return nil, err
	}
	if len(shots) > maxEventScreenshots {
		shots = shots[:maxEventScreenshots]
	}

	var blocks []string
	for _, shot := range shots {
		results, err := e.store.OCRResultsByScreenshot(shot.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if r.Text != "" {
				blocks = append(blocks, r.Text)
			}
		}
	}
	return blocks, nil
}

// recordUsage persists token usage for one completion when a recorder is
// configured. Accounting failures are logged and ignored.
func (e *Engine) recordUsage(operation, runID string, comp llm.Completion) {
	if e.usage == nil {
		return
	}
	if err := e.usage.RecordUsage(operation, e.client.Model(), runID, comp.InputTokens, comp.OutputTokens); err != nil {
		log.Printf("[mapper] run=%s usage record failed: %v", runID, err)
	}
}
