// Package mapper implements the background engine that classifies captured
// activity events against the user's projects and in-progress tasks with an
// LLM, persisting confidence-gated associations exactly once per event.
package mapper

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/trail/internal/activity"
	"github.com/hpungsan/trail/internal/config"
	"github.com/hpungsan/trail/internal/llm"
	"github.com/hpungsan/trail/internal/project"
)

// ErrMarkAttempted wraps a failed attempted-flag write. This is the one
// per-event error that aborts a batch: without the flag the event would be
// reprocessed forever, so the cycle stops rather than spin.
var ErrMarkAttempted = errors.New("mark attempted failed")

// Bounds on what one event classification reads.
const (
	maxEventScreenshots = 5
	maxCatalogProjects  = 200
)

// Operation tags for usage accounting.
const (
	opProjectDetermination = "project_determination"
	opTaskAssociation      = "task_association"
)

// Store is the database surface the engine needs. *db.Store satisfies it.
type Store interface {
	ListUnattempted(limit, offset int) ([]activity.Event, error)
	MarkAttempted(eventID int64) error
	EventScreenshots(eventID int64) ([]activity.Screenshot, error)
	OCRResultsByScreenshot(screenshotID int64) ([]activity.OCRResult, error)
	ListProjects(limit, offset int) ([]project.Project, error)
	GetProject(projectID int64) (*project.Project, error)
	ListTasks(projectID int64, statusFilter string) ([]project.Task, error)
	UpsertAssociation(w activity.AssociationWrite) error
}

// Engine runs association cycles. Construct with New; all collaborators
// are injected and the engine holds no global state.
type Engine struct {
	store  Store
	client llm.Client
	cfg    *config.Provider
	usage  llm.UsageRecorder // nil disables usage accounting
	stats  statsCollector
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithUsageRecorder records per-call token usage (operation, model, run ID).
func WithUsageRecorder(r llm.UsageRecorder) Option {
	return func(e *Engine) { e.usage = r }
}

// New creates an engine. The config provider is read once per cycle, so
// threshold, batch size and enablement changes apply on the next cycle.
func New(store Store, client llm.Client, cfg *config.Provider, opts ...Option) *Engine {
	e := &Engine{store: store, client: client, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats returns a copy of the lifetime counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// RunCycle processes one batch of unattempted events sequentially and
// returns how many it picked up. Classification and persistence failures
// are absorbed per event (the event is still marked attempted); only a
// failed attempted-flag write aborts the batch. Safe to call repeatedly.
func (e *Engine) RunCycle(ctx context.Context) (processed int, err error) {
	cfg := e.cfg.Snapshot()
	if !cfg.Mapper.Enabled {
		return 0, nil
	}

	defer func() {
		e.stats.finishRun(time.Now().Unix(), err)
	}()

	runID := newRunID()

	events, err := e.store.ListUnattempted(cfg.Mapper.BatchSize, 0)
	if err != nil {
		return 0, fmt.Errorf("list unattempted events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	log.Printf("[mapper] run=%s picked up %d event(s)", runID, len(events))

	for _, ev := range events {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		evErr := e.processEvent(ctx, cfg, runID, ev)
		processed++
		if evErr != nil {
			if errors.Is(evErr, ErrMarkAttempted) {
				return processed, evErr
			}
			log.Printf("[mapper] run=%s event=%d: %v", runID, ev.ID, evErr)
		}
	}
	return processed, nil
}

// processEvent classifies one event. The attempted flag is set in a
// deferred finalizer so it is written on every exit path, including panics.
func (e *Engine) processEvent(ctx context.Context, cfg *config.Config, runID string, ev activity.Event) (err error) {
	e.stats.addProcessed()

	defer func() {
		if r := recover(); r != nil {
			e.stats.addSkipped()
			err = fmt.Errorf("panic: %v", r)
		}
		if markErr := e.store.MarkAttempted(ev.ID); markErr != nil {
			err = fmt.Errorf("%w: event %d: %v", ErrMarkAttempted, ev.ID, markErr)
		}
	}()

	guess, err := e.determineProject(ctx, runID, ev)
	if err != nil {
		e.stats.addSkipped()
		return fmt.Errorf("determine project: %w", err)
	}
	if guess == nil {
		// No projects exist; nothing to classify against
		e.stats.addSkipped()
		return nil
	}

	if guess.Confidence < cfg.Mapper.ProjectConfidenceThreshold {
		log.Printf("[mapper] run=%s event=%d project=%d confidence %.2f below threshold %.2f, skipping",
			runID, ev.ID, guess.ProjectID, guess.Confidence, cfg.Mapper.ProjectConfidenceThreshold)
		e.stats.addSkipped()
		return nil
	}

	write := activity.AssociationWrite{
		EventID:           ev.ID,
		ProjectID:         &guess.ProjectID,
		ProjectConfidence: &guess.Confidence,
		Method:            activity.MethodAuto,
	}

	associated := false
	verdict := e.determineTask(ctx, runID, ev, guess.ProjectID)
	if verdict != nil {
		write.TaskConfidence = &verdict.Confidence
		if verdict.Reasoning != "" {
			write.Reasoning = &verdict.Reasoning
		}
		if verdict.TaskID != nil && verdict.Confidence >= cfg.Mapper.TaskConfidenceThreshold {
			write.TaskID = verdict.TaskID
			associated = true
		}
	}

	if upErr := e.store.UpsertAssociation(write); upErr != nil {
		// Fail forward: the attempted flag is still set by the finalizer,
		// so a poisoned event cannot wedge the pipeline
		e.stats.addSkipped()
		return fmt.Errorf("persist association: %w", upErr)
	}

	if associated {
		log.Printf("[mapper] run=%s event=%d associated project=%d task=%d confidence %.2f",
			runID, ev.ID, guess.ProjectID, *verdict.TaskID, verdict.Confidence)
		e.stats.addAssociated()
	} else {
		e.stats.addSkipped()
	}
	return nil
}

func newRunID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return id.String()
}
