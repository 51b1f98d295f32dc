package mapper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hpungsan/trail/internal/activity"
	"github.com/hpungsan/trail/internal/config"
	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/llm"
	"github.com/hpungsan/trail/internal/project"
)

// stubClient replays canned completions in order. A reply of "ERROR" makes
// the call fail instead.
type stubClient struct {
	replies []string
	calls   int
}

func (c *stubClient) Complete(ctx context.Context, system, user string, maxTokens int) (llm.Completion, error) {
	if c.calls >= len(c.replies) {
		return llm.Completion{}, fmt.Errorf("unexpected call %d", c.calls)
	}
	reply := c.replies[c.calls]
	c.calls++
	if reply == "ERROR" {
		return llm.Completion{}, fmt.Errorf("simulated completion failure")
	}
	return llm.Completion{Text: reply, InputTokens: 100, OutputTokens: 20}, nil
}

func (c *stubClient) Model() string { return "stub-model" }

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	conn, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return db.NewStore(conn)
}

func newTestProvider(mutate func(*config.Config)) *config.Provider {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return config.NewProvider(cfg, "")
}

func strPtr(s string) *string { return &s }

// seedEvent inserts an event with one screenshot carrying OCR text.
func seedEvent(t *testing.T, store *db.Store, app, window, ocrText string) int64 {
	t.Helper()
	eventID, err := store.InsertEvent(strPtr(app), strPtr(window), 1000)
	if err != nil {
		t.Fatalf("InsertEvent failed: %v", err)
	}
	if ocrText != "" {
		shotID, err := store.InsertScreenshot(&eventID, fmt.Sprintf("/shots/%d.png", eventID))
		if err != nil {
			t.Fatalf("InsertScreenshot failed: %v", err)
		}
		if _, err := store.InsertOCRResult(shotID, ocrText); err != nil {
			t.Fatalf("InsertOCRResult failed: %v", err)
		}
	}
	return eventID
}

// seedProjectWithTask creates a project and one in-progress task under it.
func seedProjectWithTask(t *testing.T, store *db.Store, name, taskName string) (int64, int64) {
	t.Helper()
	projectID, err := store.InsertProject(name, strPtr("goal of "+name))
	if err != nil {
		t.Fatalf("InsertProject failed: %v", err)
	}
	taskID, err := store.InsertTask(projectID, taskName, nil, project.StatusInProgress, nil)
	if err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	return projectID, taskID
}

func TestRunCycle_Disabled(t *testing.T) {
	store := newTestStore(t)
	seedEvent(t, store, "vscode", "main.go", "package main")

	client := &stubClient{}
	provider := newTestProvider(func(c *config.Config) { c.Mapper.Enabled = false })
	engine := New(store, client, provider)

	n, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if n != 0 {
		t.Errorf("processed %d events while disabled, want 0", n)
	}
	if client.calls != 0 {
		t.Errorf("made %d completion calls while disabled, want 0", client.calls)
	}
}

func TestRunCycle_AssociatesHighConfidenceEvent(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, store, "Thesis", "Write chapter 3")
	eventID := seedEvent(t, store, "vscode", "thesis.tex", "\\section{Results} chapter 3 draft")

	client := &stubClient{replies: []string{
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.95}`, projectID),
		fmt.Sprintf(`{"task_id": %d, "confidence_score": 0.88, "reasoning": "editing the chapter 3 draft"}`, taskID),
	}}
	engine := New(store, client, newTestProvider(nil))

	n, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed = %d, want 1", n)
	}

	assoc, err := store.GetAssociation(eventID)
	if err != nil {
		t.Fatalf("GetAssociation failed: %v", err)
	}
	if assoc == nil {
		t.Fatal("no association row written")
	}
	if assoc.ProjectID == nil || *assoc.ProjectID != projectID {
		t.Errorf("ProjectID = %v, want %d", assoc.ProjectID, projectID)
	}
	if assoc.TaskID == nil || *assoc.TaskID != taskID {
		t.Errorf("TaskID = %v, want %d", assoc.TaskID, taskID)
	}
	if assoc.ProjectConfidence == nil || *assoc.ProjectConfidence != 0.95 {
		t.Errorf("ProjectConfidence = %v, want 0.95", assoc.ProjectConfidence)
	}
	if assoc.TaskConfidence == nil || *assoc.TaskConfidence != 0.88 {
		t.Errorf("TaskConfidence = %v, want 0.88", assoc.TaskConfidence)
	}
	if assoc.Reasoning == nil || *assoc.Reasoning != "editing the chapter 3 draft" {
		t.Errorf("Reasoning = %v, want the model's sentence", assoc.Reasoning)
	}
	if assoc.Method != activity.MethodAuto {
		t.Errorf("Method = %q, want auto", assoc.Method)
	}

	ev, err := store.GetEvent(eventID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if !ev.AutoAssociationAttempted {
		t.Error("event not marked attempted")
	}

	stats := engine.Stats()
	if stats.TotalProcessed != 1 || stats.TotalAssociated != 1 || stats.TotalSkipped != 0 {
		t.Errorf("stats = %+v, want processed=1 associated=1 skipped=0", stats)
	}
}

func TestRunCycle_ExactlyOnce(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, store, "Thesis", "Write chapter 3")

	var replies []string
	for i := 0; i < 5; i++ {
		seedEvent(t, store, "vscode", fmt.Sprintf("file%d.go", i), "some screen text")
		replies = append(replies,
			fmt.Sprintf(`{"project_id": %d, "confidence": 0.9}`, projectID),
			fmt.Sprintf(`{"task_id": %d, "confidence_score": 0.9, "reasoning": "match"}`, taskID),
		)
	}
	client := &stubClient{replies: replies}
	engine := New(store, client, newTestProvider(nil))

	n, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
	if n != 5 {
		t.Fatalf("first cycle processed %d, want 5", n)
	}

	// Every event is now attempted; the second cycle must find nothing
	// and make no completion calls
	callsAfterFirst := client.calls
	n, err = engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second cycle processed %d, want 0", n)
	}
	if client.calls != callsAfterFirst {
		t.Errorf("second cycle made %d extra completion calls", client.calls-callsAfterFirst)
	}
}

func TestRunCycle_LowProjectConfidenceSkipsEntirely(t *testing.T) {
	store := newTestStore(t)
	projectID, _ := seedProjectWithTask(t, store, "Thesis", "Write chapter 3")
	eventID := seedEvent(t, store, "chrome", "news", "celebrity gossip")

	client := &stubClient{replies: []string{
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.3}`, projectID),
	}}
	engine := New(store, client, newTestProvider(nil))

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	// Task determination must not have run
	if client.calls != 1 {
		t.Errorf("made %d completion calls, want 1", client.calls)
	}

	assoc, err := store.GetAssociation(eventID)
	if err != nil {
		t.Fatalf("GetAssociation failed: %v", err)
	}
	if assoc != nil {
		t.Errorf("association row written below threshold: %+v", assoc)
	}

	ev, _ := store.GetEvent(eventID)
	if !ev.AutoAssociationAttempted {
		t.Error("skipped event must still be marked attempted")
	}

	stats := engine.Stats()
	if stats.TotalSkipped != 1 || stats.TotalAssociated != 0 {
		t.Errorf("stats = %+v, want skipped=1 associated=0", stats)
	}
}

func TestRunCycle_ThresholdBoundaryInclusive(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, store, "Thesis", "Write chapter 3")

	atBoundary := seedEvent(t, store, "vscode", "a.tex", "text a")
	justBelow := seedEvent(t, store, "vscode", "b.tex", "text b")

	client := &stubClient{replies: []string{
		// Event at boundary: both stages exactly 0.70
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.70}`, projectID),
		fmt.Sprintf(`{"task_id": %d, "confidence_score": 0.70, "reasoning": "boundary"}`, taskID),
		// Event just below: project stage 0.699999
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.699999}`, projectID),
	}}
	engine := New(store, client, newTestProvider(nil))

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	assoc, err := store.GetAssociation(atBoundary)
	if err != nil {
		t.Fatalf("GetAssociation failed: %v", err)
	}
	if assoc == nil || assoc.TaskID == nil || *assoc.TaskID != taskID {
		t.Errorf("boundary event should be fully associated, got %+v", assoc)
	}

	below, err := store.GetAssociation(justBelow)
	if err != nil {
		t.Fatalf("GetAssociation failed: %v", err)
	}
	if below != nil {
		t.Errorf("below-boundary event should have no row, got %+v", below)
	}
}

func TestRunCycle_FallbackOnCompletionFailure(t *testing.T) {
	store := newTestStore(t)
	firstProject, _ := seedProjectWithTask(t, store, "First", "Task one")
	if _, err := store.InsertProject("Second", nil); err != nil {
		t.Fatal(err)
	}
	eventID := seedEvent(t, store, "vscode", "x.go", "text")

	// Project call fails, then the task call fails too; threshold lowered
	// so the 0.5 fallback passes the gate
	client := &stubClient{replies: []string{"ERROR", "ERROR"}}
	provider := newTestProvider(func(c *config.Config) {
		c.Mapper.ProjectConfidenceThreshold = 0.5
	})
	engine := New(store, client, provider)

	n, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed = %d, want 1", n)
	}

	assoc, err := store.GetAssociation(eventID)
	if err != nil {
		t.Fatalf("GetAssociation failed: %v", err)
	}
	if assoc == nil {
		t.Fatal("fallback should persist a project-only association")
	}
	if assoc.ProjectID == nil || *assoc.ProjectID != firstProject {
		t.Errorf("ProjectID = %v, want first project %d", assoc.ProjectID, firstProject)
	}
	if assoc.ProjectConfidence == nil || *assoc.ProjectConfidence != 0.5 {
		t.Errorf("ProjectConfidence = %v, want fallback 0.5", assoc.ProjectConfidence)
	}
	if assoc.TaskID != nil {
		t.Errorf("TaskID = %v, want nil after task call failure", assoc.TaskID)
	}
}

func TestRunCycle_NoScreenshotsUsesFallback(t *testing.T) {
	store := newTestStore(t)
	firstProject, _ := seedProjectWithTask(t, store, "First", "Task one")
	eventID := seedEvent(t, store, "terminal", "zsh", "")

	// Task stage still runs against the fallback project
	client := &stubClient{replies: []string{
		`{"task_id": null, "confidence_score": 0.2, "reasoning": "no screen context"}`,
	}}
	provider := newTestProvider(func(c *config.Config) {
		c.Mapper.ProjectConfidenceThreshold = 0.5
	})
	engine := New(store, client, provider)

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	// Only the task call happened: no OCR text means no project call
	if client.calls != 1 {
		t.Errorf("made %d completion calls, want 1", client.calls)
	}

	assoc, _ := store.GetAssociation(eventID)
	if assoc == nil || assoc.ProjectID == nil || *assoc.ProjectID != firstProject {
		t.Fatalf("want fallback project %d, got %+v", firstProject, assoc)
	}
}

func TestRunCycle_NoProjectsSkips(t *testing.T) {
	store := newTestStore(t)
	eventID := seedEvent(t, store, "vscode", "x.go", "text")

	client := &stubClient{}
	engine := New(store, client, newTestProvider(nil))

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if client.calls != 0 {
		t.Errorf("made %d completion calls with no projects, want 0", client.calls)
	}

	assoc, _ := store.GetAssociation(eventID)
	if assoc != nil {
		t.Errorf("no row expected, got %+v", assoc)
	}
	ev, _ := store.GetEvent(eventID)
	if !ev.AutoAssociationAttempted {
		t.Error("event must be marked attempted even with no projects")
	}
}

func TestRunCycle_NoInProgressTasksPersistsProjectOnly(t *testing.T) {
	store := newTestStore(t)
	projectID, err := store.InsertProject("Thesis", nil)
	if err != nil {
		t.Fatal(err)
	}
	// Only a done task: not a candidate
	if _, err := store.InsertTask(projectID, "Outline", nil, project.StatusDone, nil); err != nil {
		t.Fatal(err)
	}
	eventID := seedEvent(t, store, "vscode", "thesis.tex", "chapter text")

	client := &stubClient{replies: []string{
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.9}`, projectID),
	}}
	engine := New(store, client, newTestProvider(nil))

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("made %d completion calls, want 1 (no task stage without candidates)", client.calls)
	}

	assoc, _ := store.GetAssociation(eventID)
	if assoc == nil || assoc.ProjectID == nil || *assoc.ProjectID != projectID {
		t.Fatalf("want project-only association, got %+v", assoc)
	}
	if assoc.TaskID != nil {
		t.Errorf("TaskID = %v, want nil", assoc.TaskID)
	}

	stats := engine.Stats()
	if stats.TotalAssociated != 0 || stats.TotalSkipped != 1 {
		t.Errorf("stats = %+v, want associated=0 skipped=1", stats)
	}
}

func TestRunCycle_BelowTaskThresholdKeepsAudit(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, store, "Thesis", "Write chapter 3")
	eventID := seedEvent(t, store, "vscode", "notes.md", "rough notes")

	client := &stubClient{replies: []string{
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.9}`, projectID),
		fmt.Sprintf(`{"task_id": %d, "confidence_score": 0.4, "reasoning": "weak overlap"}`, taskID),
	}}
	engine := New(store, client, newTestProvider(nil))

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	assoc, _ := store.GetAssociation(eventID)
	if assoc == nil {
		t.Fatal("association row expected")
	}
	if assoc.TaskID != nil {
		t.Errorf("TaskID = %v, want nil below threshold", assoc.TaskID)
	}
	if assoc.TaskConfidence == nil || *assoc.TaskConfidence != 0.4 {
		t.Errorf("TaskConfidence = %v, want 0.4 kept for audit", assoc.TaskConfidence)
	}
	if assoc.Reasoning == nil || *assoc.Reasoning != "weak overlap" {
		t.Errorf("Reasoning = %v, want kept for audit", assoc.Reasoning)
	}

	stats := engine.Stats()
	if stats.TotalAssociated != 0 || stats.TotalSkipped != 1 {
		t.Errorf("stats = %+v, want associated=0 skipped=1", stats)
	}
}

func TestRunCycle_FencedJSONAccepted(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, store, "Thesis", "Write chapter 3")
	eventID := seedEvent(t, store, "vscode", "thesis.tex", "chapter text")

	client := &stubClient{replies: []string{
		fmt.Sprintf("```json\n{\"project_id\": %d, \"confidence\": 0.9}\n```", projectID),
		fmt.Sprintf("```\n{\"task_id\": %d, \"confidence_score\": 0.85, \"reasoning\": \"fenced\"}\n```", taskID),
	}}
	engine := New(store, client, newTestProvider(nil))

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	assoc, _ := store.GetAssociation(eventID)
	if assoc == nil || assoc.TaskID == nil || *assoc.TaskID != taskID {
		t.Fatalf("fenced replies should associate normally, got %+v", assoc)
	}
}

// failingStore wraps a real store and fails selected operations.
type failingStore struct {
	*db.Store
	failUpsert bool
	failMark   bool
}

func (f *failingStore) UpsertAssociation(w activity.AssociationWrite) error {
	if f.failUpsert {
		return fmt.Errorf("simulated write failure")
	}
	return f.Store.UpsertAssociation(w)
}

func (f *failingStore) MarkAttempted(eventID int64) error {
	if f.failMark {
		return fmt.Errorf("simulated mark failure")
	}
	return f.Store.MarkAttempted(eventID)
}

func TestRunCycle_PersistFailureStillMarksAttempted(t *testing.T) {
	real := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, real, "Thesis", "Write chapter 3")
	eventID := seedEvent(t, real, "vscode", "thesis.tex", "chapter text")

	client := &stubClient{replies: []string{
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.9}`, projectID),
		fmt.Sprintf(`{"task_id": %d, "confidence_score": 0.9, "reasoning": "match"}`, taskID),
	}}
	engine := New(&failingStore{Store: real, failUpsert: true}, client, newTestProvider(nil))

	n, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle must absorb a persistence failure, got %v", err)
	}
	if n != 1 {
		t.Errorf("processed = %d, want 1", n)
	}

	ev, _ := real.GetEvent(eventID)
	if !ev.AutoAssociationAttempted {
		t.Error("event must be marked attempted despite the failed write")
	}

	stats := engine.Stats()
	if stats.TotalSkipped != 1 || stats.TotalAssociated != 0 {
		t.Errorf("stats = %+v, want skipped=1 associated=0", stats)
	}
}

func TestRunCycle_MarkAttemptedFailureAbortsBatch(t *testing.T) {
	real := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, real, "Thesis", "Write chapter 3")
	seedEvent(t, real, "vscode", "a.tex", "text")
	seedEvent(t, real, "vscode", "b.tex", "text")

	client := &stubClient{replies: []string{
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.9}`, projectID),
		fmt.Sprintf(`{"task_id": %d, "confidence_score": 0.9, "reasoning": "match"}`, taskID),
	}}
	engine := New(&failingStore{Store: real, failMark: true}, client, newTestProvider(nil))

	n, err := engine.RunCycle(context.Background())
	if !errors.Is(err, ErrMarkAttempted) {
		t.Fatalf("err = %v, want ErrMarkAttempted", err)
	}
	if n != 1 {
		t.Errorf("processed = %d, want 1 (second event untouched)", n)
	}
	if engine.Stats().LastError == "" {
		t.Error("LastError should record the aborted batch")
	}
}

func TestRunCycle_ConfigSwapBetweenCycles(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, store, "Thesis", "Write chapter 3")

	first := seedEvent(t, store, "vscode", "a.tex", "text")
	second := seedEvent(t, store, "vscode", "b.tex", "text")

	provider := newTestProvider(func(c *config.Config) {
		c.Mapper.BatchSize = 1
	})
	client := &stubClient{replies: []string{
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.75}`, projectID),
		fmt.Sprintf(`{"task_id": %d, "confidence_score": 0.75, "reasoning": "m"}`, taskID),
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.75}`, projectID),
	}}
	engine := New(store, client, provider)

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
	a, _ := store.GetAssociation(first)
	if a == nil || a.TaskID == nil {
		t.Fatalf("first event should associate at 0.75 >= 0.7, got %+v", a)
	}

	// Raise the bar; the next cycle sees the new snapshot
	raised := config.DefaultConfig()
	raised.Mapper.BatchSize = 1
	raised.Mapper.ProjectConfidenceThreshold = 0.8
	provider.Swap(raised)

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}
	b, _ := store.GetAssociation(second)
	if b != nil {
		t.Errorf("second event should be gated by the raised threshold, got %+v", b)
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3 (no task stage after the gate)", client.calls)
	}
}

func TestRunCycle_DoesNotEraseManualTask(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, store, "Thesis", "Write chapter 3")
	eventID := seedEvent(t, store, "vscode", "thesis.tex", "chapter text")

	// User associates manually before the mapper gets to the event
	if err := store.SetAssociationTask(eventID, &taskID, &projectID); err != nil {
		t.Fatalf("SetAssociationTask failed: %v", err)
	}

	// Mapper then runs with a weak task verdict: task fields below
	// threshold stay untouched, so the manual choice survives
	client := &stubClient{replies: []string{
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.9}`, projectID),
		`{"task_id": null, "confidence_score": 0.1, "reasoning": "unclear"}`,
	}}
	engine := New(store, client, newTestProvider(nil))

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	assoc, _ := store.GetAssociation(eventID)
	if assoc == nil || assoc.TaskID == nil || *assoc.TaskID != taskID {
		t.Fatalf("manual task association must survive the auto pass, got %+v", assoc)
	}
}

// recordedUsage captures RecordUsage calls.
type recordedUsage struct {
	ops []string
}

func (r *recordedUsage) RecordUsage(operation, model, runID string, in, out int64) error {
	r.ops = append(r.ops, operation)
	return nil
}

func TestRunCycle_RecordsUsagePerCall(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID := seedProjectWithTask(t, store, "Thesis", "Write chapter 3")
	seedEvent(t, store, "vscode", "thesis.tex", "chapter text")

	client := &stubClient{replies: []string{
		fmt.Sprintf(`{"project_id": %d, "confidence": 0.9}`, projectID),
		fmt.Sprintf(`{"task_id": %d, "confidence_score": 0.9, "reasoning": "m"}`, taskID),
	}}
	usage := &recordedUsage{}
	engine := New(store, client, newTestProvider(nil), WithUsageRecorder(usage))

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if len(usage.ops) != 2 || usage.ops[0] != "project_determination" || usage.ops[1] != "task_association" {
		t.Errorf("usage ops = %v, want [project_determination task_association]", usage.ops)
	}
}
