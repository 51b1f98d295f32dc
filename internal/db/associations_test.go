package db

import (
	"testing"

	"github.com/hpungsan/trail/internal/activity"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool          { return &v }

// seedProjectTaskEvent inserts one project, one task under it and one
// event, returning their IDs.
func seedProjectTaskEvent(t *testing.T, store *Store) (projectID, taskID, eventID int64) {
	t.Helper()
	projectID, err := store.InsertProject("proj", nil)
	if err != nil {
		t.Fatal(err)
	}
	taskID, err = store.InsertTask(projectID, "task", nil, "in_progress", nil)
	if err != nil {
		t.Fatal(err)
	}
	eventID, err = store.InsertEvent(strPtr("vscode"), nil, 1000)
	if err != nil {
		t.Fatal(err)
	}
	return projectID, taskID, eventID
}

func TestUpsertAssociationInsert(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID, eventID := seedProjectTaskEvent(t, store)

	err := store.UpsertAssociation(activity.AssociationWrite{
		EventID:           eventID,
		ProjectID:         &projectID,
		TaskID:            &taskID,
		ProjectConfidence: float64Ptr(0.9),
		TaskConfidence:    float64Ptr(0.8),
		Reasoning:         strPtr("editing the main file"),
	})
	if err != nil {
		t.Fatalf("UpsertAssociation failed: %v", err)
	}

	a, err := store.GetAssociation(eventID)
	if err != nil {
		t.Fatal(err)
	}
	if a == nil {
		t.Fatal("association row missing")
	}
	if a.Method != activity.MethodAuto {
		t.Errorf("Method = %q, want auto default", a.Method)
	}
	if a.TaskID == nil || *a.TaskID != taskID {
		t.Errorf("TaskID = %v, want %d", a.TaskID, taskID)
	}
	if a.ProjectConfidence == nil || *a.ProjectConfidence != 0.9 {
		t.Errorf("ProjectConfidence = %v", a.ProjectConfidence)
	}
}

func TestUpsertAssociationNilFieldsUntouched(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID, eventID := seedProjectTaskEvent(t, store)

	// Manual association first.
	if err := store.SetAssociationTask(eventID, &taskID, &projectID); err != nil {
		t.Fatal(err)
	}

	// Auto write with a nil task must not clear the manual task.
	err := store.UpsertAssociation(activity.AssociationWrite{
		EventID:           eventID,
		ProjectID:         &projectID,
		ProjectConfidence: float64Ptr(0.75),
		TaskConfidence:    float64Ptr(0.4),
		Reasoning:         strPtr("confidence too low"),
	})
	if err != nil {
		t.Fatal(err)
	}

	a, err := store.GetAssociation(eventID)
	if err != nil {
		t.Fatal(err)
	}
	if a.TaskID == nil || *a.TaskID != taskID {
		t.Errorf("TaskID = %v, manual assignment was erased", a.TaskID)
	}
	if a.TaskConfidence == nil || *a.TaskConfidence != 0.4 {
		t.Errorf("TaskConfidence = %v, want 0.4", a.TaskConfidence)
	}
}

func TestUpsertAssociationSingleRowPerEvent(t *testing.T) {
	store := newTestStore(t)
	projectID, _, eventID := seedProjectTaskEvent(t, store)

	for i := 0; i < 3; i++ {
		err := store.UpsertAssociation(activity.AssociationWrite{
			EventID:   eventID,
			ProjectID: &projectID,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM event_associations WHERE event_id = ?`, eventID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("got %d rows for event, want 1", count)
	}
}

func TestSetAssociationTaskClears(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID, eventID := seedProjectTaskEvent(t, store)

	if err := store.SetAssociationTask(eventID, &taskID, &projectID); err != nil {
		t.Fatal(err)
	}
	// Nil here means "write NULL", unlike UpsertAssociation.
	if err := store.SetAssociationTask(eventID, nil, nil); err != nil {
		t.Fatal(err)
	}

	a, err := store.GetAssociation(eventID)
	if err != nil {
		t.Fatal(err)
	}
	if a.TaskID != nil {
		t.Errorf("TaskID = %v, want cleared", a.TaskID)
	}
	if a.ProjectID == nil || *a.ProjectID != projectID {
		t.Errorf("ProjectID = %v, should survive a task-only clear", a.ProjectID)
	}
	if a.Method != activity.MethodManual {
		t.Errorf("Method = %q, want manual", a.Method)
	}
}

func TestGetAssociationMissingIsNil(t *testing.T) {
	store := newTestStore(t)

	a, err := store.GetAssociation(42)
	if err != nil {
		t.Fatalf("GetAssociation = %v, want nil error", err)
	}
	if a != nil {
		t.Errorf("got %+v, want nil for absent row", a)
	}
}

func TestMarkUsedInSummary(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID, eventID := seedProjectTaskEvent(t, store)

	if err := store.SetAssociationTask(eventID, &taskID, &projectID); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkUsedInSummary(eventID); err != nil {
		t.Fatal(err)
	}

	a, err := store.GetAssociation(eventID)
	if err != nil {
		t.Fatal(err)
	}
	if !a.UsedInSummary {
		t.Error("UsedInSummary not set")
	}

	// Missing rows are a no-op.
	if err := store.MarkUsedInSummary(999); err != nil {
		t.Errorf("MarkUsedInSummary(missing) = %v, want nil", err)
	}
}

func TestListContextsFilters(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID, eventID := seedProjectTaskEvent(t, store)

	// A second event that stays unassociated.
	bareID, err := store.InsertEvent(strPtr("browser"), nil, 2000)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetAssociationTask(eventID, &taskID, &projectID); err != nil {
		t.Fatal(err)
	}

	all, err := store.ListContexts(ContextFilter{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d contexts, want 2", len(all))
	}
	// Most recent span first.
	if all[0].ID != bareID {
		t.Errorf("first context = %d, want latest event %d", all[0].ID, bareID)
	}

	associated, err := store.ListContexts(ContextFilter{Associated: boolPtr(true), Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(associated) != 1 || associated[0].ID != eventID {
		t.Errorf("associated filter = %+v", associated)
	}

	unassociated, err := store.ListContexts(ContextFilter{Associated: boolPtr(false), Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(unassociated) != 1 || unassociated[0].ID != bareID {
		t.Errorf("unassociated filter = %+v", unassociated)
	}

	byProject, err := store.ListContexts(ContextFilter{ProjectID: &projectID, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(byProject) != 1 || byProject[0].ID != eventID {
		t.Errorf("project filter = %+v", byProject)
	}

	byTask, err := store.ListContexts(ContextFilter{TaskID: &taskID, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(byTask) != 1 {
		t.Errorf("task filter = %+v", byTask)
	}

	count, err := store.CountContexts(ContextFilter{Associated: boolPtr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("CountContexts = %d, want 1", count)
	}
}

func TestListContextsUsedInSummaryFilter(t *testing.T) {
	store := newTestStore(t)
	projectID, taskID, eventID := seedProjectTaskEvent(t, store)

	if err := store.SetAssociationTask(eventID, &taskID, &projectID); err != nil {
		t.Fatal(err)
	}
	fresh, err := store.ListContexts(ContextFilter{UsedInSummary: boolPtr(false), Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh) != 1 {
		t.Fatalf("fresh = %+v, want the one unconsumed event", fresh)
	}

	if err := store.MarkUsedInSummary(eventID); err != nil {
		t.Fatal(err)
	}
	used, err := store.ListContexts(ContextFilter{UsedInSummary: boolPtr(true), Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(used) != 1 || used[0].ID != eventID {
		t.Errorf("used filter = %+v", used)
	}
}
