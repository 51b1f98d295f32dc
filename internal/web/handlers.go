package web

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/errors"
	"github.com/hpungsan/trail/internal/mapper"
	"github.com/hpungsan/trail/internal/ops"
)

// maxBodyBytes bounds request bodies; nothing here legitimately needs more.
const maxBodyBytes = 1 << 20

// Handlers holds dependencies for the HTTP handlers.
type Handlers struct {
	store   *db.Store
	statsFn func() mapper.Stats
}

// --- projects ---

func (h *Handlers) HandleProjectList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.ListProjects(h.store, ops.ProjectListInput{
		Limit:  queryInt(q.Get("limit")),
		Offset: queryInt(q.Get("offset")),
	})
	respond(w, out, err)
}

func (h *Handlers) HandleProjectCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string  `json:"name"`
		Goal *string `json:"goal"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	out, err := ops.CreateProject(h.store, ops.ProjectCreateInput{Name: body.Name, Goal: body.Goal})
	respondCreated(w, out, err)
}

func (h *Handlers) HandleProjectGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := ops.GetProject(h.store, id)
	respond(w, out, err)
}

func (h *Handlers) HandleProjectUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Name *string `json:"name"`
		Goal *string `json:"goal"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	out, err := ops.UpdateProject(h.store, id, ops.ProjectUpdateInput{Name: body.Name, Goal: body.Goal})
	respond(w, out, err)
}

func (h *Handlers) HandleProjectDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := ops.DeleteProject(h.store, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- tasks ---

func (h *Handlers) HandleTaskList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := ops.ListTasks(h.store, ops.TaskListInput{
		ProjectID: id,
		Status:    r.URL.Query().Get("status"),
	})
	respond(w, out, err)
}

func (h *Handlers) HandleTaskCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Name         string  `json:"name"`
		Description  *string `json:"description"`
		Status       string  `json:"status"`
		ParentTaskID *int64  `json:"parent_task_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	out, err := ops.CreateTask(h.store, ops.TaskCreateInput{
		ProjectID:    id,
		Name:         body.Name,
		Description:  body.Description,
		Status:       body.Status,
		ParentTaskID: body.ParentTaskID,
	})
	respondCreated(w, out, err)
}

func (h *Handlers) HandleTaskGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := ops.GetTask(h.store, id)
	respond(w, out, err)
}

func (h *Handlers) HandleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	out, err := ops.UpdateTask(h.store, id, ops.TaskUpdateInput{
		Name:        body.Name,
		Description: body.Description,
		Status:      body.Status,
	})
	respond(w, out, err)
}

func (h *Handlers) HandleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := ops.DeleteTask(h.store, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleTaskChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := ops.TaskChildren(h.store, id)
	respond(w, out, err)
}

// --- contexts ---

func (h *Handlers) HandleContextList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ContextListInput{
		Associated:       queryBool(q.Get("associated")),
		MappingAttempted: queryBool(q.Get("attempted")),
		UsedInSummary:    queryBool(q.Get("used_in_summary")),
		Limit:            queryInt(q.Get("limit")),
		Offset:           queryInt(q.Get("offset")),
	}
	if v := q.Get("project_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, errors.NewInvalidRequest("project_id must be an integer"))
			return
		}
		input.ProjectID = &id
	}
	if v := q.Get("task_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, errors.NewInvalidRequest("task_id must be an integer"))
			return
		}
		input.TaskID = &id
	}
	out, err := ops.ListContexts(h.store, input)
	respond(w, out, err)
}

func (h *Handlers) HandleContextGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := ops.GetContext(h.store, id)
	respond(w, out, err)
}

func (h *Handlers) HandleAssociate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		TaskID *int64 `json:"task_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	out, err := ops.Associate(h.store, ops.AssociateInput{EventID: id, TaskID: body.TaskID})
	respond(w, out, err)
}

func (h *Handlers) HandleMarkUsed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := ops.MarkUsedInSummary(h.store, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- stats ---

func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Stats(h.store, h.statsFn())
	respond(w, out, err)
}

// --- helpers ---

// pathID parses the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, errors.NewInvalidRequest("id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// decodeBody parses a JSON request body. A missing body decodes as all
// zero values, which the ops validation then rejects where required.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && err != io.EOF {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return false
	}
	return true
}

func queryInt(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

func queryBool(v string) *bool {
	switch v {
	case "true", "1":
		b := true
		return &b
	case "false", "0":
		b := false
		return &b
	}
	return nil
}

func respond(w http.ResponseWriter, out any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func respondCreated(w http.ResponseWriter, out any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[web] encode response: %v", err)
	}
}

// writeError maps a TrailError to its HTTP status; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(errors.ErrInternal)
	msg := "internal error"

	if tErr, ok := err.(*errors.TrailError); ok {
		status = tErr.Status
		code = string(tErr.Code)
		msg = tErr.Message
	} else {
		log.Printf("[web] internal error: %v", err)
	}

	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}
