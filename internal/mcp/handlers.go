package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/errors"
	"github.com/hpungsan/trail/internal/mapper"
	"github.com/hpungsan/trail/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store   *db.Store
	statsFn func() mapper.Stats
}

// NewHandlers creates a new Handlers instance. statsFn supplies the running
// engine's counters; nil means no engine is running in this process.
func NewHandlers(store *db.Store, statsFn func() mapper.Stats) *Handlers {
	if statsFn == nil {
		statsFn = func() mapper.Stats { return mapper.Stats{} }
	}
	return &Handlers{store: store, statsFn: statsFn}
}

// Request types for each tool

// ContextListRequest represents the arguments for context_list.
type ContextListRequest struct {
	Associated    *bool  `json:"associated,omitempty"`
	Attempted     *bool  `json:"attempted,omitempty"`
	UsedInSummary *bool  `json:"used_in_summary,omitempty"`
	ProjectID     *int64 `json:"project_id,omitempty"`
	TaskID        *int64 `json:"task_id,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// ContextGetRequest represents the arguments for context_get.
type ContextGetRequest struct {
	EventID int64 `json:"event_id"`
}

// ContextAssociateRequest represents the arguments for context_associate.
type ContextAssociateRequest struct {
	EventID int64  `json:"event_id"`
	TaskID  *int64 `json:"task_id,omitempty"`
}

// ProjectListRequest represents the arguments for project_list.
type ProjectListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// TaskListRequest represents the arguments for task_list.
type TaskListRequest struct {
	ProjectID int64  `json:"project_id"`
	Status    string `json:"status,omitempty"`
}

// HandleContextList handles the context_list tool.
func (h *Handlers) HandleContextList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[ContextListRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListContexts(h.store, ops.ContextListInput{
		Associated:       req.Associated,
		MappingAttempted: req.Attempted,
		UsedInSummary:    req.UsedInSummary,
		ProjectID:        req.ProjectID,
		TaskID:           req.TaskID,
		Limit:            req.Limit,
		Offset:           req.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleContextGet handles the context_get tool.
func (h *Handlers) HandleContextGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[ContextGetRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if req.EventID <= 0 {
		return errorResult(errors.NewInvalidRequest("event_id is required")), nil
	}

	result, err := ops.GetContext(h.store, req.EventID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleContextAssociate handles the context_associate tool.
func (h *Handlers) HandleContextAssociate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[ContextAssociateRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if req.EventID <= 0 {
		return errorResult(errors.NewInvalidRequest("event_id is required")), nil
	}

	result, err := ops.Associate(h.store, ops.AssociateInput{EventID: req.EventID, TaskID: req.TaskID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleProjectList handles the project_list tool.
func (h *Handlers) HandleProjectList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[ProjectListRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListProjects(h.store, ops.ProjectListInput{Limit: req.Limit, Offset: req.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTaskList handles the task_list tool.
func (h *Handlers) HandleTaskList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := decode[TaskListRequest](request)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if req.ProjectID <= 0 {
		return errorResult(errors.NewInvalidRequest("project_id is required")), nil
	}

	result, err := ops.ListTasks(h.store, ops.TaskListInput{ProjectID: req.ProjectID, Status: req.Status})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleMapperStats handles the mapper_stats tool.
func (h *Handlers) HandleMapperStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Stats(h.store, h.statsFn())
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// decode unmarshals MCP request arguments into a typed struct.
// Avoids unsafe type assertions and handles JSON decoding safely.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	args := req.GetArguments()
	b, err := json.Marshal(args)
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// errorResult creates an MCP error result with a structured payload.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if tErr, ok := err.(*errors.TrailError); ok {
		errorObj := map[string]any{
			"code":    tErr.Code,
			"message": tErr.Message,
			"status":  tErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if tErr.Code != errors.ErrInternal && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
