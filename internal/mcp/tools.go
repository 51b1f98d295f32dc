package mcp

import "github.com/mark3labs/mcp-go/mcp"

var contextListToolDef = mcp.NewTool("context_list",
	mcp.WithDescription("List captured activity events with their project/task associations, newest first."),
	mcp.WithBoolean("associated", mcp.Description("Only events with (true) or without (false) an assigned task")),
	mcp.WithBoolean("attempted", mcp.Description("Only events whose auto-association was (true) or was not (false) attempted")),
	mcp.WithBoolean("used_in_summary", mcp.Description("Only events already (true) or not yet (false) consumed by a summary")),
	mcp.WithNumber("project_id", mcp.Description("Only events associated with this project")),
	mcp.WithNumber("task_id", mcp.Description("Only events associated with this task")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of events to return (default 100, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Number of events to skip")),
)

var contextGetToolDef = mcp.NewTool("context_get",
	mcp.WithDescription("Get one activity event with its full association record, including confidences and reasoning."),
	mcp.WithNumber("event_id", mcp.Required(), mcp.Description("Event ID")),
)

var contextAssociateToolDef = mcp.NewTool("context_associate",
	mcp.WithDescription("Manually assign an event to a task (the project is derived from the task), or clear the assignment by omitting task_id."),
	mcp.WithNumber("event_id", mcp.Required(), mcp.Description("Event ID")),
	mcp.WithNumber("task_id", mcp.Description("Task ID to assign; omit to clear the current assignment")),
)

var projectListToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List projects in creation order."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of projects to return (default 100, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Number of projects to skip")),
)

var taskListToolDef = mcp.NewTool("task_list",
	mcp.WithDescription("List a project's tasks, optionally filtered by status."),
	mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Project ID")),
	mcp.WithString("status", mcp.Description("Filter by status: pending, in_progress, or done")),
)

var mapperStatsToolDef = mcp.NewTool("mapper_stats",
	mcp.WithDescription("Get store counts, lifetime association-engine counters, and LLM token usage."),
)
