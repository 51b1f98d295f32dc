// Package mcp exposes the activity store to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/trail/internal/config"
	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/mapper"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"context_list": {
		def:     contextListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextList },
	},
	"context_get": {
		def:     contextGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextGet },
	},
	"context_associate": {
		def:     contextAssociateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContextAssociate },
	},
	"project_list": {
		def:     projectListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectList },
	},
	"task_list": {
		def:     taskListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTaskList },
	},
	"mapper_stats": {
		def:     mapperStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMapperStats },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with trail tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(store *db.Store, cfg *config.Config, statsFn func() mapper.Stats, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"trail",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(store, statsFn)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(store *db.Store, cfg *config.Config, statsFn func() mapper.Stats, version string) error {
	return server.ServeStdio(NewServer(store, cfg, statsFn, version))
}
