package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/trail/internal/config"
	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/errors"
	"github.com/hpungsan/trail/internal/llm"
	"github.com/hpungsan/trail/internal/mapper"
	"github.com/hpungsan/trail/internal/mcp"
	"github.com/hpungsan/trail/internal/ops"
	"github.com/hpungsan/trail/internal/scheduler"
	"github.com/hpungsan/trail/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store *db.Store, cfg *config.Config, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "trail",
		Usage:   "Personal activity tracker",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(store, cfg, baseDir),
			mcpCmd(store, cfg),
			statusCmd(store),
			projectCmd(store),
			taskCmd(store),
			contextsCmd(store),
			associateCmd(store),
			cleanupCmd(store, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd runs the background engine, the cleanup job and the web API
// until interrupted.
func serveCmd(store *db.Store, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the association engine, cleanup job and web API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind the web API to"},
			&cli.IntFlag{Name: "port", Value: 8210, Usage: "Port for the web API"},
		},
		Action: func(c *cli.Context) error {
			provider := config.NewProvider(cfg, config.Path(baseDir))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go func() {
				if err := provider.Watch(ctx); err != nil {
					log.Printf("[config] watch unavailable: %v", err)
				}
			}()

			runner := scheduler.New()
			statsFn := func() mapper.Stats { return mapper.Stats{} }

			client, err := llm.NewOpenAIClient(cfg.LLM)
			if err != nil {
				log.Printf("[serve] association engine not started: %v", err)
			} else {
				engine := mapper.New(store, client, provider, mapper.WithUsageRecorder(store))
				statsFn = engine.Stats
				runner.Add("mapper",
					func() time.Duration {
						return time.Duration(provider.Snapshot().Mapper.CheckIntervalSeconds) * time.Second
					},
					func(ctx context.Context) error {
						_, err := engine.RunCycle(ctx)
						return err
					})
			}

			runner.Add("cleanup",
				func() time.Duration {
					return time.Duration(provider.Snapshot().Cleanup.IntervalSeconds) * time.Second
				},
				func(ctx context.Context) error {
					snap := provider.Snapshot().Cleanup
					if !snap.Enabled {
						return nil
					}
					out, err := ops.Cleanup(store, ops.CleanupInput{
						MaxScreenshots: snap.MaxScreenshots,
						DeleteFileOnly: snap.DeleteFileOnly,
					})
					if err != nil {
						return err
					}
					if out.FilesDeleted > 0 || out.RowsDeleted > 0 {
						log.Printf("[cleanup] removed %d file(s), %d row(s)", out.FilesDeleted, out.RowsDeleted)
					}
					return nil
				})

			runner.Start(ctx)
			defer runner.Stop()

			srv := web.NewServer(store, statsFn, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// mcpCmd runs the MCP stdio server.
func mcpCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown disabled tools: %v", unknown)))
			}
			return mcp.Run(store, cfg, nil, Version)
		},
	}
}

// statusCmd prints store counts and usage totals.
func statusCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show store counts and LLM usage",
		Action: func(c *cli.Context) error {
			out, err := ops.Stats(store, mapper.Stats{})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// projectCmd groups project subcommands.
func projectCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Manage projects",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a project",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Project name"},
					&cli.StringFlag{Name: "goal", Aliases: []string{"g"}, Usage: "Project goal"},
				},
				Action: func(c *cli.Context) error {
					input := ops.ProjectCreateInput{Name: c.String("name")}
					if goal := c.String("goal"); goal != "" {
						input.Goal = &goal
					}
					out, err := ops.CreateProject(store, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(out)
				},
			},
			{
				Name:  "list",
				Usage: "List projects",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of projects"},
					&cli.IntFlag{Name: "offset", Usage: "Number of projects to skip"},
				},
				Action: func(c *cli.Context) error {
					out, err := ops.ListProjects(store, ops.ProjectListInput{
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(out)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a project",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return outputError(err)
					}
					if err := ops.DeleteProject(store, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": id})
				},
			},
		},
	}
}

// taskCmd groups task subcommands.
func taskCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "Manage tasks",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a task",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "project", Aliases: []string{"p"}, Required: true, Usage: "Project ID"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Task name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Task description (markdown)"},
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Status: pending|in_progress|done"},
					&cli.Int64Flag{Name: "parent", Usage: "Parent task ID"},
				},
				Action: func(c *cli.Context) error {
					input := ops.TaskCreateInput{
						ProjectID: c.Int64("project"),
						Name:      c.String("name"),
						Status:    c.String("status"),
					}
					if desc := c.String("description"); desc != "" {
						input.Description = &desc
					}
					if parent := c.Int64("parent"); parent != 0 {
						input.ParentTaskID = &parent
					}
					out, err := ops.CreateTask(store, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(out)
				},
			},
			{
				Name:  "list",
				Usage: "List a project's tasks",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "project", Aliases: []string{"p"}, Required: true, Usage: "Project ID"},
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Filter by status"},
				},
				Action: func(c *cli.Context) error {
					out, err := ops.ListTasks(store, ops.TaskListInput{
						ProjectID: c.Int64("project"),
						Status:    c.String("status"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(out)
				},
			},
			{
				Name:      "update",
				Usage:     "Update a task",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
					&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "New status"},
				},
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return outputError(err)
					}
					var input ops.TaskUpdateInput
					if c.IsSet("name") {
						name := c.String("name")
						input.Name = &name
					}
					if c.IsSet("description") {
						desc := c.String("description")
						input.Description = &desc
					}
					if c.IsSet("status") {
						status := c.String("status")
						input.Status = &status
					}
					out, err := ops.UpdateTask(store, id, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(out)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a task and its subtree",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := argID(c)
					if err != nil {
						return outputError(err)
					}
					if err := ops.DeleteTask(store, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": id})
				},
			},
		},
	}
}

// contextsCmd lists events with their associations.
func contextsCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "contexts",
		Usage: "List activity events with their associations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "associated", Usage: "Only events with an assigned task"},
			&cli.BoolFlag{Name: "unassociated", Usage: "Only events without an assigned task"},
			&cli.Int64Flag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project ID"},
			&cli.Int64Flag{Name: "task", Aliases: []string{"t"}, Usage: "Filter by task ID"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of events"},
			&cli.IntFlag{Name: "offset", Usage: "Number of events to skip"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ContextListInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			}
			if c.Bool("associated") {
				v := true
				input.Associated = &v
			}
			if c.Bool("unassociated") {
				v := false
				input.Associated = &v
			}
			if id := c.Int64("project"); id != 0 {
				input.ProjectID = &id
			}
			if id := c.Int64("task"); id != 0 {
				input.TaskID = &id
			}
			out, err := ops.ListContexts(store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// associateCmd manually assigns an event to a task.
func associateCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "associate",
		Usage: "Manually assign an event to a task",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "event", Aliases: []string{"e"}, Required: true, Usage: "Event ID"},
			&cli.Int64Flag{Name: "task", Aliases: []string{"t"}, Usage: "Task ID"},
			&cli.BoolFlag{Name: "clear", Usage: "Clear the current assignment"},
		},
		Action: func(c *cli.Context) error {
			input := ops.AssociateInput{EventID: c.Int64("event")}
			if !c.Bool("clear") {
				if !c.IsSet("task") {
					return outputError(errors.NewInvalidRequest("either --task or --clear is required"))
				}
				taskID := c.Int64("task")
				input.TaskID = &taskID
			}
			out, err := ops.Associate(store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// cleanupCmd runs one screenshot retention pass.
func cleanupCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Enforce the screenshot retention cap once",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max", Value: -1, Usage: "Retention cap (default: from config)"},
			&cli.BoolFlag{Name: "file-only", Usage: "Delete files but keep rows and OCR text"},
		},
		Action: func(c *cli.Context) error {
			input := ops.CleanupInput{
				MaxScreenshots: cfg.Cleanup.MaxScreenshots,
				DeleteFileOnly: cfg.Cleanup.DeleteFileOnly,
			}
			if c.Int("max") >= 0 {
				input.MaxScreenshots = c.Int("max")
			}
			if c.IsSet("file-only") {
				input.DeleteFileOnly = c.Bool("file-only")
			}
			out, err := ops.Cleanup(store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// argID parses the single positional ID argument.
func argID(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, errors.NewInvalidRequest("expected exactly one <id> argument")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("id must be a positive integer")
	}
	return id, nil
}

// outputJSON outputs data as indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if tErr, ok := err.(*errors.TrailError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
