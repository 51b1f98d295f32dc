package ops

import (
	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/mapper"
	"github.com/hpungsan/trail/internal/project"
)

// UsageOutput is token usage aggregated per operation.
type UsageOutput struct {
	Operation    string `json:"operation"`
	Calls        int64  `json:"calls"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// StatsOutput is the combined health/status view: store counts, lifetime
// mapper counters, and LLM token usage.
type StatsOutput struct {
	Events          int           `json:"events"`
	Screenshots     int           `json:"screenshots"`
	Projects        int           `json:"projects"`
	Tasks           int           `json:"tasks"`
	TasksInProgress int           `json:"tasks_in_progress"`
	Mapper          mapper.Stats  `json:"mapper"`
	Usage           []UsageOutput `json:"usage"`
}

// Stats assembles the status view. mapperStats comes from the running
// engine; callers without one pass the zero value.
func Stats(store *db.Store, mapperStats mapper.Stats) (*StatsOutput, error) {
	events, err := store.CountEvents()
	if err != nil {
		return nil, err
	}
	screenshots, err := store.CountScreenshots()
	if err != nil {
		return nil, err
	}
	projects, err := store.CountProjects()
	if err != nil {
		return nil, err
	}
	tasks, err := store.CountTasks("")
	if err != nil {
		return nil, err
	}
	inProgress, err := store.CountTasks(project.StatusInProgress)
	if err != nil {
		return nil, err
	}
	totals, err := store.UsageTotals()
	if err != nil {
		return nil, err
	}

	usage := []UsageOutput{}
	for _, u := range totals {
		usage = append(usage, UsageOutput{
			Operation:    u.Operation,
			Calls:        int64(u.Calls),
			InputTokens:  u.InputTokens,
			OutputTokens: u.OutputTokens,
		})
	}

	return &StatsOutput{
		Events:          events,
		Screenshots:     screenshots,
		Projects:        projects,
		Tasks:           tasks,
		TasksInProgress: inProgress,
		Mapper:          mapperStats,
		Usage:           usage,
	}, nil
}
