// Package ops implements the operation layer shared by the CLI, web and
// MCP faces: input validation, defaults, and store orchestration.
package ops

import (
	"strings"

	"github.com/hpungsan/trail/internal/db"
	"github.com/hpungsan/trail/internal/errors"
	"github.com/hpungsan/trail/internal/project"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// ProjectCreateInput contains parameters for CreateProject.
type ProjectCreateInput struct {
	Name string  // required
	Goal *string // optional
}

// ProjectOutput is the external shape of a project.
type ProjectOutput struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Goal      *string `json:"goal,omitempty"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}

// CreateProject creates a project.
func CreateProject(store *db.Store, input ProjectCreateInput) (*ProjectOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}

	id, err := store.InsertProject(name, cleanOptionalString(input.Goal))
	if err != nil {
		return nil, err
	}
	p, err := store.GetProject(id)
	if err != nil {
		return nil, err
	}
	out := projectOutput(*p)
	return &out, nil
}

// ProjectListInput contains parameters for ListProjects.
type ProjectListInput struct {
	Limit  int // default defaultListLimit, capped at maxListLimit
	Offset int
}

// ProjectListOutput contains the result of ListProjects.
type ProjectListOutput struct {
	Projects []ProjectOutput `json:"projects"`
	Total    int             `json:"total"`
}

// ListProjects returns projects in creation order.
func ListProjects(store *db.Store, input ProjectListInput) (*ProjectListOutput, error) {
	limit, offset := clampList(input.Limit, input.Offset)

	projects, err := store.ListProjects(limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := store.CountProjects()
	if err != nil {
		return nil, err
	}

	out := &ProjectListOutput{Projects: []ProjectOutput{}, Total: total}
	for _, p := range projects {
		out.Projects = append(out.Projects, projectOutput(p))
	}
	return out, nil
}

// GetProject returns one project by id.
func GetProject(store *db.Store, projectID int64) (*ProjectOutput, error) {
	p, err := store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	out := projectOutput(*p)
	return &out, nil
}

// ProjectUpdateInput contains parameters for UpdateProject. Nil fields are
// left untouched.
type ProjectUpdateInput struct {
	Name *string
	Goal *string
}

// UpdateProject updates a project's name and/or goal.
func UpdateProject(store *db.Store, projectID int64, input ProjectUpdateInput) (*ProjectOutput, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, errors.NewInvalidRequest("name must not be empty")
	}
	if err := store.UpdateProject(projectID, input.Name, input.Goal); err != nil {
		return nil, err
	}
	return GetProject(store, projectID)
}

// DeleteProject removes a project. Fails with a conflict while tasks still
// reference it.
func DeleteProject(store *db.Store, projectID int64) error {
	return store.DeleteProject(projectID)
}

func projectOutput(p project.Project) ProjectOutput {
	return ProjectOutput{
		ID:        p.ID,
		Name:      p.Name,
		Goal:      p.Goal,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// clampList applies the list limit default and cap.
func clampList(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// cleanOptionalString trims an optional string and drops it if empty.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
