package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/buker/brdesk/internal/stream"
)

// ErrProjectNotFound is returned when a project id does not exist.
var ErrProjectNotFound = errors.New("project not found")

// Project is a BRD project.
type Project struct {
	ID                 string `json:"project_id"`
	Name               string `json:"project_name"`
	Description        string `json:"description"`
	JiraProjectKey     string `json:"jira_project_key,omitempty"`
	ConfluenceSpaceKey string `json:"confluence_space_key,omitempty"`
	CreatedAt          string `json:"created_at"`
}

// CreateProjectRequest is the body for creating a project.
type CreateProjectRequest struct {
	Name               string `json:"project_name"`
	Description        string `json:"description"`
	JiraProjectKey     string `json:"jira_project_key"`
	ConfluenceSpaceKey string `json:"confluence_space_key"`
}

// Validate checks the fields the service requires.
func (r CreateProjectRequest) Validate() error {
	if r.Name == "" {
		return errors.New("project name is required")
	}
	return nil
}

// Template is a BRD template stored by the service.
type Template struct {
	ID        string `json:"template_id"`
	Name      string `json:"template_name"`
	S3Path    string `json:"s3_path"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// listEnvelope is the {data: [...]} wrapper used by list endpoints.
type listEnvelope[T any] struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       []T    `json:"data"`
	TotalCount int    `json:"total_count"`
}

// ListProjects returns all projects.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var env listEnvelope[Project]
	if err := c.getJSON(ctx, "/projects/", nil, &env); err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	return env.Data, nil
}

// GetProject returns one project. A 404 is reported as ErrProjectNotFound.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := c.getJSON(ctx, "/projects/"+url.PathEscape(id), nil, &p)
	var remote *stream.RemoteError
	if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return &p, nil
}

// CreateProject creates a project and returns it as stored.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var p Project
	if err := c.postJSON(ctx, "/projects/", req, &p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &p, nil
}

// ListTemplates returns the available BRD templates.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var env listEnvelope[Template]
	if err := c.getJSON(ctx, "/templates/", nil, &env); err != nil {
		return nil, fmt.Errorf("failed to fetch BRD templates: %w", err)
	}
	return env.Data, nil
}
