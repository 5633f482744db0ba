package client

import (
	"context"
	"net/http"
	"net/url"

	"hub/internal/models"
	"hub/internal/remote"
)

func (c *Client) ListActiveProjects(ctx context.Context, userID string) ([]models.Project, error) {
	var resp remote.ProjectsResponse
	path := "/api/projects?" + url.Values{"user_id": {userID}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

func (c *Client) ListProjectStatuses(ctx context.Context) ([]models.ProjectStatus, error) {
	var resp remote.StatusesResponse
	if err := c.do(ctx, http.MethodGet, "/api/statuses", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Statuses, nil
}

func (c *Client) FirstProjectStatus(ctx context.Context) (models.ProjectStatus, error) {
	var resp remote.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/statuses/first", nil, &resp); err != nil {
		return models.ProjectStatus{}, err
	}
	return resp.Status, nil
}

func (c *Client) InsertProject(ctx context.Context, userID string, draft models.ProjectDraft) (models.Project, error) {
	var resp remote.ProjectResponse
	req := remote.CreateProjectRequest{UserID: userID, ProjectDraft: draft}
	if err := c.do(ctx, http.MethodPost, "/api/projects", req, &resp); err != nil {
		return models.Project{}, err
	}
	return resp.Project, nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
	var resp remote.ProjectResponse
	if err := c.do(ctx, http.MethodPatch, "/api/projects/"+escape(id), patch, &resp); err != nil {
		return models.Project{}, err
	}
	return resp.Project, nil
}

func (c *Client) SoftDeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+escape(id), nil, nil)
}
