package client

import (
	"context"
	"net/http"

	"hub/internal/models"
	"hub/internal/remote"
)

func (c *Client) ListColumns(ctx context.Context, projectID string) ([]models.KanbanColumn, error) {
	var resp remote.ColumnsResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+escape(projectID)+"/columns", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Columns, nil
}

func (c *Client) InsertColumn(ctx context.Context, col models.KanbanColumn) (models.KanbanColumn, error) {
	var resp remote.ColumnResponse
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+escape(col.ProjectID)+"/columns", col, &resp); err != nil {
		return models.KanbanColumn{}, err
	}
	return resp.Column, nil
}

func (c *Client) UpdateColumn(ctx context.Context, id string, patch models.ColumnPatch) (models.KanbanColumn, error) {
	var resp remote.ColumnResponse
	if err := c.do(ctx, http.MethodPatch, "/api/columns/"+escape(id), patch, &resp); err != nil {
		return models.KanbanColumn{}, err
	}
	return resp.Column, nil
}

func (c *Client) DeleteColumn(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/columns/"+escape(id), nil, nil)
}

func (c *Client) ReorderColumns(ctx context.Context, projectID string, ids []string) error {
	return c.do(ctx, http.MethodPut, "/api/projects/"+escape(projectID)+"/columns/order", remote.ReorderRequest{IDs: ids}, nil)
}

func (c *Client) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	var resp remote.TasksResponse
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+escape(projectID)+"/tasks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *Client) InsertTask(ctx context.Context, t models.Task) (models.Task, error) {
	var resp remote.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/tasks", t, &resp); err != nil {
		return models.Task{}, err
	}
	return resp.Task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	var resp remote.TaskResponse
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+escape(id), patch, &resp); err != nil {
		return models.Task{}, err
	}
	return resp.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+escape(id), nil, nil)
}

func (c *Client) MoveTask(ctx context.Context, id, columnID string, orderIndex int) (models.Task, error) {
	var resp remote.TaskResponse
	req := remote.MoveTaskRequest{ColumnID: columnID, OrderIndex: orderIndex}
	if err := c.do(ctx, http.MethodPost, "/api/tasks/"+escape(id)+"/move", req, &resp); err != nil {
		return models.Task{}, err
	}
	return resp.Task, nil
}

// ReorderTasks uses the server's single-transaction reorder.
func (c *Client) ReorderTasks(ctx context.Context, columnID string, ids []string) error {
	return c.do(ctx, http.MethodPut, "/api/columns/"+escape(columnID)+"/tasks/order", remote.ReorderRequest{IDs: ids}, nil)
}
