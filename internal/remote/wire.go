package remote

import "hub/internal/models"

// Request bodies and response envelopes of the HTTP API.

type CreateProjectRequest struct {
	UserID string `json:"user_id" binding:"required"`
	models.ProjectDraft
}

type ReorderRequest struct {
	IDs []string `json:"ids"`
}

type MoveTaskRequest struct {
	ColumnID   string `json:"column_id" binding:"required"`
	OrderIndex int    `json:"order_index" binding:"gte=0"`
}

type WaitlistRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type UserResponse struct {
	User models.User `json:"user"`
}

type StatusResponse struct {
	Status models.ProjectStatus `json:"status"`
}

type StatusesResponse struct {
	Statuses []models.ProjectStatus `json:"statuses"`
}

type ProjectResponse struct {
	Project models.Project `json:"project"`
}

type ProjectsResponse struct {
	Projects []models.Project `json:"projects"`
}

type ColumnResponse struct {
	Column models.KanbanColumn `json:"column"`
}

type ColumnsResponse struct {
	Columns []models.KanbanColumn `json:"columns"`
}

type TaskResponse struct {
	Task models.Task `json:"task"`
}

type TasksResponse struct {
	Tasks []models.Task `json:"tasks"`
}

type WaitlistResponse struct {
	Entry models.WaitlistEntry `json:"entry"`
}
