// Package remote declares the persistence contract shared by the sqlite
// store, the redis read cache, the HTTP API and its client. The
// reconciliation stores depend on these interfaces only.
package remote

import (
	"context"

	"hub/internal/models"
)

// Projects is the project half of the data service.
type Projects interface {
	ListActiveProjects(ctx context.Context, userID string) ([]models.Project, error)
	FirstProjectStatus(ctx context.Context) (models.ProjectStatus, error)
	InsertProject(ctx context.Context, userID string, draft models.ProjectDraft) (models.Project, error)
	UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error)
	SoftDeleteProject(ctx context.Context, id string) error
}

// Board is the column and task half of the data service.
type Board interface {
	ListColumns(ctx context.Context, projectID string) ([]models.KanbanColumn, error)
	InsertColumn(ctx context.Context, c models.KanbanColumn) (models.KanbanColumn, error)
	UpdateColumn(ctx context.Context, id string, patch models.ColumnPatch) (models.KanbanColumn, error)
	DeleteColumn(ctx context.Context, id string) error
	ReorderColumns(ctx context.Context, projectID string, ids []string) error

	ListTasks(ctx context.Context, projectID string) ([]models.Task, error)
	InsertTask(ctx context.Context, t models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	MoveTask(ctx context.Context, id, columnID string, orderIndex int) (models.Task, error)
}

// TaskReorderer is implemented by backends that can reorder a column's
// tasks atomically.
type TaskReorderer interface {
	ReorderTasks(ctx context.Context, columnID string, ids []string) error
}

// Users exposes the single-user lookup.
type Users interface {
	FirstUser(ctx context.Context) (models.User, error)
}

// Service is the full data service served over HTTP.
type Service interface {
	Projects
	Board
	TaskReorderer
	Users
	ListProjectStatuses(ctx context.Context) ([]models.ProjectStatus, error)
	JoinWaitlist(ctx context.Context, email string) (models.WaitlistEntry, error)
	Ping(ctx context.Context) error
}
