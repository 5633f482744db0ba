package store

import (
	"context"
	"errors"
	"sync/atomic"

	"hub/internal/models"
)

var errBoom = errors.New("boom")

// fakeRemote implements remote.Projects, remote.Board and remote.Users with
// overridable function fields. Unset fields fail loudly.
type fakeRemote struct {
	calls atomic.Int64

	firstUserFn      func(ctx context.Context) (models.User, error)
	listProjectsFn   func(ctx context.Context, userID string) ([]models.Project, error)
	firstStatusFn    func(ctx context.Context) (models.ProjectStatus, error)
	insertProjectFn  func(ctx context.Context, userID string, draft models.ProjectDraft) (models.Project, error)
	updateProjectFn  func(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error)
	deleteProjectFn  func(ctx context.Context, id string) error
	listColumnsFn    func(ctx context.Context, projectID string) ([]models.KanbanColumn, error)
	insertColumnFn   func(ctx context.Context, c models.KanbanColumn) (models.KanbanColumn, error)
	updateColumnFn   func(ctx context.Context, id string, patch models.ColumnPatch) (models.KanbanColumn, error)
	deleteColumnFn   func(ctx context.Context, id string) error
	reorderColumnsFn func(ctx context.Context, projectID string, ids []string) error
	listTasksFn      func(ctx context.Context, projectID string) ([]models.Task, error)
	insertTaskFn     func(ctx context.Context, t models.Task) (models.Task, error)
	updateTaskFn     func(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)
	deleteTaskFn     func(ctx context.Context, id string) error
	moveTaskFn       func(ctx context.Context, id, columnID string, orderIndex int) (models.Task, error)
}

func unexpected(name string) error {
	return errors.New("unexpected call to " + name)
}

func (f *fakeRemote) FirstUser(ctx context.Context) (models.User, error) {
	f.calls.Add(1)
	if f.firstUserFn == nil {
		return models.User{}, unexpected("FirstUser")
	}
	return f.firstUserFn(ctx)
}

func (f *fakeRemote) ListActiveProjects(ctx context.Context, userID string) ([]models.Project, error) {
	f.calls.Add(1)
	if f.listProjectsFn == nil {
		return nil, unexpected("ListActiveProjects")
	}
	return f.listProjectsFn(ctx, userID)
}

func (f *fakeRemote) FirstProjectStatus(ctx context.Context) (models.ProjectStatus, error) {
	f.calls.Add(1)
	if f.firstStatusFn == nil {
		return models.ProjectStatus{}, unexpected("FirstProjectStatus")
	}
	return f.firstStatusFn(ctx)
}

func (f *fakeRemote) InsertProject(ctx context.Context, userID string, draft models.ProjectDraft) (models.Project, error) {
	f.calls.Add(1)
	if f.insertProjectFn == nil {
		return models.Project{}, unexpected("InsertProject")
	}
	return f.insertProjectFn(ctx, userID, draft)
}

func (f *fakeRemote) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
	f.calls.Add(1)
	if f.updateProjectFn == nil {
		return models.Project{}, unexpected("UpdateProject")
	}
	return f.updateProjectFn(ctx, id, patch)
}

func (f *fakeRemote) SoftDeleteProject(ctx context.Context, id string) error {
	f.calls.Add(1)
	if f.deleteProjectFn == nil {
		return unexpected("SoftDeleteProject")
	}
	return f.deleteProjectFn(ctx, id)
}

func (f *fakeRemote) ListColumns(ctx context.Context, projectID string) ([]models.KanbanColumn, error) {
	f.calls.Add(1)
	if f.listColumnsFn == nil {
		return nil, unexpected("ListColumns")
	}
	return f.listColumnsFn(ctx, projectID)
}

func (f *fakeRemote) InsertColumn(ctx context.Context, c models.KanbanColumn) (models.KanbanColumn, error) {
	f.calls.Add(1)
	if f.insertColumnFn == nil {
		return models.KanbanColumn{}, unexpected("InsertColumn")
	}
	return f.insertColumnFn(ctx, c)
}

func (f *fakeRemote) UpdateColumn(ctx context.Context, id string, patch models.ColumnPatch) (models.KanbanColumn, error) {
	f.calls.Add(1)
	if f.updateColumnFn == nil {
		return models.KanbanColumn{}, unexpected("UpdateColumn")
	}
	return f.updateColumnFn(ctx, id, patch)
}

func (f *fakeRemote) DeleteColumn(ctx context.Context, id string) error {
	f.calls.Add(1)
	if f.deleteColumnFn == nil {
		return unexpected("DeleteColumn")
	}
	return f.deleteColumnFn(ctx, id)
}

func (f *fakeRemote) ReorderColumns(ctx context.Context, projectID string, ids []string) error {
	f.calls.Add(1)
	if f.reorderColumnsFn == nil {
		return unexpected("ReorderColumns")
	}
	return f.reorderColumnsFn(ctx, projectID, ids)
}

func (f *fakeRemote) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	f.calls.Add(1)
	if f.listTasksFn == nil {
		return nil, unexpected("ListTasks")
	}
	return f.listTasksFn(ctx, projectID)
}

func (f *fakeRemote) InsertTask(ctx context.Context, t models.Task) (models.Task, error) {
	f.calls.Add(1)
	if f.insertTaskFn == nil {
		return models.Task{}, unexpected("InsertTask")
	}
	return f.insertTaskFn(ctx, t)
}

func (f *fakeRemote) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	f.calls.Add(1)
	if f.updateTaskFn == nil {
		return models.Task{}, unexpected("UpdateTask")
	}
	return f.updateTaskFn(ctx, id, patch)
}

func (f *fakeRemote) DeleteTask(ctx context.Context, id string) error {
	f.calls.Add(1)
	if f.deleteTaskFn == nil {
		return unexpected("DeleteTask")
	}
	return f.deleteTaskFn(ctx, id)
}

func (f *fakeRemote) MoveTask(ctx context.Context, id, columnID string, orderIndex int) (models.Task, error) {
	f.calls.Add(1)
	if f.moveTaskFn == nil {
		return models.Task{}, unexpected("MoveTask")
	}
	return f.moveTaskFn(ctx, id, columnID, orderIndex)
}

// bulkRemote adds an atomic task reorder to fakeRemote.
type bulkRemote struct {
	*fakeRemote
	reorderTasksFn func(ctx context.Context, columnID string, ids []string) error
}

func (b *bulkRemote) ReorderTasks(ctx context.Context, columnID string, ids []string) error {
	b.calls.Add(1)
	return b.reorderTasksFn(ctx, columnID, ids)
}

// staticUser is a UserSource with a fixed answer.
type staticUser struct {
	user *models.User
}

func (s staticUser) User() (models.User, bool) {
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func projectIDs(ps []models.Project) []string {
	return ids(ps, func(p models.Project) string { return p.ID })
}

func taskIDs(ts []models.Task) []string {
	return ids(ts, func(t models.Task) string { return t.ID })
}

func columnIDs(cs []models.ColumnWithTasks) []string {
	return ids(cs, func(c models.ColumnWithTasks) string { return c.ID })
}
