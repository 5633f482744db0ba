package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hub/internal/models"
	"hub/internal/remote"
)

// boardData is the column-with-tasks grouping plus the flat task list of
// one project. Both views hold independent copies of each task.
type boardData struct {
	columns []models.ColumnWithTasks
	tasks   []models.Task
}

func cloneBoardData(d boardData) boardData {
	out := boardData{
		columns: make([]models.ColumnWithTasks, len(d.columns)),
		tasks:   make([]models.Task, len(d.tasks)),
	}
	for i, c := range d.columns {
		out.columns[i] = c.Clone()
	}
	for i, t := range d.tasks {
		out.tasks[i] = t.Clone()
	}
	return out
}

func (d *boardData) columnIndex(id string) int {
	return slices.IndexFunc(d.columns, func(c models.ColumnWithTasks) bool { return c.ID == id })
}

func (d *boardData) taskIndex(id string) int {
	return slices.IndexFunc(d.tasks, func(t models.Task) bool { return t.ID == id })
}

func indexTask(tasks []models.Task, id string) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
}

// placeTask writes t into the flat list and makes its column's nested list
// the only one holding it. An entry already in the right column is replaced
// in place; otherwise t is appended to that column.
func (d *boardData) placeTask(t models.Task) {
	if i := d.taskIndex(t.ID); i >= 0 {
		d.tasks[i] = t.Clone()
	} else {
		d.tasks = append(d.tasks, t.Clone())
	}
	for ci := range d.columns {
		col := &d.columns[ci]
		i := indexTask(col.Tasks, t.ID)
		switch {
		case col.ID == t.ColumnID && i >= 0:
			col.Tasks[i] = t.Clone()
		case col.ID == t.ColumnID:
			col.Tasks = append(col.Tasks, t.Clone())
		case i >= 0:
			col.Tasks = slices.Delete(col.Tasks, i, i+1)
		}
	}
}

// dropTask removes id from the flat list and every nested list.
func (d *boardData) dropTask(id string) {
	d.tasks = slices.DeleteFunc(d.tasks, func(t models.Task) bool { return t.ID == id })
	for ci := range d.columns {
		col := &d.columns[ci]
		col.Tasks = slices.DeleteFunc(col.Tasks, func(t models.Task) bool { return t.ID == id })
	}
}

// replaceTaskID swaps a placeholder task for its confirmed record.
func (d *boardData) replaceTaskID(oldID string, t models.Task) {
	if i := d.taskIndex(oldID); i >= 0 {
		d.tasks[i] = t.Clone()
	}
	for ci := range d.columns {
		col := &d.columns[ci]
		if i := indexTask(col.Tasks, oldID); i >= 0 {
			col.Tasks[i] = t.Clone()
		}
	}
}

// pendingSet tracks in-flight operation ids.
type pendingSet struct {
	mu  sync.Mutex
	ops map[string]struct{}
}

func (p *pendingSet) add(op string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ops == nil {
		p.ops = make(map[string]struct{})
	}
	p.ops[op] = struct{}{}
}

func (p *pendingSet) remove(op string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.ops, op)
}

func (p *pendingSet) has(op string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.ops[op]
	return ok
}

func (p *pendingSet) list() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.ops))
	for op := range p.ops {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

func moveOp(taskID string) string {
	return "move-" + taskID
}

// BoardStore caches the columns and tasks of one project and applies
// mutations optimistically.
type BoardStore struct {
	remote  remote.Board
	logger  zerolog.Logger
	now     func() time.Time
	subs    subscribers
	data    *cache[boardData]
	pending pendingSet

	mu      sync.RWMutex
	current string
	loaded  string
	err     error
}

// NewBoardStore returns an empty board store.
func NewBoardStore(r remote.Board, logger zerolog.Logger) *BoardStore {
	s := &BoardStore{
		remote: r,
		logger: logger.With().Str("component", "board_store").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.data = newCache(boardData{}, cloneBoardData, &s.subs, s.logger)
	return s
}

// SetCurrentProject selects the project that column reorders apply to.
func (s *BoardStore) SetCurrentProject(projectID string) {
	s.setMeta(func() { s.current = projectID })
}

// CurrentProject returns the selected project id, empty when none.
func (s *BoardStore) CurrentProject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// FetchColumnsAndTasks loads a project's board and replaces the cache. The
// round trip is skipped when the cache already holds columns for the same
// project; this does not detect changes made elsewhere.
func (s *BoardStore) FetchColumnsAndTasks(ctx context.Context, projectID string) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()

	var cached bool
	s.data.view(func(d *boardData) { cached = len(d.columns) > 0 })
	if loaded == projectID && cached {
		s.logger.Debug().Str("project_id", projectID).Msg("board already cached")
		return nil
	}
	return s.Reload(ctx, projectID)
}

// Reload fetches a project's board unconditionally. Read failures are
// recorded in Err and returned.
func (s *BoardStore) Reload(ctx context.Context, projectID string) error {
	s.setMeta(func() { s.err = nil })

	var (
		columns []models.KanbanColumn
		tasks   []models.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		columns, err = s.remote.ListColumns(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.remote.ListTasks(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		err = fmt.Errorf("load columns and tasks: %w", err)
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("failed to load board")
		s.setMeta(func() { s.err = err })
		return err
	}

	s.data.replace(boardData{columns: models.GroupTasks(columns, tasks), tasks: tasks})
	s.setMeta(func() {
		s.current = projectID
		s.loaded = projectID
	})
	s.logger.Debug().Str("project_id", projectID).Int("columns", len(columns)).Int("tasks", len(tasks)).Msg("loaded board")
	return nil
}

// Columns returns a copy of the cached columns with their tasks.
func (s *BoardStore) Columns() []models.ColumnWithTasks {
	var out []models.ColumnWithTasks
	s.data.view(func(d *boardData) {
		out = make([]models.ColumnWithTasks, len(d.columns))
		for i, c := range d.columns {
			out[i] = c.Clone()
		}
	})
	return out
}

// Tasks returns a copy of the flat task list.
func (s *BoardStore) Tasks() []models.Task {
	var out []models.Task
	s.data.view(func(d *boardData) {
		out = make([]models.Task, len(d.tasks))
		for i, t := range d.tasks {
			out[i] = t.Clone()
		}
	})
	return out
}

// Task returns the cached task with the given id.
func (s *BoardStore) Task(id string) (models.Task, bool) {
	var (
		t  models.Task
		ok bool
	)
	s.data.view(func(d *boardData) {
		if i := d.taskIndex(id); i >= 0 {
			t, ok = d.tasks[i].Clone(), true
		}
	})
	return t, ok
}

// CreateColumn appends a placeholder column, then persists it. The
// placeholder is replaced by the confirmed column or removed on failure.
func (s *BoardStore) CreateColumn(ctx context.Context, col models.KanbanColumn) (models.KanbanColumn, error) {
	if col.ProjectID == "" {
		col.ProjectID = s.CurrentProject()
	}
	if col.ProjectID == "" {
		return models.KanbanColumn{}, fmt.Errorf("column without project: %w", models.ErrInvalid)
	}
	now := s.now()
	placeholder := col
	placeholder.ID = newPlaceholderID()
	placeholder.CreatedAt, placeholder.UpdatedAt = now, now

	created, err := commit(ctx, s.data, change[boardData, models.KanbanColumn]{
		op: "create column",
		apply: func(d *boardData) error {
			d.columns = append(d.columns, models.ColumnWithTasks{KanbanColumn: placeholder, Tasks: []models.Task{}})
			return nil
		},
		call: func(ctx context.Context) (models.KanbanColumn, error) {
			return s.remote.InsertColumn(ctx, col)
		},
		reconcile: func(d *boardData, c models.KanbanColumn) {
			if i := d.columnIndex(placeholder.ID); i >= 0 {
				d.columns[i].KanbanColumn = c
			}
		},
		revert: func(ctx context.Context, _ boardData) {
			s.data.update(func(d *boardData) {
				if i := d.columnIndex(placeholder.ID); i >= 0 {
					d.columns = slices.Delete(d.columns, i, i+1)
				}
			})
		},
	})
	if err != nil {
		return models.KanbanColumn{}, fmt.Errorf("create column: %w", err)
	}
	return created, nil
}

// UpdateColumn patches a cached column and persists the patch. On failure
// the column's previous fields are restored.
func (s *BoardStore) UpdateColumn(ctx context.Context, id string, patch models.ColumnPatch) (models.KanbanColumn, error) {
	now := s.now()
	return commit(ctx, s.data, change[boardData, models.KanbanColumn]{
		op: "update column",
		apply: func(d *boardData) error {
			i := d.columnIndex(id)
			if i < 0 {
				return fmt.Errorf("column %s: %w", id, models.ErrNotFound)
			}
			patch.Apply(&d.columns[i].KanbanColumn)
			d.columns[i].UpdatedAt = now
			return nil
		},
		call: func(ctx context.Context) (models.KanbanColumn, error) {
			return s.remote.UpdateColumn(ctx, id, patch)
		},
		reconcile: func(d *boardData, c models.KanbanColumn) {
			if i := d.columnIndex(id); i >= 0 {
				d.columns[i].KanbanColumn = c
			}
		},
		revert: func(ctx context.Context, snapshot boardData) {
			i := snapshot.columnIndex(id)
			if i < 0 {
				return
			}
			prev := snapshot.columns[i].KanbanColumn
			s.data.update(func(d *boardData) {
				if j := d.columnIndex(id); j >= 0 {
					d.columns[j].KanbanColumn = prev
				}
			})
		},
	})
}

// DeleteColumn removes a column and its tasks from the cache, then from
// the server. On failure the pre-delete snapshot is restored.
func (s *BoardStore) DeleteColumn(ctx context.Context, id string) error {
	_, err := commit(ctx, s.data, change[boardData, struct{}]{
		op: "delete column",
		apply: func(d *boardData) error {
			i := d.columnIndex(id)
			if i < 0 {
				return fmt.Errorf("column %s: %w", id, models.ErrNotFound)
			}
			d.columns = slices.Delete(d.columns, i, i+1)
			d.tasks = slices.DeleteFunc(d.tasks, func(t models.Task) bool { return t.ColumnID == id })
			return nil
		},
		call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.remote.DeleteColumn(ctx, id)
		},
	})
	return err
}

// ReorderColumns reorders the cached columns to match ids exactly and
// persists the new order. Ids missing from the cache are dropped, and
// cached columns not named in ids disappear from the board. Surviving
// columns are numbered 0..n-1 and only their ids are sent to the remote.
// On failure the pre-reorder columns are restored. Without a current
// project it does nothing.
func (s *BoardStore) ReorderColumns(ctx context.Context, ids []string) error {
	projectID := s.CurrentProject()
	if projectID == "" {
		return nil
	}
	var kept []string
	_, err := commit(ctx, s.data, change[boardData, struct{}]{
		op: "reorder columns",
		apply: func(d *boardData) error {
			reordered := make([]models.ColumnWithTasks, 0, len(ids))
			kept = make([]string, 0, len(ids))
			for _, id := range ids {
				if i := d.columnIndex(id); i >= 0 {
					col := d.columns[i]
					col.OrderIndex = len(reordered)
					reordered = append(reordered, col)
					kept = append(kept, id)
				}
			}
			d.columns = reordered
			return nil
		},
		call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.remote.ReorderColumns(ctx, projectID, kept)
		},
		revert: func(ctx context.Context, snapshot boardData) {
			s.data.update(func(d *boardData) { d.columns = snapshot.columns })
		},
	})
	return err
}

// CreateTask adds a placeholder task to the flat list and its column, then
// persists it. The placeholder is replaced by the confirmed task or removed
// on failure.
func (s *BoardStore) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if t.ProjectID == "" {
		t.ProjectID = s.CurrentProject()
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	now := s.now()
	placeholder := t.Clone()
	placeholder.ID = newPlaceholderID()
	placeholder.CreatedAt, placeholder.UpdatedAt = now, now

	created, err := commit(ctx, s.data, change[boardData, models.Task]{
		op: "create task",
		apply: func(d *boardData) error {
			d.placeTask(placeholder)
			return nil
		},
		call: func(ctx context.Context) (models.Task, error) {
			return s.remote.InsertTask(ctx, t)
		},
		reconcile: func(d *boardData, confirmed models.Task) {
			d.replaceTaskID(placeholder.ID, confirmed)
		},
		revert: func(ctx context.Context, _ boardData) {
			s.data.update(func(d *boardData) { d.dropTask(placeholder.ID) })
		},
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// UpdateTask patches a cached task, moving it between nested lists when
// the column changes, then persists the patch. On failure the pre-update
// snapshot is restored.
func (s *BoardStore) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	now := s.now()
	return commit(ctx, s.data, change[boardData, models.Task]{
		op: "update task",
		apply: func(d *boardData) error {
			i := d.taskIndex(id)
			if i < 0 {
				return fmt.Errorf("task %s: %w", id, models.ErrNotFound)
			}
			t := d.tasks[i].Clone()
			patch.Apply(&t)
			t.UpdatedAt = now
			d.placeTask(t)
			return nil
		},
		call: func(ctx context.Context) (models.Task, error) {
			return s.remote.UpdateTask(ctx, id, patch)
		},
		reconcile: func(d *boardData, t models.Task) {
			d.placeTask(t)
		},
	})
}

// DeleteTask removes a task from the cache, then from the server. On
// failure the pre-delete snapshot is restored.
func (s *BoardStore) DeleteTask(ctx context.Context, id string) error {
	_, err := commit(ctx, s.data, change[boardData, struct{}]{
		op: "delete task",
		apply: func(d *boardData) error {
			if d.taskIndex(id) < 0 {
				return fmt.Errorf("task %s: %w", id, models.ErrNotFound)
			}
			d.dropTask(id)
			return nil
		},
		call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.remote.DeleteTask(ctx, id)
		},
	})
	return err
}

// MoveTask moves a task to columnID at orderIndex. The task must be cached;
// otherwise it fails with models.ErrNotFound before any remote call. While
// the call is in flight IsPending(taskID) is true. On failure both the flat
// list and the nested lists are restored from the pre-move snapshot.
func (s *BoardStore) MoveTask(ctx context.Context, taskID, columnID string, orderIndex int) (models.Task, error) {
	if _, ok := s.Task(taskID); !ok {
		return models.Task{}, fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
	}

	op := moveOp(taskID)
	s.pending.add(op)
	s.subs.notify()
	defer func() {
		s.pending.remove(op)
		s.subs.notify()
	}()

	now := s.now()
	moved, err := commit(ctx, s.data, change[boardData, models.Task]{
		op: "move task",
		apply: func(d *boardData) error {
			i := d.taskIndex(taskID)
			if i < 0 {
				return fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
			}
			t := d.tasks[i].Clone()
			t.ColumnID = columnID
			t.OrderIndex = orderIndex
			t.UpdatedAt = now
			d.placeTask(t)
			return nil
		},
		call: func(ctx context.Context) (models.Task, error) {
			return s.remote.MoveTask(ctx, taskID, columnID, orderIndex)
		},
		reconcile: func(d *boardData, t models.Task) {
			d.placeTask(t)
		},
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("move task %s: %w", taskID, err)
	}
	return moved, nil
}

// ReorderTasks assigns order_index by position in ids to the tasks of one
// column and persists it. A backend that can reorder atomically is used
// when available; otherwise one update per task is issued in order and the
// first failure stops the sequence. Any failure restores the pre-reorder
// columns even if some remote rows were already updated.
func (s *BoardStore) ReorderTasks(ctx context.Context, columnID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := commit(ctx, s.data, change[boardData, struct{}]{
		op: "reorder tasks",
		apply: func(d *boardData) error {
			ci := d.columnIndex(columnID)
			if ci < 0 {
				return fmt.Errorf("column %s: %w", columnID, models.ErrNotFound)
			}
			col := &d.columns[ci]
			reordered := make([]models.Task, 0, len(ids))
			for pos, id := range ids {
				if i := indexTask(col.Tasks, id); i >= 0 {
					t := col.Tasks[i]
					t.OrderIndex = pos
					reordered = append(reordered, t)
				}
			}
			col.Tasks = reordered
			return nil
		},
		call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.persistTaskOrder(ctx, columnID, ids)
		},
		reconcile: func(d *boardData, _ struct{}) {
			for pos, id := range ids {
				if i := d.taskIndex(id); i >= 0 && d.tasks[i].ColumnID == columnID {
					d.tasks[i].OrderIndex = pos
				}
			}
		},
		revert: func(ctx context.Context, snapshot boardData) {
			s.data.update(func(d *boardData) { d.columns = snapshot.columns })
		},
	})
	return err
}

func (s *BoardStore) persistTaskOrder(ctx context.Context, columnID string, ids []string) error {
	if bulk, ok := s.remote.(remote.TaskReorderer); ok {
		return bulk.ReorderTasks(ctx, columnID, ids)
	}
	for pos, id := range ids {
		idx := pos
		if _, err := s.remote.UpdateTask(ctx, id, models.TaskPatch{OrderIndex: &idx}); err != nil {
			s.logger.Warn().Err(err).Str("task_id", id).Int("updated", pos).Msg("task reorder stopped part way")
			return fmt.Errorf("reorder task %s: %w", id, err)
		}
	}
	return nil
}

// Pending returns the ids of in-flight move operations.
func (s *BoardStore) Pending() []string {
	return s.pending.list()
}

// IsPending reports whether a move of taskID is in flight.
func (s *BoardStore) IsPending(taskID string) bool {
	return s.pending.has(moveOp(taskID))
}

// Err returns the last read failure.
func (s *BoardStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Subscribe registers fn to run after every state change.
func (s *BoardStore) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.subscribe(fn)
}

func (s *BoardStore) setMeta(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.subs.notify()
}
