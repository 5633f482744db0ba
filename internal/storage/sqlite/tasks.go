package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hub/internal/models"
)

const taskColumns = `id, project_id, column_id, title, description, priority, start_date, due_date, order_index, created_at, updated_at`

func scanTask(row scanner) (models.Task, error) {
	var (
		t     models.Task
		start sql.NullTime
		due   sql.NullTime
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.ColumnID, &t.Title, &t.Description, &t.Priority, &start, &due, &t.OrderIndex, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	t.StartDate = timePtr(start)
	t.DueDate = timePtr(due)
	return t, nil
}

// ListTasks returns tasks for the given project ordered by order_index.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks
        WHERE project_id = ? ORDER BY order_index, created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// InsertTask persists a new task into an existing column of its project.
func (s *Store) InsertTask(ctx context.Context, t models.Task) (models.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty: %w", models.ErrInvalid)
	}
	priority, err := models.ParsePriority(string(t.Priority))
	if err != nil {
		return models.Task{}, err
	}
	t.Priority = priority
	if err := s.checkColumn(ctx, s.db, t.ProjectID, t.ColumnID); err != nil {
		return models.Task{}, err
	}

	now := s.now()
	t.ID = newID()
	_, err = s.db.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.ColumnID, t.Title, strings.TrimSpace(t.Description), t.Priority,
		nullTime(t.StartDate), nullTime(t.DueDate), t.OrderIndex, now, now)
	if err != nil {
		return models.Task{}, translate(err, "insert task")
	}
	s.logger.Debug().Str("task_id", t.ID).Str("column_id", t.ColumnID).Msg("inserted task")
	return s.GetTask(ctx, t.ID)
}

// UpdateTask applies a partial update. A column change must stay within
// the task's project.
func (s *Store) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	var set setClause
	if patch.ColumnID != nil {
		current, err := s.GetTask(ctx, id)
		if err != nil {
			return models.Task{}, err
		}
		if err := s.checkColumn(ctx, s.db, current.ProjectID, *patch.ColumnID); err != nil {
			return models.Task{}, err
		}
		set.add("column_id", *patch.ColumnID)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Task{}, fmt.Errorf("task title must not be empty: %w", models.ErrInvalid)
		}
		set.add("title", title)
	}
	if patch.Description != nil {
		set.add("description", strings.TrimSpace(*patch.Description))
	}
	if patch.Priority != nil {
		priority, err := models.ParsePriority(string(*patch.Priority))
		if err != nil {
			return models.Task{}, err
		}
		set.add("priority", priority)
	}
	if patch.StartDate != nil {
		set.add("start_date", nullTime(patch.StartDate))
	}
	if patch.DueDate != nil {
		set.add("due_date", nullTime(patch.DueDate))
	}
	if patch.OrderIndex != nil {
		set.add("order_index", *patch.OrderIndex)
	}
	set.add("updated_at", s.now())

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+set.sql()+` WHERE id = ?`, append(set.args, id)...)
	if err != nil {
		return models.Task{}, translate(err, "update task")
	}
	if err := requireRow(res, "task "+id); err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// MoveTask reassigns the task's column and position. Exactly one row must
// change; zero affected rows is reported as not found.
func (s *Store) MoveTask(ctx context.Context, id, columnID string, orderIndex int) (models.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Task{}, fmt.Errorf("begin move task: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var projectID string
	err = tx.QueryRowContext(ctx, `SELECT project_id FROM tasks WHERE id = ?`, id).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("move task: %w", err)
	}
	if err := s.checkColumn(ctx, tx, projectID, columnID); err != nil {
		return models.Task{}, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE tasks SET column_id = ?, order_index = ?, updated_at = ? WHERE id = ?`, columnID, orderIndex, s.now(), id)
	if err != nil {
		return models.Task{}, translate(err, "move task")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected != 1 {
		return models.Task{}, fmt.Errorf("task %s: moved %d rows: %w", id, affected, models.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("commit move task: %w", err)
	}
	s.logger.Debug().Str("task_id", id).Str("column_id", columnID).Int("order_index", orderIndex).Msg("moved task")
	return s.GetTask(ctx, id)
}

// ReorderTasks sets order_index to the position of each id within the
// column in one transaction.
func (s *Store) ReorderTasks(ctx context.Context, columnID string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder tasks: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	for i, id := range ids {
		res, err := tx.ExecContext(ctx, `UPDATE tasks SET order_index = ?, updated_at = ? WHERE id = ? AND column_id = ?`, i, now, id, columnID)
		if err != nil {
			return fmt.Errorf("reorder task %s: %w", id, err)
		}
		if err := requireRow(res, "task "+id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder tasks: %w", err)
	}
	return nil
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if err := requireRow(res, "task "+id); err != nil {
		return err
	}
	s.logger.Debug().Str("task_id", id).Msg("deleted task")
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkColumn verifies that columnID names a column of projectID.
func (s *Store) checkColumn(ctx context.Context, q querier, projectID, columnID string) error {
	var owner string
	err := q.QueryRowContext(ctx, `SELECT project_id FROM kanban_columns WHERE id = ?`, columnID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("column %s does not exist: %w", columnID, models.ErrInvalid)
	}
	if err != nil {
		return fmt.Errorf("check column: %w", err)
	}
	if owner != projectID {
		return fmt.Errorf("column %s belongs to another project: %w", columnID, models.ErrInvalid)
	}
	return nil
}
