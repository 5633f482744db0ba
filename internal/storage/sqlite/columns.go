package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hub/internal/models"
)

const columnColumns = `id, project_id, title, order_index, bg_color, header_bg_color, dot_color, created_at, updated_at`

func scanColumn(row scanner) (models.KanbanColumn, error) {
	var c models.KanbanColumn
	err := row.Scan(&c.ID, &c.ProjectID, &c.Title, &c.OrderIndex, &c.BgColor, &c.HeaderBgColor, &c.DotColor, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ListColumns returns a project's columns in display order.
func (s *Store) ListColumns(ctx context.Context, projectID string) ([]models.KanbanColumn, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columnColumns+` FROM kanban_columns
        WHERE project_id = ? ORDER BY order_index, created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	columns := []models.KanbanColumn{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// GetColumn fetches a column by id.
func (s *Store) GetColumn(ctx context.Context, id string) (models.KanbanColumn, error) {
	c, err := scanColumn(s.db.QueryRowContext(ctx, `SELECT `+columnColumns+` FROM kanban_columns WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.KanbanColumn{}, fmt.Errorf("column %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.KanbanColumn{}, fmt.Errorf("get column: %w", err)
	}
	return c, nil
}

// InsertColumn persists a new column. The id and timestamps of c are ignored.
func (s *Store) InsertColumn(ctx context.Context, c models.KanbanColumn) (models.KanbanColumn, error) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return models.KanbanColumn{}, fmt.Errorf("column title must not be empty: %w", models.ErrInvalid)
	}
	if c.ProjectID == "" {
		return models.KanbanColumn{}, fmt.Errorf("column project must be set: %w", models.ErrInvalid)
	}

	now := s.now()
	c.ID = newID()
	_, err := s.db.ExecContext(ctx, `INSERT INTO kanban_columns(`+columnColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Title, c.OrderIndex, c.BgColor, c.HeaderBgColor, c.DotColor, now, now)
	if err != nil {
		return models.KanbanColumn{}, translate(err, "insert column")
	}
	s.logger.Debug().Str("column_id", c.ID).Str("project_id", c.ProjectID).Msg("inserted column")
	return s.GetColumn(ctx, c.ID)
}

// UpdateColumn applies a partial update and returns the stored record.
func (s *Store) UpdateColumn(ctx context.Context, id string, patch models.ColumnPatch) (models.KanbanColumn, error) {
	var set setClause
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.KanbanColumn{}, fmt.Errorf("column title must not be empty: %w", models.ErrInvalid)
		}
		set.add("title", title)
	}
	if patch.OrderIndex != nil {
		set.add("order_index", *patch.OrderIndex)
	}
	if patch.BgColor != nil {
		set.add("bg_color", *patch.BgColor)
	}
	if patch.HeaderBgColor != nil {
		set.add("header_bg_color", *patch.HeaderBgColor)
	}
	if patch.DotColor != nil {
		set.add("dot_color", *patch.DotColor)
	}
	set.add("updated_at", s.now())

	res, err := s.db.ExecContext(ctx, `UPDATE kanban_columns SET `+set.sql()+` WHERE id = ?`, append(set.args, id)...)
	if err != nil {
		return models.KanbanColumn{}, translate(err, "update column")
	}
	if err := requireRow(res, "column "+id); err != nil {
		return models.KanbanColumn{}, err
	}
	return s.GetColumn(ctx, id)
}

// DeleteColumn removes a column together with its tasks.
func (s *Store) DeleteColumn(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kanban_columns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	if err := requireRow(res, "column "+id); err != nil {
		return err
	}
	s.logger.Debug().Str("column_id", id).Msg("deleted column")
	return nil
}

// ReorderColumns sets order_index to the position of each id in one
// transaction. Every id must belong to the project.
func (s *Store) ReorderColumns(ctx context.Context, projectID string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder columns: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	for i, id := range ids {
		res, err := tx.ExecContext(ctx, `UPDATE kanban_columns SET order_index = ?, updated_at = ? WHERE id = ? AND project_id = ?`, i, now, id, projectID)
		if err != nil {
			return fmt.Errorf("reorder column %s: %w", id, err)
		}
		if err := requireRow(res, "column "+id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder columns: %w", err)
	}
	s.logger.Debug().Str("project_id", projectID).Int("columns", len(ids)).Msg("reordered columns")
	return nil
}
