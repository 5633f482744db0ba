package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hub/internal/models"
)

const projectColumns = `p.id, p.user_id, p.name, p.description, p.status_id, s.name, p.progress, p.icon,
        p.is_favorite, p.due_date, p.archived_at, p.deleted_at, p.created_at, p.updated_at`

const projectFrom = `FROM projects p LEFT JOIN project_statuses s ON s.id = p.status_id`

func scanProject(row scanner) (models.Project, error) {
	var (
		p          models.Project
		statusID   sql.NullInt64
		statusName sql.NullString
		due        sql.NullTime
		archived   sql.NullTime
		deleted    sql.NullTime
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &statusID, &statusName, &p.Progress, &p.Icon,
		&p.IsFavorite, &due, &archived, &deleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Project{}, err
	}
	if statusID.Valid {
		id := statusID.Int64
		p.StatusID = &id
		if statusName.Valid {
			p.Status = &models.ProjectStatus{ID: id, Name: statusName.String}
		}
	}
	p.DueDate = timePtr(due)
	p.ArchivedAt = timePtr(archived)
	p.DeletedAt = timePtr(deleted)
	return p, nil
}

// ListActiveProjects returns the user's projects that are neither archived
// nor deleted, favorites first and newest first within each group.
func (s *Store) ListActiveProjects(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` `+projectFrom+`
        WHERE p.user_id = ? AND p.archived_at IS NULL AND p.deleted_at IS NULL
        ORDER BY p.is_favorite DESC, p.created_at DESC, p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject fetches a single project by id, including inactive ones.
func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` `+projectFrom+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// InsertProject persists a new project owned by userID.
func (s *Store) InsertProject(ctx context.Context, userID string, draft models.ProjectDraft) (models.Project, error) {
	draft = draft.WithDefaults()
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return models.Project{}, fmt.Errorf("project name must not be empty: %w", models.ErrInvalid)
	}
	if err := validProgress(draft.Progress); err != nil {
		return models.Project{}, err
	}

	now := s.now()
	id := newID()
	_, err := s.db.ExecContext(ctx, `INSERT INTO projects(id, user_id, name, description, status_id, progress, icon, is_favorite, due_date, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, draft.Name, draft.Description, draft.StatusID, draft.Progress, draft.Icon, draft.IsFavorite, nullTime(draft.DueDate), now, now)
	if err != nil {
		return models.Project{}, translate(err, "insert project")
	}
	s.logger.Debug().Str("project_id", id).Str("user_id", userID).Msg("inserted project")
	return s.GetProject(ctx, id)
}

// UpdateProject applies a partial update and returns the stored record.
func (s *Store) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
	var set setClause
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Project{}, fmt.Errorf("project name must not be empty: %w", models.ErrInvalid)
		}
		set.add("name", name)
	}
	if patch.Description != nil {
		set.add("description", *patch.Description)
	}
	if patch.Icon != nil {
		set.add("icon", *patch.Icon)
	}
	if patch.StatusID != nil {
		set.add("status_id", *patch.StatusID)
	}
	if patch.Progress != nil {
		if err := validProgress(*patch.Progress); err != nil {
			return models.Project{}, err
		}
		set.add("progress", *patch.Progress)
	}
	if patch.IsFavorite != nil {
		set.add("is_favorite", *patch.IsFavorite)
	}
	if patch.DueDate != nil {
		set.add("due_date", nullTime(patch.DueDate))
	}
	if patch.ArchivedAt != nil {
		set.add("archived_at", nullTime(patch.ArchivedAt))
	}
	if patch.DeletedAt != nil {
		set.add("deleted_at", nullTime(patch.DeletedAt))
	}
	set.add("updated_at", s.now())

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET `+set.sql()+` WHERE id = ?`, append(set.args, id)...)
	if err != nil {
		return models.Project{}, translate(err, "update project")
	}
	if err := requireRow(res, "project "+id); err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, id)
}

// SoftDeleteProject stamps deleted_at; the row itself is kept.
func (s *Store) SoftDeleteProject(ctx context.Context, id string) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, now, now, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if err := requireRow(res, "project "+id); err != nil {
		return err
	}
	s.logger.Debug().Str("project_id", id).Msg("soft deleted project")
	return nil
}

// ListProjectStatuses returns every status ordered by id.
func (s *Store) ListProjectStatuses(ctx context.Context) ([]models.ProjectStatus, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM project_statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	statuses := []models.ProjectStatus{}
	for rows.Next() {
		var st models.ProjectStatus
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

// FirstProjectStatus returns the status with the lowest id.
func (s *Store) FirstProjectStatus(ctx context.Context) (models.ProjectStatus, error) {
	var st models.ProjectStatus
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM project_statuses ORDER BY id LIMIT 1`).Scan(&st.ID, &st.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProjectStatus{}, fmt.Errorf("project status: %w", models.ErrNotFound)
	}
	if err != nil {
		return models.ProjectStatus{}, fmt.Errorf("first status: %w", err)
	}
	return st, nil
}

func validProgress(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("progress %d outside 0..100: %w", v, models.ErrInvalid)
	}
	return nil
}
