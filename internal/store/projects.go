package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hub/internal/models"
	"hub/internal/remote"
)

type projectData struct {
	items []models.Project
}

func cloneProjectData(d projectData) projectData {
	out := projectData{items: make([]models.Project, len(d.items))}
	for i, p := range d.items {
		out.items[i] = p.Clone()
	}
	return out
}

func (d *projectData) index(id string) int {
	return slices.IndexFunc(d.items, func(p models.Project) bool { return p.ID == id })
}

// ProjectStore caches the current user's active projects and applies
// mutations optimistically.
type ProjectStore struct {
	remote remote.Projects
	users  UserSource
	logger zerolog.Logger
	now    func() time.Time
	subs   subscribers
	data   *cache[projectData]

	mu      sync.RWMutex
	current *models.Project
	loading bool
	err     error
}

// NewProjectStore returns an empty store in the loading state.
func NewProjectStore(r remote.Projects, users UserSource, logger zerolog.Logger) *ProjectStore {
	s := &ProjectStore{
		remote:  r,
		users:   users,
		logger:  logger.With().Str("component", "project_store").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
		loading: true,
	}
	s.data = newCache(projectData{}, cloneProjectData, &s.subs, s.logger)
	return s
}

// List returns the cached active projects, favorites first and newest
// first within each group. Archived and deleted projects never appear.
func (s *ProjectStore) List() []models.Project {
	var out []models.Project
	s.data.view(func(d *projectData) {
		out = make([]models.Project, 0, len(d.items))
		for _, p := range d.items {
			if p.Active() {
				out = append(out, p.Clone())
			}
		}
	})
	slices.SortStableFunc(out, func(a, b models.Project) int {
		if a.IsFavorite != b.IsFavorite {
			if a.IsFavorite {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Get returns the cached project with the given id.
func (s *ProjectStore) Get(id string) (models.Project, bool) {
	var (
		p  models.Project
		ok bool
	)
	s.data.view(func(d *projectData) {
		if i := d.index(id); i >= 0 {
			p, ok = d.items[i].Clone(), true
		}
	})
	return p, ok
}

// Refresh re-fetches the active list and replaces the cache. Without a
// current user the list becomes empty and no error is reported. A fetch
// failure is recorded in Err and returned.
func (s *ProjectStore) Refresh(ctx context.Context) error {
	user, ok := s.users.User()
	if !ok {
		s.data.replace(projectData{})
		s.setMeta(func() {
			s.loading = false
			s.err = nil
		})
		return nil
	}

	s.setMeta(func() {
		s.loading = true
		s.err = nil
	})

	projects, err := s.remote.ListActiveProjects(ctx, user.ID)
	if err != nil {
		err = fmt.Errorf("load projects: %w", err)
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to load projects")
		s.setMeta(func() {
			s.loading = false
			s.err = err
		})
		return err
	}

	s.data.replace(projectData{items: projects})
	s.setMeta(func() { s.loading = false })
	s.logger.Debug().Int("projects", len(projects)).Msg("loaded projects")
	return nil
}

// Create inserts a placeholder at the head of the cache, then asks the
// server to persist the project. On success the placeholder is replaced in
// place by the confirmed record, which is returned; on failure it is removed.
func (s *ProjectStore) Create(ctx context.Context, draft models.ProjectDraft) (models.Project, error) {
	user, ok := s.users.User()
	if !ok {
		return models.Project{}, ErrNoUser
	}
	if draft.Progress < 0 || draft.Progress > 100 {
		return models.Project{}, fmt.Errorf("progress %d outside 0..100: %w", draft.Progress, models.ErrInvalid)
	}
	draft = draft.WithDefaults()

	if draft.StatusID == nil {
		status, err := s.remote.FirstProjectStatus(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to resolve default project status")
			return models.Project{}, fmt.Errorf("%w: %v", ErrNoStatus, err)
		}
		draft.StatusID = &status.ID
	}

	now := s.now()
	placeholder := models.Project{
		ID:          newPlaceholderID(),
		UserID:      user.ID,
		Name:        draft.Name,
		Description: draft.Description,
		StatusID:    draft.StatusID,
		Progress:    draft.Progress,
		Icon:        draft.Icon,
		IsFavorite:  draft.IsFavorite,
		DueDate:     draft.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}.Clone()

	created, err := commit(ctx, s.data, change[projectData, models.Project]{
		op: "create project",
		apply: func(d *projectData) error {
			d.items = append([]models.Project{placeholder}, d.items...)
			return nil
		},
		call: func(ctx context.Context) (models.Project, error) {
			return s.remote.InsertProject(ctx, user.ID, draft)
		},
		reconcile: func(d *projectData, p models.Project) {
			if i := d.index(placeholder.ID); i >= 0 {
				d.items[i] = p.Clone()
			}
		},
		revert: func(ctx context.Context, _ projectData) {
			s.data.update(func(d *projectData) {
				if i := d.index(placeholder.ID); i >= 0 {
					d.items = slices.Delete(d.items, i, i+1)
				}
			})
		},
	})
	if err != nil {
		return models.Project{}, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info().Str("project_id", created.ID).Msg("created project")
	return created, nil
}

// Update patches the cached project and persists the patch. On failure the
// whole list is re-fetched to discard the optimistic patch.
func (s *ProjectStore) Update(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
	if patch.Progress != nil && (*patch.Progress < 0 || *patch.Progress > 100) {
		return models.Project{}, fmt.Errorf("progress %d outside 0..100: %w", *patch.Progress, models.ErrInvalid)
	}
	now := s.now()
	updated, err := commit(ctx, s.data, change[projectData, models.Project]{
		op: "update project",
		apply: func(d *projectData) error {
			i := d.index(id)
			if i < 0 {
				return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
			}
			patch.Apply(&d.items[i])
			d.items[i].UpdatedAt = now
			return nil
		},
		call: func(ctx context.Context) (models.Project, error) {
			return s.remote.UpdateProject(ctx, id, patch)
		},
		reconcile: func(d *projectData, p models.Project) {
			i := d.index(id)
			switch {
			case i < 0:
			case p.Active():
				d.items[i] = p.Clone()
			default:
				d.items = slices.Delete(d.items, i, i+1)
			}
		},
		revert: s.refetch,
	})
	if err != nil {
		return models.Project{}, err
	}
	s.syncCurrent(updated)
	return updated, nil
}

// Delete removes the project from the cache and soft-deletes it on the
// server. On failure the whole list is re-fetched.
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	_, err := commit(ctx, s.data, change[projectData, struct{}]{
		op: "delete project",
		apply: func(d *projectData) error {
			i := d.index(id)
			if i < 0 {
				return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
			}
			d.items = slices.Delete(d.items, i, i+1)
			return nil
		},
		call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.remote.SoftDeleteProject(ctx, id)
		},
		revert: s.refetch,
	})
	if err != nil {
		return err
	}
	s.setMeta(func() {
		if s.current != nil && s.current.ID == id {
			s.current = nil
		}
	})
	return nil
}

// refetch is the revert strategy for changes that keep no per-entity snapshot.
func (s *ProjectStore) refetch(ctx context.Context, _ projectData) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error().Err(err).Msg("re-fetch after failed mutation")
	}
}

// SetCurrent selects a project locally; nil clears the selection.
func (s *ProjectStore) SetCurrent(p *models.Project) {
	s.setMeta(func() {
		if p == nil {
			s.current = nil
			return
		}
		c := p.Clone()
		s.current = &c
	})
}

// Current returns the selected project.
func (s *ProjectStore) Current() (models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Project{}, false
	}
	return s.current.Clone(), true
}

// Loading reports whether the list has not been loaded yet or is reloading.
func (s *ProjectStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last read failure.
func (s *ProjectStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Subscribe registers fn to run after every state change.
func (s *ProjectStore) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.subscribe(fn)
}

func (s *ProjectStore) setMeta(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.subs.notify()
}

func (s *ProjectStore) syncCurrent(p models.Project) {
	s.mu.RLock()
	selected := s.current != nil && s.current.ID == p.ID
	s.mu.RUnlock()
	if selected {
		s.SetCurrent(&p)
	}
}
