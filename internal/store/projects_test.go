package store

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hub/internal/models"
)

var (
	testUser = models.User{ID: "u1", Email: "ada@example.com", Name: "Ada"}
	epoch    = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func newTestProjectStore(t *testing.T, r *fakeRemote, user *models.User) *ProjectStore {
	t.Helper()
	s := NewProjectStore(r, staticUser{user: user}, zerolog.Nop())
	s.now = func() time.Time { return epoch.Add(time.Hour) }
	return s
}

func project(id string, fav bool, age time.Duration) models.Project {
	return models.Project{ID: id, UserID: testUser.ID, Name: id, Icon: "📁", IsFavorite: fav, CreatedAt: epoch.Add(-age)}
}

func TestProjectListFavoritesFirstThenNewest(t *testing.T) {
	archived := epoch
	r := &fakeRemote{
		listProjectsFn: func(ctx context.Context, userID string) ([]models.Project, error) {
			gone := project("archived", true, 0)
			gone.ArchivedAt = &archived
			return []models.Project{
				project("old", false, 3*time.Hour),
				project("fav-old", true, 5*time.Hour),
				project("new", false, time.Hour),
				gone,
				project("fav-new", true, 2*time.Hour),
			}, nil
		},
	}
	s := newTestProjectStore(t, r, &testUser)
	if !s.Loading() {
		t.Fatal("new store should be loading")
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if s.Loading() {
		t.Fatal("loading flag not cleared")
	}

	want := []string{"fav-new", "fav-old", "new", "old"}
	if got := projectIDs(s.List()); !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestProjectRefreshWithoutUserIsEmpty(t *testing.T) {
	r := &fakeRemote{}
	s := newTestProjectStore(t, r, nil)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh without user: %v", err)
	}
	if len(s.List()) != 0 || s.Err() != nil || s.Loading() {
		t.Fatalf("unexpected state: list=%v err=%v loading=%v", s.List(), s.Err(), s.Loading())
	}
	if r.calls.Load() != 0 {
		t.Fatalf("expected no remote calls, got %d", r.calls.Load())
	}
}

func TestProjectRefreshFailureSetsErr(t *testing.T) {
	r := &fakeRemote{
		listProjectsFn: func(ctx context.Context, userID string) ([]models.Project, error) {
			return nil, errBoom
		},
	}
	s := newTestProjectStore(t, r, &testUser)
	if err := s.Refresh(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !errors.Is(s.Err(), errBoom) {
		t.Fatalf("Err() = %v", s.Err())
	}
}

func TestProjectCreateReplacesPlaceholder(t *testing.T) {
	statusID := int64(1)
	release := make(chan struct{})
	seen := make(chan []models.Project, 1)

	r := &fakeRemote{
		firstStatusFn: func(ctx context.Context) (models.ProjectStatus, error) {
			return models.ProjectStatus{ID: statusID, Name: "Planning"}, nil
		},
		insertProjectFn: func(ctx context.Context, userID string, draft models.ProjectDraft) (models.Project, error) {
			if userID != testUser.ID {
				t.Errorf("user id = %q", userID)
			}
			if draft.Name != models.DefaultProjectName || draft.Icon != models.DefaultProjectIcon {
				t.Errorf("defaults not applied: %+v", draft)
			}
			if draft.StatusID == nil || *draft.StatusID != statusID {
				t.Errorf("status not resolved: %v", draft.StatusID)
			}
			<-release
			return models.Project{ID: "p-real", UserID: userID, Name: draft.Name, Icon: draft.Icon, StatusID: draft.StatusID, CreatedAt: epoch}, nil
		},
	}
	s := newTestProjectStore(t, r, &testUser)
	s.data.replace(projectData{items: []models.Project{project("existing", false, time.Hour)}})

	done := make(chan error, 1)
	var created models.Project
	go func() {
		var err error
		created, err = s.Create(context.Background(), models.ProjectDraft{})
		done <- err
	}()

	// The placeholder is visible while the insert is blocked.
	deadline := time.After(2 * time.Second)
	for {
		var list []models.Project
		s.data.view(func(d *projectData) { list = slices.Clone(d.items) })
		if len(list) == 2 {
			seen <- list
			break
		}
		select {
		case <-deadline:
			t.Fatal("placeholder never appeared")
		case <-time.After(time.Millisecond):
		}
	}
	optimistic := <-seen
	if !IsPlaceholder(optimistic[0].ID) {
		t.Fatalf("expected placeholder at head, got %q", optimistic[0].ID)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "p-real" {
		t.Fatalf("created = %+v", created)
	}

	var all []models.Project
	s.data.view(func(d *projectData) { all = slices.Clone(d.items) })
	got := projectIDs(all)
	if !slices.Equal(got, []string{"p-real", "existing"}) {
		t.Fatalf("cache = %v", got)
	}
}

func TestProjectCreateFailureRestoresCache(t *testing.T) {
	statusID := int64(2)
	r := &fakeRemote{
		insertProjectFn: func(ctx context.Context, userID string, draft models.ProjectDraft) (models.Project, error) {
			return models.Project{}, errBoom
		},
	}
	s := newTestProjectStore(t, r, &testUser)
	s.data.replace(projectData{items: []models.Project{project("a", false, time.Hour)}})
	before := projectIDs(s.List())

	_, err := s.Create(context.Background(), models.ProjectDraft{Name: "x", StatusID: &statusID})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := projectIDs(s.List()); !slices.Equal(got, before) {
		t.Fatalf("cache = %v, want %v", got, before)
	}
}

func TestProjectCreateRequiresUserAndStatus(t *testing.T) {
	r := &fakeRemote{
		firstStatusFn: func(ctx context.Context) (models.ProjectStatus, error) {
			return models.ProjectStatus{}, models.ErrNotFound
		},
	}

	s := newTestProjectStore(t, r, nil)
	if _, err := s.Create(context.Background(), models.ProjectDraft{}); !errors.Is(err, ErrNoUser) {
		t.Fatalf("expected ErrNoUser, got %v", err)
	}

	s = newTestProjectStore(t, r, &testUser)
	if _, err := s.Create(context.Background(), models.ProjectDraft{}); !errors.Is(err, ErrNoStatus) {
		t.Fatalf("expected ErrNoStatus, got %v", err)
	}
	if _, err := s.Create(context.Background(), models.ProjectDraft{Progress: 101}); !errors.Is(err, models.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if len(s.List()) != 0 {
		t.Fatalf("nothing should be cached: %v", s.List())
	}
}

func TestProjectUpdateFailureRefetches(t *testing.T) {
	var lists int
	r := &fakeRemote{
		listProjectsFn: func(ctx context.Context, userID string) ([]models.Project, error) {
			lists++
			return []models.Project{project("a", false, time.Hour)}, nil
		},
		updateProjectFn: func(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
			return models.Project{}, errBoom
		},
	}
	s := newTestProjectStore(t, r, &testUser)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	name := "renamed"
	if _, err := s.Update(context.Background(), "a", models.ProjectPatch{Name: &name}); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if lists != 2 {
		t.Fatalf("expected re-fetch after failure, got %d lists", lists)
	}
	p, _ := s.Get("a")
	if p.Name != "a" {
		t.Fatalf("optimistic patch survived: %q", p.Name)
	}
}

func TestProjectUpdateFavoriteReorders(t *testing.T) {
	r := &fakeRemote{
		updateProjectFn: func(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
			p := project(id, false, 2*time.Hour)
			patch.Apply(&p)
			return p, nil
		},
	}
	s := newTestProjectStore(t, r, &testUser)
	s.data.replace(projectData{items: []models.Project{project("new", false, time.Hour), project("old", false, 2*time.Hour)}})
	s.SetCurrent(&models.Project{ID: "old"})

	fav := true
	updated, err := s.Update(context.Background(), "old", models.ProjectPatch{IsFavorite: &fav})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsFavorite {
		t.Fatal("expected favorite")
	}
	if got := projectIDs(s.List()); !slices.Equal(got, []string{"old", "new"}) {
		t.Fatalf("order = %v", got)
	}
	if cur, ok := s.Current(); !ok || !cur.IsFavorite {
		t.Fatalf("current not synced: %+v", cur)
	}
}

func TestProjectUpdateArchivedLeavesList(t *testing.T) {
	r := &fakeRemote{
		updateProjectFn: func(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
			p := project(id, false, time.Hour)
			patch.Apply(&p)
			return p, nil
		},
	}
	s := newTestProjectStore(t, r, &testUser)
	s.data.replace(projectData{items: []models.Project{project("keep", false, 2*time.Hour), project("shelve", false, time.Hour)}})

	archived := epoch
	updated, err := s.Update(context.Background(), "shelve", models.ProjectPatch{ArchivedAt: &archived})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Active() {
		t.Fatalf("expected archived project back, got %+v", updated)
	}
	if got := projectIDs(s.List()); !slices.Equal(got, []string{"keep"}) {
		t.Fatalf("list = %v", got)
	}
	if _, ok := s.Get("shelve"); ok {
		t.Fatal("archived project still cached")
	}
}

func TestProjectUpdateUnknownIDSkipsRemote(t *testing.T) {
	r := &fakeRemote{}
	s := newTestProjectStore(t, r, &testUser)
	name := "x"
	if _, err := s.Update(context.Background(), "missing", models.ProjectPatch{Name: &name}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(context.Background(), "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if r.calls.Load() != 0 {
		t.Fatalf("expected no remote calls, got %d", r.calls.Load())
	}
}

func TestProjectDelete(t *testing.T) {
	var lists int
	fail := true
	r := &fakeRemote{
		listProjectsFn: func(ctx context.Context, userID string) ([]models.Project, error) {
			lists++
			return []models.Project{project("a", false, time.Hour), project("b", false, 2*time.Hour)}, nil
		},
		deleteProjectFn: func(ctx context.Context, id string) error {
			if fail {
				return errBoom
			}
			return nil
		},
	}
	s := newTestProjectStore(t, r, &testUser)
	ctx := context.Background()
	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	s.SetCurrent(&models.Project{ID: "a"})

	if err := s.Delete(ctx, "a"); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if lists != 2 || !slices.Equal(projectIDs(s.List()), []string{"a", "b"}) {
		t.Fatalf("expected re-fetched list, got %v after %d lists", projectIDs(s.List()), lists)
	}

	fail = false
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := projectIDs(s.List()); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("list = %v", got)
	}
	if _, ok := s.Current(); ok {
		t.Fatal("deleted project still selected")
	}
}

func TestProjectSubscribe(t *testing.T) {
	r := &fakeRemote{
		listProjectsFn: func(ctx context.Context, userID string) ([]models.Project, error) {
			return nil, nil
		},
	}
	s := newTestProjectStore(t, r, &testUser)
	var n int
	unsubscribe := s.Subscribe(func() { n++ })
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n == 0 {
		t.Fatal("subscriber not notified")
	}
	unsubscribe()
	unsubscribe()
	before := n
	s.SetCurrent(nil)
	if n != before {
		t.Fatal("notified after unsubscribe")
	}
}
