package rediscache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hub/internal/models"
	"hub/internal/remote"
)

// stubService only implements what the tests call; anything else panics
// through the nil embedded interface.
type stubService struct {
	remote.Service
	listProjectsFn  func(ctx context.Context, userID string) ([]models.Project, error)
	updateProjectFn func(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error)
	listTasksFn     func(ctx context.Context, projectID string) ([]models.Task, error)
	moveTaskFn      func(ctx context.Context, id, columnID string, orderIndex int) (models.Task, error)
	deleteTaskFn    func(ctx context.Context, id string) error
}

func (s *stubService) ListActiveProjects(ctx context.Context, userID string) ([]models.Project, error) {
	if s.listProjectsFn == nil {
		return nil, errors.New("unexpected ListActiveProjects call")
	}
	return s.listProjectsFn(ctx, userID)
}

func (s *stubService) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
	if s.updateProjectFn == nil {
		return models.Project{}, errors.New("unexpected UpdateProject call")
	}
	return s.updateProjectFn(ctx, id, patch)
}

func (s *stubService) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	if s.listTasksFn == nil {
		return nil, errors.New("unexpected ListTasks call")
	}
	return s.listTasksFn(ctx, projectID)
}

func (s *stubService) MoveTask(ctx context.Context, id, columnID string, orderIndex int) (models.Task, error) {
	if s.moveTaskFn == nil {
		return models.Task{}, errors.New("unexpected MoveTask call")
	}
	return s.moveTaskFn(ctx, id, columnID, orderIndex)
}

func (s *stubService) DeleteTask(ctx context.Context, id string) error {
	if s.deleteTaskFn == nil {
		return errors.New("unexpected DeleteTask call")
	}
	return s.deleteTaskFn(ctx, id)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestListActiveProjectsMissThenHit(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	expected := []models.Project{{ID: "p1", UserID: "u1", Name: "Launch", Icon: "🚀"}}

	var calls int
	cache := New(&stubService{
		listProjectsFn: func(ctx context.Context, uid string) ([]models.Project, error) {
			calls++
			if uid != "u1" {
				t.Fatalf("unexpected user id: %s", uid)
			}
			return append([]models.Project(nil), expected...), nil
		},
	}, client, time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		projects, err := cache.ListActiveProjects(ctx, "u1")
		if err != nil {
			t.Fatalf("list projects: %v", err)
		}
		if len(projects) != 1 || projects[0].ID != "p1" || projects[0].Icon != "🚀" {
			t.Fatalf("unexpected projects: %#v", projects)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 call to backend, got %d", calls)
	}
	if ttl := mr.TTL(projectsKey("u1")); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}
}

func TestUpdateProjectEvictsOwnerKey(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	var calls int
	cache := New(&stubService{
		listProjectsFn: func(ctx context.Context, uid string) ([]models.Project, error) {
			calls++
			return []models.Project{{ID: "p1", UserID: uid}}, nil
		},
		updateProjectFn: func(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
			return models.Project{ID: id, UserID: "u1"}, nil
		},
	}, client, time.Minute, zerolog.Nop())

	if _, err := cache.ListActiveProjects(ctx, "u1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	fav := true
	if _, err := cache.UpdateProject(ctx, "p1", models.ProjectPatch{IsFavorite: &fav}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists(projectsKey("u1")) {
		t.Fatal("expected projects key to be evicted")
	}
	if _, err := cache.ListActiveProjects(ctx, "u1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected reload after eviction, got %d calls", calls)
	}
}

func TestFailedWriteKeepsCache(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	cache := New(&stubService{
		listTasksFn: func(ctx context.Context, projectID string) ([]models.Task, error) {
			return []models.Task{{ID: "t1", ProjectID: projectID}}, nil
		},
		moveTaskFn: func(ctx context.Context, id, columnID string, orderIndex int) (models.Task, error) {
			return models.Task{}, models.ErrNotFound
		},
	}, client, time.Minute, zerolog.Nop())

	if _, err := cache.ListTasks(ctx, "p1"); err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if _, err := cache.MoveTask(ctx, "t1", "c2", 0); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !mr.Exists(tasksKey("p1")) {
		t.Fatal("failed write must not evict")
	}
}

func TestDeleteTaskEvictsAllTaskKeys(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	cache := New(&stubService{
		listTasksFn: func(ctx context.Context, projectID string) ([]models.Task, error) {
			return []models.Task{}, nil
		},
		deleteTaskFn: func(ctx context.Context, id string) error { return nil },
	}, client, time.Minute, zerolog.Nop())

	for _, p := range []string{"p1", "p2"} {
		if _, err := cache.ListTasks(ctx, p); err != nil {
			t.Fatalf("list tasks: %v", err)
		}
	}
	if err := mr.Set(projectsKey("u1"), "[]"); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	if err := cache.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(tasksKey("p1")) || mr.Exists(tasksKey("p2")) {
		t.Fatal("expected task keys to be evicted")
	}
	if !mr.Exists(projectsKey("u1")) {
		t.Fatal("project keys must survive task eviction")
	}
}

func TestCorruptEntryFallsBack(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	if err := mr.Set(tasksKey("p1"), "{not json"); err != nil {
		t.Fatalf("seed key: %v", err)
	}

	want := []models.Task{{ID: "t1", ProjectID: "p1", Title: "fresh"}}
	cache := New(&stubService{
		listTasksFn: func(ctx context.Context, projectID string) ([]models.Task, error) {
			return want, nil
		},
	}, client, time.Minute, zerolog.Nop())

	got, err := cache.ListTasks(ctx, "p1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected tasks: %#v", got)
	}
}
