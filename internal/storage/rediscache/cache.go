package rediscache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hub/internal/models"
	"hub/internal/remote"
)

const keyPrefix = "hub:"

// Cache wraps a data service with Redis-backed caching for list queries.
// Writes go straight to the base service and evict affected keys.
type Cache struct {
	remote.Service
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New creates a caching wrapper using the provided Redis client and TTL.
func New(base remote.Service, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Cache {
	if base == nil {
		panic("rediscache.New: base service is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{
		Service: base,
		redis:   client,
		ttl:     ttl,
		logger:  logger.With().Str("component", "rediscache").Logger(),
	}
}

func projectsKey(userID string) string   { return keyPrefix + "projects:" + userID }
func columnsKey(projectID string) string { return keyPrefix + "columns:" + projectID }
func tasksKey(projectID string) string   { return keyPrefix + "tasks:" + projectID }

// ListActiveProjects serves the user's active projects from cache when present.
func (c *Cache) ListActiveProjects(ctx context.Context, userID string) ([]models.Project, error) {
	return readThrough(ctx, c, projectsKey(userID), func() ([]models.Project, error) {
		return c.Service.ListActiveProjects(ctx, userID)
	})
}

// ListColumns serves a project's columns from cache when present.
func (c *Cache) ListColumns(ctx context.Context, projectID string) ([]models.KanbanColumn, error) {
	return readThrough(ctx, c, columnsKey(projectID), func() ([]models.KanbanColumn, error) {
		return c.Service.ListColumns(ctx, projectID)
	})
}

// ListTasks serves a project's tasks from cache when present.
func (c *Cache) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	return readThrough(ctx, c, tasksKey(projectID), func() ([]models.Task, error) {
		return c.Service.ListTasks(ctx, projectID)
	})
}

func (c *Cache) InsertProject(ctx context.Context, userID string, draft models.ProjectDraft) (models.Project, error) {
	p, err := c.Service.InsertProject(ctx, userID, draft)
	if err != nil {
		return p, err
	}
	c.evict(ctx, projectsKey(userID))
	return p, nil
}

func (c *Cache) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (models.Project, error) {
	p, err := c.Service.UpdateProject(ctx, id, patch)
	if err != nil {
		return p, err
	}
	c.evict(ctx, projectsKey(p.UserID))
	return p, nil
}

func (c *Cache) SoftDeleteProject(ctx context.Context, id string) error {
	if err := c.Service.SoftDeleteProject(ctx, id); err != nil {
		return err
	}
	c.evictPattern(ctx, projectsKey("*"))
	return nil
}

func (c *Cache) InsertColumn(ctx context.Context, col models.KanbanColumn) (models.KanbanColumn, error) {
	out, err := c.Service.InsertColumn(ctx, col)
	if err != nil {
		return out, err
	}
	c.evict(ctx, columnsKey(out.ProjectID))
	return out, nil
}

func (c *Cache) UpdateColumn(ctx context.Context, id string, patch models.ColumnPatch) (models.KanbanColumn, error) {
	out, err := c.Service.UpdateColumn(ctx, id, patch)
	if err != nil {
		return out, err
	}
	c.evict(ctx, columnsKey(out.ProjectID))
	return out, nil
}

func (c *Cache) DeleteColumn(ctx context.Context, id string) error {
	if err := c.Service.DeleteColumn(ctx, id); err != nil {
		return err
	}
	c.evictPattern(ctx, columnsKey("*"))
	c.evictPattern(ctx, tasksKey("*"))
	return nil
}

func (c *Cache) ReorderColumns(ctx context.Context, projectID string, ids []string) error {
	if err := c.Service.ReorderColumns(ctx, projectID, ids); err != nil {
		return err
	}
	c.evict(ctx, columnsKey(projectID))
	return nil
}

func (c *Cache) InsertTask(ctx context.Context, t models.Task) (models.Task, error) {
	out, err := c.Service.InsertTask(ctx, t)
	if err != nil {
		return out, err
	}
	c.evict(ctx, tasksKey(out.ProjectID))
	return out, nil
}

func (c *Cache) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	out, err := c.Service.UpdateTask(ctx, id, patch)
	if err != nil {
		return out, err
	}
	c.evict(ctx, tasksKey(out.ProjectID))
	return out, nil
}

func (c *Cache) MoveTask(ctx context.Context, id, columnID string, orderIndex int) (models.Task, error) {
	out, err := c.Service.MoveTask(ctx, id, columnID, orderIndex)
	if err != nil {
		return out, err
	}
	c.evict(ctx, tasksKey(out.ProjectID))
	return out, nil
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	if err := c.Service.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.evictPattern(ctx, tasksKey("*"))
	return nil
}

func (c *Cache) ReorderTasks(ctx context.Context, columnID string, ids []string) error {
	if err := c.Service.ReorderTasks(ctx, columnID, ids); err != nil {
		return err
	}
	c.evictPattern(ctx, tasksKey("*"))
	return nil
}

func readThrough[T any](ctx context.Context, c *Cache, key string, load func() ([]T, error)) ([]T, error) {
	if items, ok := loadCached[T](ctx, c, key); ok {
		return items, nil
	}
	items, err := load()
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, items)
	return items, nil
}

func loadCached[T any](ctx context.Context, c *Cache, key string) ([]T, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var items []T
	if err := sonic.Unmarshal(data, &items); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return items, true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil {
		return
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("cache evict failed")
	}
}

func (c *Cache) evictPattern(ctx context.Context, pattern string) {
	if c.redis == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Str("pattern", pattern).Msg("cache scan failed")
		return
	}
	c.evict(ctx, keys...)
}
