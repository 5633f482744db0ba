package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const placeholderPrefix = "temp-"

// newPlaceholderID returns a session-local id for an unconfirmed entity.
func newPlaceholderID() string {
	return placeholderPrefix + uuid.NewString()
}

// IsPlaceholder reports whether id was assigned locally and has not been
// confirmed by the server yet.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// subscribers fans state change notifications out to listeners.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (s *subscribers) subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func())
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

// notify calls every listener outside the lock, in subscription order.
func (s *subscribers) notify() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// cache holds one store's entity state. The lock is never held across a
// remote call.
type cache[S any] struct {
	mu     sync.RWMutex
	state  S
	clone  func(S) S
	subs   *subscribers
	logger zerolog.Logger
}

func newCache[S any](initial S, clone func(S) S, subs *subscribers, logger zerolog.Logger) *cache[S] {
	return &cache[S]{state: initial, clone: clone, subs: subs, logger: logger}
}

// view runs fn with read access to the state.
func (c *cache[S]) view(fn func(s *S)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(&c.state)
}

// update runs fn with write access and notifies subscribers afterwards.
func (c *cache[S]) update(fn func(s *S)) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()
	c.subs.notify()
}

// replace swaps the whole state for v.
func (c *cache[S]) replace(v S) {
	c.update(func(s *S) { *s = v })
}

// change describes one optimistic mutation.
type change[S, R any] struct {
	op string
	// apply mutates the state before the remote call. Returning an error
	// aborts the change with nothing applied and no remote call made.
	apply func(s *S) error
	call  func(ctx context.Context) (R, error)
	// reconcile folds the server-confirmed result into the state.
	reconcile func(s *S, r R)
	// revert undoes apply after a failed call. When nil the snapshot taken
	// before apply is restored.
	revert func(ctx context.Context, snapshot S)
}

// commit snapshots the state, applies the change locally, performs the
// remote call and then either reconciles or reverts. A remote error is
// always returned to the caller after the state has been made consistent.
func commit[S, R any](ctx context.Context, c *cache[S], ch change[S, R]) (R, error) {
	var zero R

	c.mu.Lock()
	snapshot := c.clone(c.state)
	if ch.apply != nil {
		if err := ch.apply(&c.state); err != nil {
			c.mu.Unlock()
			return zero, err
		}
	}
	c.mu.Unlock()
	c.subs.notify()

	r, err := ch.call(ctx)
	if err != nil {
		if ch.revert != nil {
			ch.revert(ctx, snapshot)
		} else {
			c.replace(snapshot)
		}
		c.logger.Warn().Err(err).Str("op", ch.op).Msg("remote call failed, optimistic change reverted")
		return zero, err
	}

	if ch.reconcile != nil {
		c.update(func(s *S) { ch.reconcile(s, r) })
	}
	return r, nil
}
