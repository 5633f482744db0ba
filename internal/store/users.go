package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"hub/internal/models"
	"hub/internal/remote"
)

var (
	// ErrNoUser is the absence of a current user. Reads treat it as an
	// empty result; creating a project requires a user.
	ErrNoUser = errors.New("no user found")
	// ErrNoStatus means no project status could be resolved for a draft.
	ErrNoStatus = errors.New("no project status available")
)

// UserSource yields the current user, if any.
type UserSource interface {
	User() (models.User, bool)
}

// UserStore holds the single current user of the session.
type UserStore struct {
	remote remote.Users
	logger zerolog.Logger
	subs   subscribers

	mu      sync.RWMutex
	user    *models.User
	loading bool
	err     error
}

// NewUserStore returns a store in the loading state; call Load once per session.
func NewUserStore(r remote.Users, logger zerolog.Logger) *UserStore {
	return &UserStore{
		remote:  r,
		logger:  logger.With().Str("component", "user_store").Logger(),
		loading: true,
	}
}

// Load fetches the first user row. A missing row sets Err to ErrNoUser;
// any other failure is wrapped. The error is also returned.
func (s *UserStore) Load(ctx context.Context) error {
	s.set(func() {
		s.loading = true
		s.err = nil
	})

	u, err := s.remote.FirstUser(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			err = ErrNoUser
			s.logger.Warn().Msg("no user row exists")
		} else {
			err = fmt.Errorf("load user: %w", err)
			s.logger.Error().Err(err).Msg("failed to load user")
		}
		s.set(func() {
			s.user = nil
			s.loading = false
			s.err = err
		})
		return err
	}

	s.set(func() {
		s.user = &u
		s.loading = false
	})
	s.logger.Debug().Str("user_id", u.ID).Msg("loaded user")
	return nil
}

// User returns the resolved user.
func (s *UserStore) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Current is User for callers that only need the user, or the zero value.
func (s *UserStore) Current() models.User {
	u, _ := s.User()
	return u
}

// SetUser replaces the current user locally; nil clears it.
func (s *UserStore) SetUser(u *models.User) {
	s.set(func() {
		if u == nil {
			s.user = nil
			return
		}
		c := *u
		s.user = &c
		s.err = nil
	})
}

// Loading reports whether a load is in progress or has not run yet.
func (s *UserStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last load failure.
func (s *UserStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Subscribe registers fn to run after every state change.
func (s *UserStore) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.subscribe(fn)
}

func (s *UserStore) set(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.subs.notify()
}
