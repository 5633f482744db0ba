package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"hub/internal/models"
)

// FirstUser returns the earliest created user.
func (s *Store) FirstUser(ctx context.Context) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, name, username, avatar_url, created_at, updated_at
        FROM users ORDER BY created_at, id LIMIT 1`).
		Scan(&u.ID, &u.Email, &u.Name, &u.Username, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user: %w", models.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("first user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user; usernames are unique.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return models.User{}, fmt.Errorf("username must not be empty: %w", models.ErrInvalid)
	}
	if u.Name == "" {
		u.Name = u.Username
	}
	now := s.now()
	u.ID = newID()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `INSERT INTO users(id, email, name, username, avatar_url, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Username, u.AvatarURL, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return models.User{}, translate(err, "insert user")
	}
	s.logger.Info().Str("user_id", u.ID).Str("username", u.Username).Msg("created user")
	return u, nil
}

// EnsureUser returns the first user, creating u when the table is empty.
func (s *Store) EnsureUser(ctx context.Context, u models.User) (models.User, error) {
	existing, err := s.FirstUser(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, err
	}
	return s.CreateUser(ctx, u)
}

// JoinWaitlist records a signup. A repeated email is a conflict.
func (s *Store) JoinWaitlist(ctx context.Context, email string) (models.WaitlistEntry, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return models.WaitlistEntry{}, fmt.Errorf("email %q: %w", email, models.ErrInvalid)
	}
	entry := models.WaitlistEntry{
		ID:        newID(),
		Email:     strings.ToLower(addr.Address),
		CreatedAt: s.now(),
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO waitlist(id, email, created_at) VALUES(?, ?, ?)`, entry.ID, entry.Email, entry.CreatedAt)
	if err != nil {
		return models.WaitlistEntry{}, translate(err, "join waitlist")
	}
	s.logger.Info().Str("entry_id", entry.ID).Msg("waitlist signup")
	return entry, nil
}
