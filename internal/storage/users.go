package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ListUsers returns every user ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := s.q.SelectContext(ctx, &users,
		"SELECT username, name, avatar_url FROM users ORDER BY username"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser fetches one user by username.
func (s *Store) GetUser(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.q.GetContext(ctx, &u, s.rebind(
		"SELECT username, name, avatar_url FROM users WHERE username = ?"), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &u, nil
}

// InsertUser adds a user. Users are only created by seeding.
func (s *Store) InsertUser(ctx context.Context, u User) error {
	_, err := s.q.ExecContext(ctx, s.rebind(
		"INSERT INTO users (username, name, avatar_url) VALUES (?, ?, ?)"),
		u.Username, u.Name, u.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return nil
}
