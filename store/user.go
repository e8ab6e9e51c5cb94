package store

import (
	"database/sql"
	"fmt"
	"time"

	"gazette/domain"
)

// CreateUser inserts the user with an already-hashed password.
func (s *Store) CreateUser(u *domain.User, passwordHash []byte) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := s.DB.Exec(
		"INSERT INTO users (id, username, password, createdAt, updatedAt) VALUES ($1, $2, $3, $4, $5)",
		u.ID, u.Username, passwordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *Store) CountUsersByUsername(username string) (int, error) {
	var count int
	err := s.DB.QueryRow("SELECT COUNT(username) FROM users WHERE username = $1", username).Scan(&count)
	return count, err
}

// UserByID returns (nil, nil) when no user has that id.
func (s *Store) UserByID(id string) (*domain.User, error) {
	return s.scanUser(s.DB.QueryRow(
		"SELECT id, username, createdAt, updatedAt FROM users WHERE id = $1", id))
}

// UserByUsername returns (nil, nil) when no user has that username.
func (s *Store) UserByUsername(username string) (*domain.User, error) {
	return s.scanUser(s.DB.QueryRow(
		"SELECT id, username, createdAt, updatedAt FROM users WHERE username = $1", username))
}

// UserWithPassword returns the user and the stored password hash, for the
// login check. The user is nil when the username is unknown.
func (s *Store) UserWithPassword(username string) (*domain.User, string, error) {
	var (
		u    domain.User
		hash string
	)
	row := s.DB.QueryRow(
		"SELECT id, username, password, createdAt, updatedAt FROM users WHERE username = $1", username)
	err := row.Scan(&u.ID, &u.Username, &hash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading user %q: %w", username, err)
	}
	return &u, hash, nil
}

func (s *Store) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &u, nil
}
