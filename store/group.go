package store

import (
	"database/sql"
	"fmt"

	"gazette/domain"
)

// Groups returns every group ordered by title, for the post form's selector.
func (s *Store) Groups() ([]domain.Group, error) {
	rows, err := s.DB.Query("SELECT id, title, slug, description FROM groups ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GroupByID returns (nil, nil) when no group has that id.
func (s *Store) GroupByID(id int64) (*domain.Group, error) {
	return s.scanGroup(s.DB.QueryRow(
		"SELECT id, title, slug, description FROM groups WHERE id = $1", id))
}

// GroupBySlug returns (nil, nil) when no group has that slug.
func (s *Store) GroupBySlug(slug string) (*domain.Group, error) {
	return s.scanGroup(s.DB.QueryRow(
		"SELECT id, title, slug, description FROM groups WHERE slug = $1", slug))
}

func (s *Store) scanGroup(row *sql.Row) (*domain.Group, error) {
	var g domain.Group
	err := row.Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading group: %w", err)
	}
	return &g, nil
}

// CreateGroup inserts the group and fills in its assigned id.
func (s *Store) CreateGroup(g *domain.Group) error {
	result, err := s.DB.Exec(
		"INSERT INTO groups (title, slug, description) VALUES ($1, $2, $3)",
		g.Title, g.Slug, g.Description)
	if err != nil {
		return fmt.Errorf("inserting group: %w", err)
	}
	g.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new group id: %w", err)
	}
	return nil
}

// DeleteGroup removes the group. Its posts survive with a null group via the
// foreign key's ON DELETE SET NULL.
func (s *Store) DeleteGroup(id int64) error {
	_, err := s.DB.Exec("DELETE FROM groups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting group %d: %w", id, err)
	}
	return nil
}
