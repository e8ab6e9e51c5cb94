package store

import (
	"database/sql"
	"fmt"

	"gazette/domain"
)

// Every post query joins the author and left-joins the group so the
// rendering layer never needs a second lookup.
const postSelect = `
SELECT p.id, p.text, p.pub_date, u.id, u.username,
       g.id, g.title, g.slug, g.description
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN groups g ON g.id = p.group_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (domain.Post, error) {
	var (
		p     domain.Post
		gID   sql.NullInt64
		title sql.NullString
		slug  sql.NullString
		desc  sql.NullString
	)
	err := row.Scan(&p.ID, &p.Text, &p.PubDate, &p.Author.ID, &p.Author.Username,
		&gID, &title, &slug, &desc)
	if err != nil {
		return domain.Post{}, err
	}
	if gID.Valid {
		p.Group = &domain.Group{
			ID:          gID.Int64,
			Title:       title.String,
			Slug:        slug.String,
			Description: desc.String,
		}
	}
	return p, nil
}

func (s *Store) queryPosts(query string, args ...any) ([]domain.Post, error) {
	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// AllPosts returns every post, newest first.
func (s *Store) AllPosts() ([]domain.Post, error) {
	return s.queryPosts(postSelect + " ORDER BY p.id DESC")
}

// PostsByGroup returns the posts of one group, newest first.
func (s *Store) PostsByGroup(groupID int64) ([]domain.Post, error) {
	return s.queryPosts(postSelect+" WHERE p.group_id = $1 ORDER BY p.id DESC", groupID)
}

// PostsByAuthor returns the posts of one author, newest first.
func (s *Store) PostsByAuthor(userID string) ([]domain.Post, error) {
	return s.queryPosts(postSelect+" WHERE p.author_id = $1 ORDER BY p.id DESC", userID)
}

// PostByID returns (nil, nil) when no post has that id.
func (s *Store) PostByID(id int64) (*domain.Post, error) {
	row := s.DB.QueryRow(postSelect+" WHERE p.id = $1", id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading post %d: %w", id, err)
	}
	return &p, nil
}

func (s *Store) CountPostsByAuthor(userID string) (int, error) {
	var count int
	err := s.DB.QueryRow("SELECT COUNT(*) FROM posts WHERE author_id = $1", userID).Scan(&count)
	return count, err
}

// CreatePost inserts the post and fills in its assigned id.
func (s *Store) CreatePost(p *domain.Post) error {
	var groupID *int64
	if p.Group != nil {
		groupID = &p.Group.ID
	}
	result, err := s.DB.Exec(
		"INSERT INTO posts (text, pub_date, author_id, group_id) VALUES ($1, $2, $3, $4)",
		p.Text, p.PubDate, p.Author.ID, groupID)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new post id: %w", err)
	}
	return nil
}

// UpdatePost rewrites the text and group of an existing post. Author and
// pub_date are set once at creation and never touched here.
func (s *Store) UpdatePost(id int64, change *domain.PostChange) error {
	var groupID *int64
	if change.Group != nil {
		groupID = &change.Group.ID
	}
	_, err := s.DB.Exec("UPDATE posts SET text = $1, group_id = $2 WHERE id = $3",
		change.Text, groupID, id)
	if err != nil {
		return fmt.Errorf("updating post %d: %w", id, err)
	}
	return nil
}
