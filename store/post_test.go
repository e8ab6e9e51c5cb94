package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazette/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	s, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func createUser(t *testing.T, s *Store, username string) domain.User {
	t.Helper()
	u := domain.User{ID: uuid.NewString(), Username: username}
	require.NoError(t, s.CreateUser(&u, []byte("hash")))
	return u
}

func createGroup(t *testing.T, s *Store, title, slug string) domain.Group {
	t.Helper()
	g := domain.Group{Title: title, Slug: slug, Description: title + " group"}
	require.NoError(t, s.CreateGroup(&g))
	return g
}

func createPost(t *testing.T, s *Store, text string, author domain.User, group *domain.Group) domain.Post {
	t.Helper()
	p := domain.Post{Text: text, PubDate: time.Now().UTC(), Author: author, Group: group}
	require.NoError(t, s.CreatePost(&p))
	return p
}

func TestPostQueriesOrderAndFilter(t *testing.T) {
	s := testStore(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	cats := createGroup(t, s, "Cats", "cats")
	dogs := createGroup(t, s, "Dogs", "dogs")

	first := createPost(t, s, "first", alice, &cats)
	second := createPost(t, s, "second", bob, &dogs)
	third := createPost(t, s, "third", alice, nil)

	t.Run("all posts newest first with group joined", func(t *testing.T) {
		posts, err := s.AllPosts()
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, []int64{third.ID, second.ID, first.ID},
			[]int64{posts[0].ID, posts[1].ID, posts[2].ID})
		assert.Nil(t, posts[0].Group)
		require.NotNil(t, posts[2].Group)
		assert.Equal(t, "cats", posts[2].Group.Slug)
		assert.Equal(t, "alice", posts[2].Author.Username)
	})

	t.Run("by group", func(t *testing.T) {
		posts, err := s.PostsByGroup(cats.ID)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, first.ID, posts[0].ID)
	})

	t.Run("by author", func(t *testing.T) {
		posts, err := s.PostsByAuthor(alice.ID)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, []int64{third.ID, first.ID}, []int64{posts[0].ID, posts[1].ID})

		count, err := s.CountPostsByAuthor(alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("by id", func(t *testing.T) {
		p, err := s.PostByID(second.ID)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "second", p.Text)
		assert.Equal(t, "bob", p.Author.Username)

		missing, err := s.PostByID(9999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestUpdatePostMovesItOutOfGroupFeed(t *testing.T) {
	s := testStore(t)
	alice := createUser(t, s, "alice")
	cats := createGroup(t, s, "Cats", "cats")

	var moved domain.Post
	for i := 0; i < 15; i++ {
		p := createPost(t, s, "text", alice, &cats)
		if i == 0 {
			moved = p
		}
	}

	require.NoError(t, s.UpdatePost(moved.ID, &domain.PostChange{Text: "moved out"}))

	posts, err := s.PostsByGroup(cats.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 14)
	for _, p := range posts {
		assert.NotEqual(t, moved.ID, p.ID)
	}

	p, err := s.PostByID(moved.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "moved out", p.Text)
	assert.Nil(t, p.Group)
	// Author and pub_date survive an update untouched.
	assert.Equal(t, alice.ID, p.Author.ID)
	assert.Equal(t, moved.PubDate.Unix(), p.PubDate.Unix())
}

func TestDeleteGroupDetachesPosts(t *testing.T) {
	s := testStore(t)
	alice := createUser(t, s, "alice")
	cats := createGroup(t, s, "Cats", "cats")
	post := createPost(t, s, "survivor", alice, &cats)

	require.NoError(t, s.DeleteGroup(cats.ID))

	g, err := s.GroupBySlug("cats")
	require.NoError(t, err)
	assert.Nil(t, g)

	p, err := s.PostByID(post.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.Group)
	assert.Equal(t, "survivor", p.Text)
}

func TestGroupLookups(t *testing.T) {
	s := testStore(t)
	cats := createGroup(t, s, "Cats", "cats")
	createGroup(t, s, "Dogs", "dogs")

	g, err := s.GroupBySlug("cats")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, cats.ID, g.ID)

	missing, err := s.GroupBySlug("birds")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := s.Groups()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Cats", all[0].Title)
	assert.Equal(t, "Dogs", all[1].Title)
}

func TestUserLookups(t *testing.T) {
	s := testStore(t)
	alice := createUser(t, s, "alice")

	u, err := s.UserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, alice.ID, u.ID)

	missing, err := s.UserByUsername("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	withPassword, hash, err := s.UserWithPassword("alice")
	require.NoError(t, err)
	require.NotNil(t, withPassword)
	assert.Equal(t, "hash", hash)

	count, err := s.CountUsersByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
