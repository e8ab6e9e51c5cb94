package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	f.handler.EnableSignup = true

	t.Run("signup creates the user and logs in", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"s3cret"}}
		c, rec := f.post("/auth/signup", form, nil)
		require.NoError(t, f.handler.Signup(c))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
		assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), "Authorization=")

		user, err := f.handler.Store.UserByUsername("alice")
		require.NoError(t, err)
		require.NotNil(t, user)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"other"}}
		c, rec := f.post("/auth/signup", form, nil)
		require.NoError(t, f.handler.Signup(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("login succeeds with the right password", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"s3cret"}}
		c, rec := f.post("/auth/login", form, nil)
		require.NoError(t, f.handler.Login(c))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), "Authorization=")
	})

	t.Run("login rejects a wrong password", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"wrong"}}
		c, rec := f.post("/auth/login", form, nil)
		require.NoError(t, f.handler.Login(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login rejects an unknown username", func(t *testing.T) {
		form := url.Values{"username": {"nobody"}, "password": {"s3cret"}}
		c, rec := f.post("/auth/login", form, nil)
		require.NoError(t, f.handler.Login(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSignupDisabledOutsideDev(t *testing.T) {
	f := newFixture(t)
	f.handler.EnableSignup = false
	f.handler.Environment = "pro"

	form := url.Values{"username": {"alice"}, "password": {"s3cret"}}
	c, rec := f.post("/auth/signup", form, nil)
	require.NoError(t, f.handler.Signup(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGroupAdmin(t *testing.T) {
	f := newFixture(t)
	admin := f.createUser(t, "admin")
	alice := f.createUser(t, "alice")
	f.handler.AdminUserID = admin.ID

	t.Run("admin creates a group", func(t *testing.T) {
		form := url.Values{"title": {"Cats"}, "slug": {"cats"}, "description": {"about cats"}}
		c, rec := f.post("/groups/new", form, &admin)
		require.NoError(t, f.handler.NewGroup(c))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/group/cats", rec.Header().Get(echo.HeaderLocation))

		g, err := f.handler.Store.GroupBySlug("cats")
		require.NoError(t, err)
		require.NotNil(t, g)
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		form := url.Values{"title": {"More Cats"}, "slug": {"cats"}}
		c, rec := f.post("/groups/new", form, &admin)
		require.NoError(t, f.handler.NewGroup(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("non-admin is redirected away", func(t *testing.T) {
		form := url.Values{"title": {"Dogs"}, "slug": {"dogs"}}
		c, rec := f.post("/groups/new", form, &alice)
		require.NoError(t, f.handler.NewGroup(c))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

		g, err := f.handler.Store.GroupBySlug("dogs")
		require.NoError(t, err)
		assert.Nil(t, g)
	})
}
