package handler

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"

	"gazette/domain"
)

var slugRegexp = regexp.MustCompilePOSIX("^[a-z0-9-]+$")

// Groups are managed by the site admin only; everyone else lands back on the
// front page.
func (h *Handler) requireAdmin(c echo.Context) bool {
	userID := getUserID(c, h.JWTSecret)
	return userID != "" && userID == h.AdminUserID
}

func (h *Handler) GetNewGroupForm(c echo.Context) error {
	if !h.requireAdmin(c) {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.Render(http.StatusOK, "group_new.html", struct{ LoggedIn bool }{true})
}

func (h *Handler) NewGroup(c echo.Context) error {
	if !h.requireAdmin(c) {
		return c.Redirect(http.StatusFound, "/")
	}

	group := domain.Group{
		Title:       c.FormValue("title"),
		Slug:        slugRegexp.FindString(c.FormValue("slug")),
		Description: c.FormValue("description"),
	}
	if group.Title == "" || group.Slug == "" {
		return c.HTML(http.StatusBadRequest, "Bad request")
	}

	existing, err := h.Store.GroupBySlug(group.Slug)
	if err != nil {
		return fmt.Errorf("checking slug: %w", err)
	}
	if existing != nil {
		return c.HTML(http.StatusConflict, "Slug already taken")
	}

	if err := h.Store.CreateGroup(&group); err != nil {
		return fmt.Errorf("creating group: %w", err)
	}
	return c.Redirect(http.StatusFound, "/group/"+group.Slug)
}

// DeleteGroup removes a group; its posts stay behind without a group.
func (h *Handler) DeleteGroup(c echo.Context) error {
	if !h.requireAdmin(c) {
		return c.Redirect(http.StatusFound, "/")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown group")
	}
	if err := h.Store.DeleteGroup(id); err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	return c.Redirect(http.StatusFound, "/")
}
