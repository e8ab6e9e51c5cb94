package handler

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"gazette/domain"
	"gazette/paginate"
)

var sanitizerStrict = bluemonday.StrictPolicy()

type GroupDTO struct {
	ID          int64
	Title       string
	Slug        string
	Description string
}

type PostDTO struct {
	ID      int64
	Text    template.HTML
	PubDate string
	Author  string
	Group   *GroupDTO
}

func groupDTO(g domain.Group) GroupDTO {
	return GroupDTO{
		ID:          g.ID,
		Title:       sanitizerStrict.Sanitize(g.Title),
		Slug:        g.Slug,
		Description: sanitizerStrict.Sanitize(g.Description),
	}
}

func postDTO(p domain.Post) PostDTO {
	dto := PostDTO{
		ID:      p.ID,
		Text:    safeMd(p.Text),
		PubDate: p.PubDate.Format(time.DateOnly),
		Author:  p.Author.Username,
	}
	if p.Group != nil {
		g := groupDTO(*p.Group)
		dto.Group = &g
	}
	return dto
}

func postDTOs(posts []domain.Post) []PostDTO {
	dtos := make([]PostDTO, 0, len(posts))
	for _, p := range posts {
		dtos = append(dtos, postDTO(p))
	}
	return dtos
}

// postFormView is the payload of create_post.html for both the create and
// the edit flow.
type postFormView struct {
	Form     domain.PostForm
	Errors   domain.FieldErrors
	Groups   []domain.Group
	IsEdit   bool
	PostID   int64
	LoggedIn bool
}

func (h *Handler) page(c echo.Context, posts []domain.Post) paginate.Page[PostDTO] {
	return paginate.Paginate(postDTOs(posts), h.PageSize, paginate.ParseNumber(c.QueryParam("page")))
}

func (h *Handler) Index(c echo.Context) error {
	posts, err := h.Store.AllPosts()
	if err != nil {
		return fmt.Errorf("loading feed: %w", err)
	}

	return c.Render(http.StatusOK, "index.html", struct {
		Page     paginate.Page[PostDTO]
		LoggedIn bool
	}{
		Page:     h.page(c, posts),
		LoggedIn: isLoggedIn(c, h.JWTSecret),
	})
}

func (h *Handler) GroupFeed(c echo.Context) error {
	group, err := h.Store.GroupBySlug(c.Param("slug"))
	if err != nil {
		return fmt.Errorf("loading group: %w", err)
	}
	if group == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown group")
	}

	posts, err := h.Store.PostsByGroup(group.ID)
	if err != nil {
		return fmt.Errorf("loading group feed: %w", err)
	}

	return c.Render(http.StatusOK, "group_list.html", struct {
		Group    GroupDTO
		Page     paginate.Page[PostDTO]
		LoggedIn bool
	}{
		Group:    groupDTO(*group),
		Page:     h.page(c, posts),
		LoggedIn: isLoggedIn(c, h.JWTSecret),
	})
}

func (h *Handler) Profile(c echo.Context) error {
	user, err := h.Store.UserByUsername(c.Param("username"))
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown user")
	}

	posts, err := h.Store.PostsByAuthor(user.ID)
	if err != nil {
		return fmt.Errorf("loading profile feed: %w", err)
	}

	return c.Render(http.StatusOK, "profile.html", struct {
		Author    string
		PostCount int
		Page      paginate.Page[PostDTO]
		LoggedIn  bool
	}{
		Author:    sanitizerStrict.Sanitize(user.Username),
		PostCount: len(posts),
		Page:      h.page(c, posts),
		LoggedIn:  isLoggedIn(c, h.JWTSecret),
	})
}

func (h *Handler) PostDetail(c echo.Context) error {
	post, err := h.postFromPath(c)
	if err != nil {
		return err
	}

	postCount, err := h.Store.CountPostsByAuthor(post.Author.ID)
	if err != nil {
		return fmt.Errorf("counting author posts: %w", err)
	}

	return c.Render(http.StatusOK, "post_detail.html", struct {
		Post      PostDTO
		Preview   string
		PostCount int
		LoggedIn  bool
		CanEdit   bool
	}{
		Post:      postDTO(*post),
		Preview:   sanitizerStrict.Sanitize(post.Preview()),
		PostCount: postCount,
		LoggedIn:  isLoggedIn(c, h.JWTSecret),
		CanEdit:   getUserID(c, h.JWTSecret) == post.Author.ID,
	})
}

func (h *Handler) GetCreateForm(c echo.Context) error {
	if getUserID(c, h.JWTSecret) == "" {
		return c.Redirect(http.StatusFound, "/auth/login")
	}
	return h.renderPostForm(c, postFormView{LoggedIn: true})
}

func (h *Handler) CreatePost(c echo.Context) error {
	userID := getUserID(c, h.JWTSecret)
	if userID == "" {
		return c.Redirect(http.StatusFound, "/auth/login")
	}
	user, err := h.Store.UserByID(userID)
	if err != nil {
		return fmt.Errorf("loading author: %w", err)
	}
	if user == nil {
		return c.Redirect(http.StatusFound, "/auth/login")
	}

	form := domain.PostForm{Text: c.FormValue("text"), Group: c.FormValue("group")}
	change, fieldErrs, err := form.Validate(h.Store)
	if err != nil {
		return fmt.Errorf("validating post: %w", err)
	}
	if fieldErrs != nil {
		return h.renderPostForm(c, postFormView{Form: form, Errors: fieldErrs, LoggedIn: true})
	}

	post := domain.Post{
		Text:    change.Text,
		PubDate: time.Now().UTC(),
		Author:  *user,
		Group:   change.Group,
	}
	if err := h.Store.CreatePost(&post); err != nil {
		return fmt.Errorf("creating post: %w", err)
	}

	return c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

func (h *Handler) GetEditForm(c echo.Context) error {
	post, err := h.postFromPath(c)
	if err != nil {
		return err
	}
	if getUserID(c, h.JWTSecret) != post.Author.ID {
		return h.redirectToDetail(c, post.ID)
	}

	form := domain.PostForm{Text: post.Text}
	if post.Group != nil {
		form.Group = strconv.FormatInt(post.Group.ID, 10)
	}
	return h.renderPostForm(c, postFormView{Form: form, IsEdit: true, PostID: post.ID, LoggedIn: true})
}

func (h *Handler) EditPost(c echo.Context) error {
	post, err := h.postFromPath(c)
	if err != nil {
		return err
	}
	// Only the author may edit; anyone else is sent back to the post.
	if getUserID(c, h.JWTSecret) != post.Author.ID {
		return h.redirectToDetail(c, post.ID)
	}

	form := domain.PostForm{Text: c.FormValue("text"), Group: c.FormValue("group")}
	change, fieldErrs, err := form.Validate(h.Store)
	if err != nil {
		return fmt.Errorf("validating post: %w", err)
	}
	if fieldErrs != nil {
		return h.renderPostForm(c, postFormView{Form: form, Errors: fieldErrs, IsEdit: true, PostID: post.ID, LoggedIn: true})
	}

	if err := h.Store.UpdatePost(post.ID, change); err != nil {
		return fmt.Errorf("updating post: %w", err)
	}
	return h.redirectToDetail(c, post.ID)
}

func (h *Handler) renderPostForm(c echo.Context, view postFormView) error {
	groups, err := h.Store.Groups()
	if err != nil {
		return fmt.Errorf("loading groups: %w", err)
	}
	view.Groups = groups
	return c.Render(http.StatusOK, "create_post.html", view)
}

// postFromPath loads the post named by the :id path parameter. A malformed
// or unknown id is a 404.
func (h *Handler) postFromPath(c echo.Context) (*domain.Post, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown post")
	}
	post, err := h.Store.PostByID(id)
	if err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}
	if post == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown post")
	}
	return post, nil
}

func (h *Handler) redirectToDetail(c echo.Context, id int64) error {
	return c.Redirect(http.StatusFound, "/posts/"+strconv.FormatInt(id, 10))
}

func mdToHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	return markdown.Render(doc, renderer)
}

func safeMd(content string) template.HTML {
	maybeUnsafeHTML := mdToHTML(content)
	return template.HTML(bluemonday.UGCPolicy().SanitizeBytes(maybeUnsafeHTML))
}
