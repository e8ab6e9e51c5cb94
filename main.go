package main

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/acme/autocert"

	"gazette/handler"
	"gazette/store"
)

type TemplateRegistry struct {
	templates map[string]*template.Template
}

func (t *TemplateRegistry) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		err := errors.New("template not found: " + name)
		return err
	}

	return tmpl.ExecuteTemplate(w, "base.html", data)
}

const DEV_ENV = "dev"
const PRO_ENV = "pro"

const defaultPageSize = 10

func main() {
	env := os.Getenv("ENV")
	if env == "" {
		env = PRO_ENV
	}

	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		dsn = "./gazette.db?_pragma=foreign_keys(1)"
	}
	db, err := store.Open(dsn)
	if err != nil {
		panic(err)
	}

	fmt.Println("Running database schema migrations...")
	if err := db.Migrate(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No database schema migration ran. Database schema already in latest version")
		} else {
			fmt.Printf("Error during database schema migration: %v", err)
		}
	}

	JWTSecret, err := fetchSecret(env)
	if err != nil {
		panic(err)
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(JWTSecret),
		TokenLookup: "cookie:Authorization",
		Skipper: func(c echo.Context) bool {
			if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodOptions {
				return true
			}
			switch c.Path() {
			case "/auth/login", "/auth/signup":
				return true
			}

			return false
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.Redirect(http.StatusFound, "/auth/login")
		},
	}))

	h := handler.Handler{
		Store:        db,
		JWTSecret:    JWTSecret,
		PageSize:     fetchPageSize(),
		EnableSignup: os.Getenv("ENABLE_SIGNUP") == "true",
		AdminUserID:  os.Getenv("ADMIN_USER_ID"),
		Environment:  env,
	}

	// Feeds and post pages
	e.GET("/", h.Index)
	e.GET("/group/:slug", h.GroupFeed)
	e.GET("/profile/:username", h.Profile)
	e.GET("/posts/:id", h.PostDetail)
	e.GET("/create", h.GetCreateForm)
	e.POST("/create", h.CreatePost)
	e.GET("/posts/:id/edit", h.GetEditForm)
	e.POST("/posts/:id/edit", h.EditPost)

	// Accounts
	e.GET("/auth/signup", h.GetSignupForm)
	e.POST("/auth/signup", h.Signup)
	e.GET("/auth/login", h.GetLoginForm)
	e.POST("/auth/login", h.Login)
	e.GET("/auth/logout", h.Logout)

	// Group administration
	e.GET("/groups/new", h.GetNewGroupForm)
	e.POST("/groups/new", h.NewGroup)
	e.POST("/groups/:id/delete", h.DeleteGroup)

	e.Static("/static", "assets")
	e.File("/favicon.ico", "assets/favicon.ico")

	t := map[string]*template.Template{
		"index.html":       template.Must(template.ParseFiles("templates/index.html", "templates/base.html")),
		"group_list.html":  template.Must(template.ParseFiles("templates/group_list.html", "templates/base.html")),
		"group_new.html":   template.Must(template.ParseFiles("templates/group_new.html", "templates/base.html")),
		"profile.html":     template.Must(template.ParseFiles("templates/profile.html", "templates/base.html")),
		"post_detail.html": template.Must(template.ParseFiles("templates/post_detail.html", "templates/base.html")),
		"create_post.html": template.Must(template.ParseFiles("templates/create_post.html", "templates/base.html")),
		"user-login.html":  template.Must(template.ParseFiles("templates/user-login.html", "templates/base.html")),
		"user-signup.html": template.Must(template.ParseFiles("templates/user-signup.html", "templates/base.html")),
	}

	e.Renderer = &TemplateRegistry{
		templates: t,
	}

	// Fancy error pages
	e.HTTPErrorHandler = customHTTPErrorHandler
	addr := os.Getenv("ADDRESS_LISTEN")
	if env == DEV_ENV && addr == "" {
		addr = ":8080"
	}

	if addr != "" {
		e.Logger.Fatal(e.Start(addr))
	} else {
		// Cache certificates to avoid issues with rate limits (https://letsencrypt.org/docs/rate-limits)
		e.AutoTLSManager.Cache = autocert.DirCache("/var/www/.cache")
		if onlyHost := os.Getenv("WHITELIST_HOST"); onlyHost != "" {
			e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(onlyHost)
		}
		e.Pre(middleware.HTTPSRedirect())
		e.Logger.Fatal(e.StartAutoTLS(":443"))
	}
}

func fetchSecret(env string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" && env == DEV_ENV {
		secret = "unsecure"
	}
	if secret == "" {
		return "", errors.New("no secret defined")
	}
	return secret, nil
}

func fetchPageSize() int {
	raw := os.Getenv("PAGE_SIZE")
	if raw == "" {
		return defaultPageSize
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < 1 {
		fmt.Printf("Ignoring invalid PAGE_SIZE %q\n", raw)
		return defaultPageSize
	}
	return size
}

func customHTTPErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
	}
	if code != http.StatusNotFound {
		c.Logger().Error(err)
	}
	errorPage := fmt.Sprintf("assets/%d.html", code)
	if err := c.File(errorPage); err != nil {
		c.Logger().Error(err)
	}
}
