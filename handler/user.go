package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"gazette/domain"
)

func (h *Handler) Login(c echo.Context) error {
	formUsername := c.FormValue("username")
	formPassword := c.FormValue("password")

	if len(formUsername) == 0 || len(formPassword) == 0 {
		return c.HTML(http.StatusBadRequest, "Bad request")
	}

	user, storedPassword, err := h.Store.UserWithPassword(formUsername)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	if user == nil {
		return c.HTML(http.StatusBadRequest, "Wrong username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedPassword), []byte(formPassword)); err != nil {
		return c.HTML(http.StatusBadRequest, "Wrong username or password")
	}

	cookie, err := authorizationCookie(user.ID, h.JWTSecret)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Signup(c echo.Context) error {
	if h.Environment != "dev" && !h.EnableSignup {
		return c.HTML(http.StatusForbidden, "<h1>Forbidden!</h1><p>Sign up has been disabled.</p>")
	}

	user := domain.User{
		ID:       uuid.NewString(),
		Username: c.FormValue("username"),
	}
	if err := user.ValidateUsername(); err != nil {
		return c.HTML(http.StatusBadRequest, "Username too short")
	}

	count, err := h.Store.CountUsersByUsername(user.Username)
	if err != nil {
		return fmt.Errorf("checking username: %w", err)
	}
	if count != 0 {
		return c.HTML(http.StatusConflict, "Username already taken")
	}

	password := c.FormValue("password")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := h.Store.CreateUser(&user, hashedPassword); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	cookie, err := authorizationCookie(user.ID, h.JWTSecret)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Logout(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = "Authorization"
	cookie.Value = ""
	cookie.Path = "/"

	cookie.Expires = time.Now().Add(-1 * time.Second)
	c.SetCookie(cookie)
	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) GetSignupForm(c echo.Context) error {
	return c.Render(http.StatusOK, "user-signup.html", struct{ LoggedIn bool }{})
}

func (h *Handler) GetLoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "user-login.html", struct{ LoggedIn bool }{})
}

func authorizationCookie(ID string, secret string) (*http.Cookie, error) {
	if secret == "" {
		return nil, errors.New("missing secret")
	}
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["userID"] = ID
	exp := time.Now().Add(time.Hour * 24 * 7)
	claims["expiration"] = exp.Unix()
	signedData, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	cookie := new(http.Cookie)
	cookie.Name = "Authorization"
	cookie.Value = signedData
	cookie.Expires = exp
	cookie.Path = "/"

	return cookie, nil
}

func isLoggedIn(c echo.Context, JWTSecret string) bool {
	return getUserID(c, JWTSecret) != ""
}

// getUserID returns the authenticated user's id, or "" when the request
// carries no valid token.
func getUserID(c echo.Context, JWTSecret string) string {
	if JWTSecret == "" {
		return ""
	}

	cookie, err := c.Cookie("Authorization")
	if err != nil {
		return ""
	}

	token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
		// SigningMethodHMAC implements the HMAC-SHA family of signing methods.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(JWTSecret), nil
	})
	if err != nil {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ""
	}

	expiration, ok := claims["expiration"].(float64)
	if !ok || time.Now().Compare(time.Unix(int64(expiration), 0)) > 0 {
		return ""
	}

	userID, ok := claims["userID"].(string)
	if !ok {
		return ""
	}
	return userID
}
