package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/pkg"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves signup, login and logout.
type UserHandler struct {
	users  *service.UserService
	cookie middleware.SessionCookie
}

func NewUserHandler(users *service.UserService, cookie middleware.SessionCookie) *UserHandler {
	return &UserHandler{users: users, cookie: cookie}
}

func (h *UserHandler) SignupForm(c *gin.Context) {
	render(c, http.StatusOK, "users/signup.html", gin.H{"form": &form.SignupForm{}})
}

func (h *UserHandler) Signup(c *gin.Context) {
	f := &form.SignupForm{}
	if err := c.ShouldBind(f); err != nil {
		f.Errors = unreadable()
		render(c, http.StatusBadRequest, "users/signup.html", gin.H{"form": f})
		return
	}

	_, token, err := h.users.Signup(c.Request.Context(), f)
	var ferr form.Errors
	if errors.As(err, &ferr) {
		render(c, http.StatusBadRequest, "users/signup.html", gin.H{"form": f})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	h.setToken(c, token)
	c.Redirect(http.StatusFound, "/")
}

func (h *UserHandler) LoginForm(c *gin.Context) {
	render(c, http.StatusOK, "users/login.html", gin.H{"form": &form.LoginForm{Next: c.Query("next")}})
}

// Login starts a session and follows next when it points inside the site.
func (h *UserHandler) Login(c *gin.Context) {
	f := &form.LoginForm{}
	if err := c.ShouldBind(f); err != nil {
		f.Errors = unreadable()
		f.Next = c.Query("next")
		render(c, http.StatusBadRequest, "users/login.html", gin.H{"form": f})
		return
	}
	if f.Next == "" {
		f.Next = c.Query("next")
	}

	_, token, err := h.users.Login(c.Request.Context(), f)
	var ferr form.Errors
	if errors.As(err, &ferr) {
		render(c, http.StatusBadRequest, "users/login.html", gin.H{"form": f})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	h.setToken(c, token)
	c.Redirect(http.StatusFound, safeNext(f.Next))
}

func (h *UserHandler) Logout(c *gin.Context) {
	if id := middleware.CurrentUserID(c); id != 0 {
		if err := h.users.Logout(c.Request.Context(), id); err != nil {
			pkg.Logger.WarnContext(c.Request.Context(), "logout failed", slog.String("error", err.Error()))
		}
	}
	h.cookie.Clear(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *UserHandler) setToken(c *gin.Context, token string) {
	h.cookie.Set(c, token)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}
