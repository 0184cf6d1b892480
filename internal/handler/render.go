package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/pkg"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	tmpl403 = "core/403.html"
	tmpl404 = "core/404.html"
	tmpl500 = "core/500.html"
)

// render writes the named template, or the same context as JSON when the
// client asks for it.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := middleware.CurrentUser(c); ok {
		data["user"] = user
	}
	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(status, data)
	default:
		c.HTML(status, name, data)
	}
}

// fail maps a service error onto an error page.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		notFound(c)
	case errors.Is(err, service.ErrForbidden):
		render(c, http.StatusForbidden, tmpl403, gin.H{"error": "forbidden"})
	default:
		_ = c.Error(err)
		pkg.Logger.ErrorContext(c.Request.Context(), "request failed", slog.String("error", err.Error()))
		render(c, http.StatusInternalServerError, tmpl500, gin.H{"error": "internal server error"})
	}
}

// unreadable reports a request body that could not be bound at all.
func unreadable() form.Errors {
	errs := form.Errors{}
	errs.Add(form.NonFieldErrors, "The submitted data could not be read.")
	return errs
}

func notFound(c *gin.Context) {
	render(c, http.StatusNotFound, tmpl404, gin.H{"error": "not found", "path": c.Request.URL.Path})
}

// NoRoute answers unknown paths with the 404 page.
func NoRoute(c *gin.Context) {
	notFound(c)
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
