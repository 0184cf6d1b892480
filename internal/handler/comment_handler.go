package handler

import (
	"errors"
	"net/http"
	"strconv"

	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *service.CommentService
	posts    *PostHandler
}

func NewCommentHandler(comments *service.CommentService, posts *PostHandler) *CommentHandler {
	return &CommentHandler{comments: comments, posts: posts}
}

// Add stores a comment. An invalid comment re-renders the post with the
// form errors.
func (h *CommentHandler) Add(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	f := &form.CommentForm{}
	if err := c.ShouldBind(f); err != nil {
		f.Errors = form.Errors{}
		f.Errors.Add("text", "This field is required.")
		h.posts.renderDetail(c, http.StatusBadRequest, id, f)
		return
	}

	_, err := h.comments.AddComment(c.Request.Context(), id, middleware.CurrentUserID(c), f)
	var ferr form.Errors
	if errors.As(err, &ferr) {
		h.posts.renderDetail(c, http.StatusBadRequest, id, f)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/posts/"+strconv.FormatUint(id, 10)+"/")
}
