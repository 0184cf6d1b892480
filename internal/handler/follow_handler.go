package handler

import (
	"net/http"
	"net/url"

	"yatube/internal/middleware"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	follows *service.FollowService
	posts   *service.PostService
}

func NewFollowHandler(follows *service.FollowService, posts *service.PostService) *FollowHandler {
	return &FollowHandler{follows: follows, posts: posts}
}

// Feed lists posts of the authors the user follows.
func (h *FollowHandler) Feed(c *gin.Context) {
	page, err := h.posts.FollowFeed(c.Request.Context(), middleware.CurrentUserID(c), c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "posts/follow.html", gin.H{"page_obj": page})
}

func (h *FollowHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.follows.Follow(c.Request.Context(), middleware.CurrentUserID(c), username); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.follows.Unfollow(c.Request.Context(), middleware.CurrentUserID(c), username); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}
