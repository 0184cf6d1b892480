package handler

import (
	"errors"
	"net/http"
	"strconv"

	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/model"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts    *service.PostService
	comments *service.CommentService
}

func NewPostHandler(posts *service.PostService, comments *service.CommentService) *PostHandler {
	return &PostHandler{posts: posts, comments: comments}
}

// Index lists every post.
func (h *PostHandler) Index(c *gin.Context) {
	page, err := h.posts.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "posts/index.html", gin.H{"page_obj": page})
}

// GroupPosts lists the posts of one group.
func (h *PostHandler) GroupPosts(c *gin.Context) {
	group, page, err := h.posts.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "posts/group_list.html", gin.H{"group": group, "page_obj": page})
}

// Profile lists the posts of one author.
func (h *PostHandler) Profile(c *gin.Context) {
	view, err := h.posts.Profile(c.Request.Context(), c.Param("username"), middleware.CurrentUserID(c), c.Query("page"))
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "posts/profile.html", gin.H{
		"author":     view.Author,
		"page_obj":   view.Page,
		"count":      view.Count,
		"following":  view.Following,
		"followers":  view.Followers,
		"followings": view.Followings,
	})
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	h.renderDetail(c, http.StatusOK, id, &form.CommentForm{})
}

// renderDetail shows a post with its comments and the given comment form.
func (h *PostHandler) renderDetail(c *gin.Context, status int, postID uint64, f *form.CommentForm) {
	ctx := c.Request.Context()
	post, err := h.posts.Detail(ctx, postID)
	if err != nil {
		fail(c, err)
		return
	}
	comments, err := h.comments.ListForPost(ctx, post.ID)
	if err != nil {
		fail(c, err)
		return
	}
	count, err := h.posts.AuthorPostCount(ctx, post.AuthorID)
	if err != nil {
		fail(c, err)
		return
	}
	render(c, status, "posts/post_detail.html", gin.H{
		"one_post": post,
		"comments": comments,
		"form":     f,
		"count":    count,
	})
}

func (h *PostHandler) CreateForm(c *gin.Context) {
	h.renderPostForm(c, http.StatusOK, &form.PostForm{}, nil)
}

// Create stores a new post and sends the author to their profile.
func (h *PostHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	f, ok := bindPostForm(c)
	if !ok {
		h.renderPostForm(c, http.StatusBadRequest, f, nil)
		return
	}

	_, err := h.posts.CreatePost(c.Request.Context(), user.ID, f)
	var ferr form.Errors
	if errors.As(err, &ferr) {
		h.renderPostForm(c, http.StatusBadRequest, f, nil)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}

func (h *PostHandler) EditForm(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	post, err := h.posts.PostForEdit(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.renderPostForm(c, http.StatusOK, form.NewPostFormFromPost(post), post)
}

// Edit saves the author's changes. Other users get 403.
func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		notFound(c)
		return
	}
	ctx := c.Request.Context()
	userID := middleware.CurrentUserID(c)
	post, err := h.posts.PostForEdit(ctx, id, userID)
	if err != nil {
		fail(c, err)
		return
	}

	f, ok := bindPostForm(c)
	if !ok {
		h.renderPostForm(c, http.StatusBadRequest, f, post)
		return
	}
	_, err = h.posts.UpdatePost(ctx, id, userID, f)
	var ferr form.Errors
	if errors.As(err, &ferr) {
		h.renderPostForm(c, http.StatusBadRequest, f, post)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/posts/"+strconv.FormatUint(id, 10)+"/")
}

// renderPostForm shows the create form, or the edit form when post is set.
func (h *PostHandler) renderPostForm(c *gin.Context, status int, f *form.PostForm, post *model.Post) {
	groups, err := h.posts.Groups(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	data := gin.H{"form": f, "groups": groups, "is_edit": post != nil}
	if post != nil {
		data["one_post"] = post
	}
	render(c, status, "posts/create_post.html", data)
}

// maxPostBody leaves room for the text fields and multipart framing around
// an image of form.MaxImageSize.
const maxPostBody = form.MaxImageSize + 1<<20

// bindPostForm reads the multipart or urlencoded body into a PostForm.
func bindPostForm(c *gin.Context) (*form.PostForm, bool) {
	f := &form.PostForm{}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPostBody)
	if err := c.ShouldBind(f); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			f.Errors = form.Errors{}
			f.Errors.Add("image", form.MsgImageTooLarge)
		} else {
			f.Errors = unreadable()
		}
		return f, false
	}
	if fh, err := c.FormFile("image"); err == nil {
		f.Image = fh
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		f.Errors = form.Errors{}
		f.Errors.Add("image", "The submitted file is empty or could not be read.")
		return f, false
	}
	return f, true
}
