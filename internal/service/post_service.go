package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"yatube/internal/form"
	"yatube/internal/model"
	"yatube/internal/pkg"
	rrepo "yatube/internal/repository/redis"
	"yatube/internal/repository/sqldb"

	"gorm.io/gorm"
)

// PostPage is one page of a post listing.
type PostPage = pkg.Page[model.Post]

// ProfileView is everything the profile page shows about an author.
type ProfileView struct {
	Author     *model.User
	Page       *PostPage
	Count      int64
	Following  bool
	Followers  int64
	Followings int64
}

type PostService struct {
	repo    *sqldb.PostRepository
	groups  *sqldb.GroupRepository
	users   *sqldb.UserRepository
	follows *FollowService
	cache   *rrepo.PageCache
	media   *pkg.MediaStore
}

func NewPostService(db *gorm.DB, cache *rrepo.PageCache, media *pkg.MediaStore) *PostService {
	return &PostService{
		repo:    &sqldb.PostRepository{DB: db},
		groups:  &sqldb.GroupRepository{DB: db},
		users:   &sqldb.UserRepository{DB: db},
		follows: NewFollowService(db),
		cache:   cache,
		media:   media,
	}
}

// Index returns a page of all posts.
func (s *PostService) Index(ctx context.Context, rawPage string) (*PostPage, error) {
	return s.cachedPage(ctx, rrepo.ScopeIndex, sqldb.PostFilter{}, rawPage)
}

// GroupPosts returns the group addressed by slug and a page of its posts.
func (s *PostService) GroupPosts(ctx context.Context, slug, rawPage string) (*model.Group, *PostPage, error) {
	group, err := s.groups.FindBySlug(ctx, slug)
	if err != nil {
		return nil, nil, notFound(err, "group %q", slug)
	}
	page, err := s.cachedPage(ctx, rrepo.GroupScope(slug), sqldb.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return group, page, nil
}

// Profile returns an author's posts. viewerID is 0 for anonymous visitors.
func (s *PostService) Profile(ctx context.Context, username string, viewerID uint64, rawPage string) (*ProfileView, error) {
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user %q", username)
	}
	page, err := s.cachedPage(ctx, rrepo.ProfileScope(author.Username), sqldb.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{Author: author, Page: page, Count: page.Count}
	if view.Following, err = s.follows.IsFollowing(ctx, viewerID, author.ID); err != nil {
		return nil, err
	}
	if view.Followers, view.Followings, err = s.follows.Counts(ctx, author.ID); err != nil {
		return nil, err
	}
	return view, nil
}

// FollowFeed returns posts of the authors userID follows. It is never cached.
func (s *PostService) FollowFeed(ctx context.Context, userID uint64, rawPage string) (*PostPage, error) {
	return s.page(ctx, sqldb.PostFilter{FollowerID: userID}, rawPage)
}

func (s *PostService) Detail(ctx context.Context, id uint64) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post %d", id)
	}
	return post, nil
}

// AuthorPostCount returns how many posts authorID has written.
func (s *PostService) AuthorPostCount(ctx context.Context, authorID uint64) (int64, error) {
	return s.repo.Count(ctx, sqldb.PostFilter{AuthorID: authorID})
}

// Groups lists the choices of the group field.
func (s *PostService) Groups(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}

// CreatePost validates f and stores a new post written by authorID.
// Invalid input is reported as form.Errors.
func (s *PostService) CreatePost(ctx context.Context, authorID uint64, f *form.PostForm) (*model.Post, error) {
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, notFound(err, "user %d", authorID)
	}
	ok, err := f.Validate(ctx, s.groups)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, f.Errors
	}

	post := &model.Post{AuthorID: author.ID}
	f.Apply(post)
	if f.Image != nil {
		if post.Image, err = s.media.SavePostImage(f.Image); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, post); err != nil {
		s.removeImage(ctx, post.Image)
		return nil, err
	}
	post.Author = *author

	scopes := []string{rrepo.ScopeIndex, rrepo.ProfileScope(author.Username)}
	if post.GroupID != nil {
		if g, err := s.groups.FindByID(ctx, *post.GroupID); err == nil {
			post.Group = g
			scopes = append(scopes, rrepo.GroupScope(g.Slug))
		}
	}
	s.invalidate(ctx, scopes...)
	return post, nil
}

// PostForEdit loads a post that userID is allowed to edit.
func (s *PostService) PostForEdit(ctx context.Context, postID, userID uint64) (*model.Post, error) {
	post, err := s.Detail(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, fmt.Errorf("edit post %d by user %d: %w", postID, userID, ErrForbidden)
	}
	return post, nil
}

// UpdatePost applies f to the post. Only the author may edit; the author
// itself never changes.
func (s *PostService) UpdatePost(ctx context.Context, postID, userID uint64, f *form.PostForm) (*model.Post, error) {
	post, err := s.PostForEdit(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	ok, err := f.Validate(ctx, s.groups)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, f.Errors
	}

	scopes := []string{rrepo.ScopeIndex, rrepo.ProfileScope(post.Author.Username)}
	if post.Group != nil {
		scopes = append(scopes, rrepo.GroupScope(post.Group.Slug))
	}

	oldImage := post.Image
	f.Apply(post)
	switch {
	case f.Image != nil:
		if post.Image, err = s.media.SavePostImage(f.Image); err != nil {
			return nil, err
		}
	case f.WantsImageCleared():
		post.Image = ""
	}
	if err := s.repo.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.removeImage(ctx, post.Image)
		}
		return nil, err
	}
	if post.Image != oldImage {
		s.removeImage(ctx, oldImage)
	}

	if post.GroupID != nil {
		if g, err := s.groups.FindByID(ctx, *post.GroupID); err == nil {
			post.Group = g
			scopes = append(scopes, rrepo.GroupScope(g.Slug))
		}
	}
	s.invalidate(ctx, scopes...)
	return post, nil
}

// ClearCache drops every cached listing page.
func (s *PostService) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

func (s *PostService) page(ctx context.Context, f sqldb.PostFilter, rawPage string) (*PostPage, error) {
	count, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	page := pkg.NewPage[model.Post](count, rawPage, pkg.PostsPerPage)
	if page.Items, err = s.repo.List(ctx, f, page.Offset(), page.PerPage); err != nil {
		return nil, err
	}
	return page, nil
}

// cachedPage serves a listing page from the page cache, falling back to the
// store. Cache failures are logged and never fail the request.
func (s *PostService) cachedPage(ctx context.Context, scope string, f sqldb.PostFilter, rawPage string) (*PostPage, error) {
	key, err := strconv.Atoi(rawPage)
	if err != nil {
		key = 1
	}

	var cached PostPage
	version, hit, lookupErr := s.cache.Lookup(ctx, scope, key, &cached)
	if lookupErr != nil {
		pkg.Logger.WarnContext(ctx, "page cache lookup failed",
			slog.String("scope", scope), slog.String("error", lookupErr.Error()))
	}
	if hit {
		return &cached, nil
	}

	page, err := s.page(ctx, f, rawPage)
	if err != nil {
		return nil, err
	}
	if lookupErr == nil {
		if err := s.cache.Store(ctx, scope, version, key, page); err != nil {
			pkg.Logger.WarnContext(ctx, "page cache store failed",
				slog.String("scope", scope), slog.String("error", err.Error()))
		}
	}
	return page, nil
}

func (s *PostService) invalidate(ctx context.Context, scopes ...string) {
	if err := s.cache.Invalidate(ctx, scopes...); err != nil {
		pkg.Logger.WarnContext(ctx, "page cache invalidation failed",
			slog.Any("scopes", scopes), slog.String("error", err.Error()))
	}
}

func (s *PostService) removeImage(ctx context.Context, name string) {
	if err := s.media.Remove(name); err != nil {
		pkg.Logger.WarnContext(ctx, "media cleanup failed",
			slog.String("image", name), slog.String("error", err.Error()))
	}
}
