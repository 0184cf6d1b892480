package service

import (
	"context"

	"yatube/internal/form"
	"yatube/internal/model"
	"yatube/internal/repository/sqldb"

	"gorm.io/gorm"
)

type CommentService struct {
	repo  *sqldb.CommentRepository
	posts *sqldb.PostRepository
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		repo:  &sqldb.CommentRepository{DB: db},
		posts: &sqldb.PostRepository{DB: db},
	}
}

// AddComment attaches a comment by authorID to the post. The post author is
// notified unless they wrote the comment themselves.
func (s *CommentService) AddComment(ctx context.Context, postID, authorID uint64, f *form.CommentForm) (*model.Comment, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post %d", postID)
	}
	if !f.Validate() {
		return nil, f.Errors
	}

	c := &model.Comment{PostID: post.ID, AuthorID: authorID, Text: f.Text}
	var notify uint64
	if post.AuthorID != authorID {
		notify = post.AuthorID
	}
	if err := s.repo.Create(ctx, c, notify); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) ListForPost(ctx context.Context, postID uint64) ([]model.Comment, error) {
	return s.repo.ListByPost(ctx, postID)
}
