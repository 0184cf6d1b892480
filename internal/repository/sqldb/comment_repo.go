package sqldb

import (
	"context"

	"yatube/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

// Create stores the comment. When notifyUserID is set a comment event for
// that user is queued in the outbox within the same transaction.
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment, notifyUserID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if notifyUserID == 0 {
			return nil
		}
		return insertOutbox(tx, model.EventComment, c.AuthorID, notifyUserID, map[string]any{
			"post_id":    c.PostID,
			"comment_id": c.ID,
			"text":       c.Text,
		})
	})
}

// ListByPost returns the comments of a post in the order they were written.
func (r *CommentRepository) ListByPost(ctx context.Context, postID uint64) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).Error
	return list, err
}
