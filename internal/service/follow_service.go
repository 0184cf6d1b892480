package service

import (
	"context"
	"errors"

	"yatube/internal/repository/sqldb"

	"gorm.io/gorm"
)

type FollowService struct {
	repo  *sqldb.FollowRepository
	users *sqldb.UserRepository
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		repo:  &sqldb.FollowRepository{DB: db},
		users: &sqldb.UserRepository{DB: db},
	}
}

// Follow subscribes followerID to the author called username. Following
// yourself is silently ignored and following twice changes nothing.
func (s *FollowService) Follow(ctx context.Context, followerID uint64, username string) (bool, error) {
	if followerID == 0 {
		return false, ErrUnauthenticated
	}
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return false, notFound(err, "user %q", username)
	}
	if author.ID == followerID {
		return false, nil
	}
	return s.repo.Follow(ctx, followerID, author.ID)
}

// Unfollow removes the subscription if there is one. An unknown username is
// treated like a missing subscription.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint64, username string) (bool, error) {
	if followerID == 0 {
		return false, ErrUnauthenticated
	}
	author, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if author.ID == followerID {
		return false, nil
	}
	return s.repo.Unfollow(ctx, followerID, author.ID)
}

// IsFollowing is false for anonymous viewers and for authors looking at
// themselves.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	if followerID == 0 || followeeID == 0 || followerID == followeeID {
		return false, nil
	}
	return s.repo.IsFollowing(ctx, followerID, followeeID)
}

// Counts returns how many users follow userID and how many userID follows.
func (s *FollowService) Counts(ctx context.Context, userID uint64) (followers, followings int64, err error) {
	if followers, err = s.repo.CountFollowers(ctx, userID); err != nil {
		return 0, 0, err
	}
	if followings, err = s.repo.CountFollowings(ctx, userID); err != nil {
		return 0, 0, err
	}
	return followers, followings, nil
}
