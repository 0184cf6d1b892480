package seed

import (
	"context"
	"testing"

	"yatube/internal/model"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewSeeder(db, 42)
	ctx := context.Background()

	res, err := s.Run(ctx, Options{Users: 5, Groups: 2, Posts: 30, Comments: 10, FollowsEach: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Users)
	assert.Equal(t, 30, res.Posts)
	assert.Equal(t, 10, res.Comments)

	var posts, follows int64
	require.NoError(t, db.Model(&model.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&model.Follow{}).Count(&follows).Error)
	assert.Equal(t, int64(30), posts)
	assert.Equal(t, int64(res.Follows), follows)

	var groups []model.Group
	require.NoError(t, db.Find(&groups).Error)
	for _, g := range groups {
		assert.Regexp(t, `^[a-z0-9-]+$`, g.Slug)
	}

	var selfFollows int64
	require.NoError(t, db.Model(&model.Follow{}).Where("follower_id = followee_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	require.NoError(t, s.ClearAll(ctx))
	require.NoError(t, db.Model(&model.Post{}).Count(&posts).Error)
	assert.Zero(t, posts)
}

func TestSeeder_NoUsers(t *testing.T) {
	db := testutil.NewDB(t)
	res, err := NewSeeder(db, 1).Run(context.Background(), Options{Groups: 1, Posts: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Groups)
	assert.Zero(t, res.Posts)
}
