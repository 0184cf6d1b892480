package sqldb_test

import (
	"context"
	"testing"

	"yatube/internal/model"
	"yatube/internal/repository/sqldb"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListOrderAndFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &sqldb.PostRepository{DB: db}
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	mia := testutil.CreateUser(t, db, "mia")
	cats := testutil.CreateGroup(t, db, "Cats", "cats")
	leoPosts := testutil.CreatePosts(t, db, leo, cats, 3)
	testutil.CreatePosts(t, db, mia, nil, 2)

	all, err := repo.List(ctx, sqldb.PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "posts must be newest first")
	}

	inGroup, err := repo.List(ctx, sqldb.PostFilter{GroupID: cats.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, inGroup, 3)
	assert.Equal(t, leoPosts[2].ID, inGroup[0].ID)
	require.NotNil(t, inGroup[0].Group)
	assert.Equal(t, "cats", inGroup[0].Group.Slug)
	assert.Equal(t, "leo", inGroup[0].Author.Username)

	n, err := repo.Count(ctx, sqldb.PostFilter{AuthorID: mia.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	window, err := repo.List(ctx, sqldb.PostFilter{}, 4, 10)
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestPostRepository_FollowerFilter(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &sqldb.PostRepository{DB: db}
	follows := &sqldb.FollowRepository{DB: db}
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	mia := testutil.CreateUser(t, db, "mia")
	sam := testutil.CreateUser(t, db, "sam")
	testutil.CreatePost(t, db, leo, nil, "by leo")
	testutil.CreatePost(t, db, sam, nil, "by sam")

	_, err := follows.Follow(ctx, mia.ID, leo.ID)
	require.NoError(t, err)

	feed, err := repo.List(ctx, sqldb.PostFilter{FollowerID: mia.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "by leo", feed[0].Text)

	n, err := repo.Count(ctx, sqldb.PostFilter{FollowerID: sam.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostRepository_UpdateKeepsAuthor(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &sqldb.PostRepository{DB: db}
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	mia := testutil.CreateUser(t, db, "mia")
	cats := testutil.CreateGroup(t, db, "Cats", "cats")
	post := testutil.CreatePost(t, db, leo, cats, "old")

	post.Text = "new"
	post.GroupID = nil
	post.Image = "posts/x.gif"
	post.AuthorID = mia.ID
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, "posts/x.gif", got.Image)
	assert.Equal(t, leo.ID, got.AuthorID)
}

func TestFollowRepository_UniqueAndOutbox(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &sqldb.FollowRepository{DB: db}
	outbox := &sqldb.OutboxRepository{DB: db}
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	mia := testutil.CreateUser(t, db, "mia")

	changed, err := repo.Follow(ctx, mia.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.Follow(ctx, mia.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	followers, err := repo.CountFollowers(ctx, leo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
	followings, err := repo.CountFollowings(ctx, mia.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followings)

	// the database itself rejects self follows
	err = db.Create(&model.Follow{FollowerID: leo.ID, FolloweeID: leo.ID}).Error
	assert.Error(t, err)

	rows, err := outbox.ListDeliverable(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.EventFollow, rows[0].EventType)
	assert.JSONEq(t, `{"event":"follow","actor_id":2,"target_id":1,"event_time":"x"}`,
		replaceEventTime(t, rows[0].Payload))

	require.NoError(t, outbox.MarkFailed(ctx, rows[0].ID))
	rows, err = outbox.ListDeliverable(ctx, 10, 1)
	require.NoError(t, err)
	assert.Empty(t, rows, "rows out of retries are not delivered")

	rows, err = outbox.ListDeliverable(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, outbox.MarkSent(ctx, rows[0].ID))
	rows, err = outbox.ListDeliverable(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
