package sqldb_test

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"yatube/internal/repository/sqldb"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// replaceEventTime pins the timestamp of an outbox payload for comparison.
func replaceEventTime(t *testing.T, payload string) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &body))
	require.NotEmpty(t, body["event_time"])
	body["event_time"] = "x"
	out, err := json.Marshal(body)
	require.NoError(t, err)
	return string(out)
}

func TestFollowRepository_FollowWritesOutboxInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &sqldb.FollowRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `follow`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `social_outbox`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	changed, err := repo.Follow(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_DuplicateFollowSkipsOutbox(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &sqldb.FollowRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `follow`") + ".*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err := repo.Follow(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_UnfollowWithoutRelation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &sqldb.FollowRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `follow` WHERE follower_id = ? AND followee_id = ?")).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err := repo.Unfollow(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_OutboxFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &sqldb.FollowRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `follow`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `social_outbox`")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.Unfollow(context.Background(), 2, 1)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
