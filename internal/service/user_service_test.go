package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"yatube/internal/form"
	"yatube/internal/pkg"
	rrepo "yatube/internal/repository/redis"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(t *testing.T) (*UserService, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	sessions := &rrepo.SessionRepository{Client: client, TTL: time.Hour}
	return NewUserService(db, sessions, pkg.NewTokenIssuer("test-secret", time.Hour)), db, mr
}

func TestUserService_SignupAndAuthenticate(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	user, token, err := svc.Signup(ctx, &form.SignupForm{Username: "leo", Email: "leo@example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.NotEqual(t, "long-enough", user.Password)

	got, renewed, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, renewed, "a fresh token is kept")

	f := &form.SignupForm{Username: "leo", Password: "long-enough"}
	_, _, err = svc.Signup(ctx, f)
	var ferr form.Errors
	require.ErrorAs(t, err, &ferr)
	assert.True(t, ferr.Has("username"))
}

func TestUserService_Login(t *testing.T) {
	svc, db, _ := newUserService(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "leo")

	_, token, err := svc.Login(ctx, &form.LoginForm{Username: "leo", Password: testutil.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	f := &form.LoginForm{Username: "leo", Password: "wrong"}
	_, _, err = svc.Login(ctx, f)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, f.Errors.Has(form.NonFieldErrors))

	_, _, err = svc.Login(ctx, &form.LoginForm{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_LogoutRevokesToken(t *testing.T) {
	svc, db, _ := newUserService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "leo")

	_, token, err := svc.Login(ctx, &form.LoginForm{Username: "leo", Password: testutil.Password})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, user.ID))

	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUserService_AuthenticateRejectsBadTokens(t *testing.T) {
	svc, db, mr := newUserService(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "leo")

	_, _, err := svc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, token, err := svc.Login(ctx, &form.LoginForm{Username: "leo", Password: testutil.Password})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated, "expired session")
}

func TestUserService_AuthenticateRenewsAgingToken(t *testing.T) {
	svc, db, mr := newUserService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "leo")

	_, token, err := svc.Login(ctx, &form.LoginForm{Username: "leo", Password: testutil.Password})
	require.NoError(t, err)

	// An hour-long token is past half of a three hour lifetime.
	svc.tokens.TTL = 3 * time.Hour
	svc.sessions.TTL = 3 * time.Hour
	mr.FastForward(30 * time.Minute)

	_, renewed, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NotEmpty(t, renewed)
	assert.NotEqual(t, token, renewed)
	assert.Equal(t, 3*time.Hour, mr.TTL(rrepo.SessionKeyPrefix+":"+strconv.FormatUint(user.ID, 10)))

	got, again, err := svc.Authenticate(ctx, renewed)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, again)

	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated, "the replaced token is revoked")
}
