package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yatube/internal/model"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeAuth map[string]*model.User

// Authenticate accepts "good" as is and swaps "aging" for "fresh".
func (f fakeAuth) Authenticate(_ context.Context, token string) (*model.User, string, error) {
	u, ok := f[token]
	if !ok {
		return nil, "", service.ErrUnauthenticated
	}
	if token == "aging" {
		return u, "fresh", nil
	}
	return u, "", nil
}

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	leo := &model.User{ID: 7, Username: "leo"}
	r := gin.New()
	r.Use(RequestLogger(), LoadUser(fakeAuth{"good": leo, "aging": leo}, SessionCookie{TTL: time.Hour}))
	r.GET("/open", func(c *gin.Context) {
		c.String(http.StatusOK, "%d", CurrentUserID(c))
	})
	r.GET("/closed", RequireLogin(), func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.String(http.StatusOK, u.Username)
	})
	return r
}

func TestLoadUser(t *testing.T) {
	r := newAuthEngine()

	tests := []struct {
		name  string
		setup func(*http.Request)
		want  string
	}{
		{"anonymous", func(*http.Request) {}, "0"},
		{"bearer header", func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") }, "7"},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"}) }, "7"},
		{"revoked token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer stale") }, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/open", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func TestRequireLogin(t *testing.T) {
	r := newAuthEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/closed?x=1", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fclosed%3Fx%3D1", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "leo", w.Body.String())
}

func TestLoadUserRenewsToken(t *testing.T) {
	r := newAuthEngine()

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "aging"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "7", w.Body.String())
	cookies := w.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, AccessTokenCookie, cookies[0].Name)
		assert.Equal(t, "fresh", cookies[0].Value)
		assert.Equal(t, 3600, cookies[0].MaxAge)
		assert.True(t, cookies[0].HttpOnly)
	}
	assert.Empty(t, w.Header().Get(RenewedTokenHeader))

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer aging")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fresh", w.Header().Get(RenewedTokenHeader))
	assert.Empty(t, w.Result().Cookies())

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies(), "tokens with time left are not reissued")
}
