package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserKey    = "user"
	ContextUserIDKey  = "user_id"
	AccessTokenCookie = "access_token"
	LoginURL          = "/auth/login/"

	// RenewedTokenHeader carries a replacement token to bearer clients.
	RenewedTokenHeader = "X-Access-Token"
)

// Authenticator resolves an access token to a user. A non-empty renewed
// token replaces the one presented.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user *model.User, renewed string, err error)
}

// SessionCookie writes the access token cookie.
type SessionCookie struct {
	TTL    time.Duration
	Secure bool
}

func (s SessionCookie) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, token, int(s.TTL.Seconds()), "/", "", s.Secure, true)
}

func (s SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", s.Secure, true)
}

// LoadUser attaches the logged-in user, if any, to the request. Requests
// with a missing or stale token continue anonymously. Renewed tokens go back
// the way the old one came in.
func LoadUser(auth Authenticator, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := accessToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, renewed, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrUnauthenticated) {
				pkg.Logger.WarnContext(c.Request.Context(), "authentication failed",
					slog.String("error", err.Error()))
			}
			c.Next()
			return
		}

		if renewed != "" {
			if fromCookie {
				cookie.Set(c, renewed)
			} else {
				c.Header(RenewedTokenHeader, renewed)
			}
		}
		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), pkg.UserIDKey, user.ID))
		c.Next()
	}
}

// RequireLogin sends anonymous visitors to the login page and brings them
// back to where they were going afterwards.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, LoginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// CurrentUser returns the user loaded by LoadUser.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

// CurrentUserID returns 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint64 {
	return c.GetUint64(ContextUserIDKey)
}

func accessToken(c *gin.Context) (token string, fromCookie bool) {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1]), false
		}
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie, true
	}
	return "", false
}
