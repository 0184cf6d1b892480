package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"yatube/internal/config"
	"yatube/internal/handler"
	"yatube/internal/middleware"
	"yatube/internal/pkg"
	rrepo "yatube/internal/repository/redis"
	"yatube/internal/service"
	"yatube/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services bundles what the handlers need. Built by NewServices.
type Services struct {
	Posts    *service.PostService
	Comments *service.CommentService
	Follows  *service.FollowService
	Users    *service.UserService
	Media    *pkg.MediaStore
}

func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Services {
	media := pkg.NewMediaStore(cfg.MediaRoot, cfg.MediaURL)
	sessions := &rrepo.SessionRepository{Client: rdb, TTL: cfg.SessionTTL}
	tokens := pkg.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	return &Services{
		Posts:    service.NewPostService(db, rrepo.NewPageCache(rdb, cfg.CacheTTL), media),
		Comments: service.NewCommentService(db),
		Follows:  service.NewFollowService(db),
		Users:    service.NewUserService(db, sessions, tokens),
		Media:    media,
	}
}

func InitRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, error) {
	svc := NewServices(cfg, db, rdb)

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.Metrics())
	r.MaxMultipartMemory = 8 << 20

	tmpl, err := web.Templates(svc.Media.URL)
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.Static(strings.TrimSuffix(svc.Media.BaseURL, "/"), cfg.MediaRoot)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", healthz(db, rdb))

	posts := handler.NewPostHandler(svc.Posts, svc.Comments)
	comments := handler.NewCommentHandler(svc.Comments, posts)
	follows := handler.NewFollowHandler(svc.Follows, svc.Posts)
	cookie := middleware.SessionCookie{TTL: cfg.SessionTTL, Secure: cfg.IsProduction()}
	users := handler.NewUserHandler(svc.Users, cookie)

	site := r.Group("/")
	site.Use(middleware.LoadUser(svc.Users, cookie))
	{
		site.GET("/", posts.Index)
		site.GET("/group/:slug/", posts.GroupPosts)
		site.GET("/profile/:username/", posts.Profile)
		site.GET("/posts/:id/", posts.Detail)
	}

	authGroup := site.Group("/auth")
	{
		authGroup.GET("/signup/", users.SignupForm)
		authGroup.POST("/signup/", users.Signup)
		authGroup.GET("/login/", users.LoginForm)
		authGroup.POST("/login/", users.Login)
		authGroup.GET("/logout/", users.Logout)
		authGroup.POST("/logout/", users.Logout)
	}

	// login required
	private := site.Group("/")
	private.Use(middleware.RequireLogin())
	{
		private.GET("/create/", posts.CreateForm)
		private.POST("/create/", posts.Create)
		private.GET("/posts/:id/edit/", posts.EditForm)
		private.POST("/posts/:id/edit/", posts.Edit)
		private.POST("/posts/:id/comment/", comments.Add)
		private.GET("/follow/", follows.Feed)
		private.GET("/profile/:username/follow/", follows.Follow)
		private.POST("/profile/:username/follow/", follows.Follow)
		private.GET("/profile/:username/unfollow/", follows.Unfollow)
		private.POST("/profile/:username/unfollow/", follows.Unfollow)
	}

	r.NoRoute(middleware.LoadUser(svc.Users, cookie), handler.NoRoute)
	return r, nil
}

// healthz pings the database and redis.
func healthz(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok", "redis": "ok"}
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if rdb == nil || rdb.Ping(ctx).Err() != nil {
			status["redis"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
