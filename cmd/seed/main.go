// Command seed fills the configured database with demo data.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"yatube/internal/config"
	"yatube/internal/pkg"
	rrepo "yatube/internal/repository/redis"
	"yatube/internal/repository/sqldb"
	"yatube/internal/seed"
)

func main() {
	users := flag.Int("users", 20, "Number of users to create")
	groups := flag.Int("groups", 5, "Number of groups to create")
	posts := flag.Int("posts", 200, "Number of posts to create")
	comments := flag.Int("comments", 300, "Number of comments to create")
	follows := flag.Int("follows", 3, "Follow attempts per user")
	clean := flag.Bool("clean", false, "Delete all data before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := pkg.InitLogger(os.Stdout, cfg.IsProduction(), cfg.LogLevel)
	ctx := context.Background()

	db, err := sqldb.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := sqldb.Migrate(db); err != nil {
		logger.Error("migration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	s := seed.NewSeeder(db, 0)
	if *clean {
		if err := s.ClearAll(ctx); err != nil {
			logger.Error("cleanup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	res, err := s.Run(ctx, seed.Options{
		Users:       *users,
		Groups:      *groups,
		Posts:       *posts,
		Comments:    *comments,
		FollowsEach: *follows,
	})
	if err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// seeded rows bypass the services, so cached listings would hide them
	if rdb, err := rrepo.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err == nil {
		if err := rrepo.NewPageCache(rdb, cfg.CacheTTL).Clear(ctx); err != nil {
			logger.Warn("page cache clear failed", slog.String("error", err.Error()))
		}
		_ = rdb.Close()
	} else {
		logger.Warn("redis unavailable, cached pages expire on their own", slog.String("error", err.Error()))
	}

	logger.Info("seeding done",
		slog.Int("users", res.Users),
		slog.Int("groups", res.Groups),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("follows", res.Follows),
		slog.String("password", seed.Password))
}
