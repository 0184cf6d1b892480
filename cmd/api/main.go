package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yatube/internal/config"
	"yatube/internal/pkg"
	rrepo "yatube/internal/repository/redis"
	"yatube/internal/repository/sqldb"
	"yatube/internal/router"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := pkg.InitLogger(os.Stdout, cfg.IsProduction(), cfg.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := sqldb.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.DBAutoMigrate {
		if err := sqldb.Migrate(db); err != nil {
			logger.Error("migration", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	rdb, err := rrepo.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rdb.Close()

	r, err := router.InitRouter(cfg, db, rdb)
	if err != nil {
		logger.Error("router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender, closeSender := outboxSender(cfg, db)
	defer closeSender()
	relayer := service.NewOutboxRelayer(db, sender, cfg.OutboxBatch, cfg.OutboxInterval)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relayer.Run(ctx)
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.String("error", err.Error()))
	}
	<-relayDone
}

// outboxSender picks the delivery targets that are configured. Without Kafka
// or SMTP events are only logged.
func outboxSender(cfg *config.Config, db *gorm.DB) (service.Sender, func()) {
	var senders []service.Sender
	closeFn := func() {}

	if cfg.KafkaEnabled() {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			pkg.Logger.Error("kafka producer", slog.String("error", err.Error()))
		} else {
			senders = append(senders, service.KafkaSender(producer))
			closeFn = func() { _ = producer.Close() }
		}
	}
	if cfg.SMTPEnabled() {
		mailer := pkg.NewMailer(pkg.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		senders = append(senders, service.MailSender(mailer, db))
	}
	if len(senders) == 0 {
		return service.LogSender, closeFn
	}
	return service.FanOut(senders...), closeFn
}
