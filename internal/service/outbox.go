package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/sqldb"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

const (
	DefaultOutboxBatch    = 200
	DefaultOutboxInterval = time.Second
	// OutboxMaxRetry is how many failed deliveries a row gets before it is parked.
	OutboxMaxRetry = 5
)

var outboxDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "yatube_outbox_deliveries_total",
	Help: "Outbox delivery attempts by event type and result",
}, []string{"event", "result"})

// Sender delivers one outbox event.
type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// OutboxRelayer drains the social outbox into a Sender.
type OutboxRelayer struct {
	repo      *sqldb.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(db *gorm.DB, sender Sender, batchSize int, interval time.Duration) *OutboxRelayer {
	if batchSize <= 0 {
		batchSize = DefaultOutboxBatch
	}
	if interval <= 0 {
		interval = DefaultOutboxInterval
	}
	return &OutboxRelayer{
		repo:      &sqldb.OutboxRepository{DB: db},
		batchSize: batchSize,
		interval:  interval,
		sender:    sender,
	}
}

// Run polls the outbox until ctx is cancelled.
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce delivers one batch and returns how many rows were sent.
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.ListDeliverable(ctx, r.batchSize, OutboxMaxRetry)
	if err != nil {
		pkg.Logger.ErrorContext(ctx, "outbox query failed", slog.String("error", err.Error()))
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			outboxDeliveries.WithLabelValues(ob.EventType, "failed").Inc()
			pkg.Logger.WarnContext(ctx, "outbox delivery failed",
				slog.Uint64("outbox_id", ob.ID),
				slog.String("event", ob.EventType),
				slog.Int("retry", ob.Retry+1),
				slog.String("error", err.Error()))
			if err := r.repo.MarkFailed(ctx, ob.ID); err != nil {
				pkg.Logger.ErrorContext(ctx, "outbox mark failed", slog.String("error", err.Error()))
			}
			continue
		}
		outboxDeliveries.WithLabelValues(ob.EventType, "sent").Inc()
		if err := r.repo.MarkSent(ctx, ob.ID); err != nil {
			pkg.Logger.ErrorContext(ctx, "outbox mark sent", slog.String("error", err.Error()))
			continue
		}
		sent++
	}
	return sent
}

// LogSender only logs the event. Used when no broker or mail relay is configured.
func LogSender(ctx context.Context, ob *model.SocialOutbox) error {
	pkg.Logger.InfoContext(ctx, "outbox event",
		slog.String("event", ob.EventType),
		slog.Uint64("actor_id", ob.ActorID),
		slog.Uint64("target_id", ob.TargetID),
		slog.String("payload", ob.Payload))
	return nil
}

// Publisher writes a keyed message to a broker. *pkg.KafkaProducer satisfies it.
type Publisher interface {
	Send(ctx context.Context, key string, value []byte) error
}

// Mailer sends one HTML mail. *pkg.Mailer satisfies it.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// KafkaSender publishes the payload keyed by the target user so that events
// for one user stay ordered.
func KafkaSender(p Publisher) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.TargetID), []byte(ob.Payload))
	}
}

// MailSender emails the target user about new followers and comments.
// Users without an address are skipped.
func MailSender(m Mailer, db *gorm.DB) Sender {
	users := &sqldb.UserRepository{DB: db}
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		if ob.EventType == model.EventUnfollow {
			return nil
		}
		recipient, err := users.FindByID(ctx, ob.TargetID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if recipient.Email == "" {
			return nil
		}
		actor, err := users.FindByID(ctx, ob.ActorID)
		if err != nil {
			return err
		}

		switch ob.EventType {
		case model.EventFollow:
			return m.Send(recipient.Email, "New follower",
				pkg.NewFollowerHTML(recipient.Username, actor.Username))
		case model.EventComment:
			var body struct {
				PostID uint64 `json:"post_id"`
				Text   string `json:"text"`
			}
			if err := json.Unmarshal([]byte(ob.Payload), &body); err != nil {
				return fmt.Errorf("decode comment payload: %w", err)
			}
			return m.Send(recipient.Email, "New comment on your post",
				pkg.NewCommentHTML(recipient.Username, actor.Username, body.PostID, body.Text))
		}
		return nil
	}
}

// FanOut calls every sender and joins their errors.
func FanOut(senders ...Sender) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		var errs []error
		for _, s := range senders {
			if err := s(ctx, ob); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
