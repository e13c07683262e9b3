package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ecosnap/internal/models"
	"ecosnap/internal/utils"
)

const (
	EventReportVerified       = "report.verified"
	EventReportRejected       = "report.rejected"
	EventReportAssigned       = "report.assigned"
	EventReportCompleted      = "report.completed"
	EventWorkOrderCancelled   = "work_order.cancelled"
	EventReviewCreated        = "review.created"
	EventOrganizationVerified = "organization.verified"
)

const publishTimeout = 3 * time.Second

type Event struct {
	Type     string            `json:"type"`
	UserID   string            `json:"user_id"`
	Role     models.Role       `json:"role"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Notifier delivers lifecycle events. Implementations must not block the caller
// and must never fail the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	log     zerolog.Logger
}

func NewRedisNotifier(rdb *redis.Client, channel string, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel, log: log}
}

func (n *RedisNotifier) Notify(_ context.Context, e Event) {
	go func() {
		// the request context is cancelled once the handler returns
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := utils.Publish(ctx, n.rdb, n.channel, e); err != nil {
			n.log.Error().Err(err).
				Str("event", e.Type).
				Str("user_id", e.UserID).
				Msg("failed to publish notification")
		}
	}()
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
