// Package notifications provides real-time delivery of admin notifications
// over Redis pub/sub and WebSocket.
package notifications

import (
	"context"
	"encoding/json"

	"tutorhub/internal/models"
	"tutorhub/internal/observability"

	"github.com/redis/go-redis/v9"
)

// AdminChannel is the Redis channel carrying back-office notifications.
const AdminChannel = "notifications:admin"

// Notifier publishes notification payloads into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier returns a Notifier backed by the given Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishAdmin sends an admin notification to the back-office channel.
// Publishing is best-effort: the notification record itself is already
// persisted by the caller, the channel only feeds live admin sessions.
func (n *Notifier) PublishAdmin(ctx context.Context, notification *models.AdminNotification) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	observability.NotificationPublishes.WithLabelValues(string(notification.Type)).Inc()
	return n.rdb.Publish(ctx, AdminChannel, string(payload)).Err()
}

// StartAdminSubscriber subscribes to the admin channel and calls onMessage
// for each incoming payload.
func (n *Notifier) StartAdminSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, AdminChannel)
	ch := sub.Channel()

	go func() {
		for msg := range ch {
			onMessage(msg.Payload)
		}
	}()

	return nil
}
