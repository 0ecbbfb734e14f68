package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tutorhub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAdminNilNotifier(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.PublishAdmin(context.Background(), &models.AdminNotification{}))

	n = NewNotifier(nil)
	assert.NoError(t, n.PublishAdmin(context.Background(), &models.AdminNotification{}))
}

func TestPublishAdminDeliversToSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	n := NewNotifier(rdb)

	received := make(chan string, 1)
	require.NoError(t, n.StartAdminSubscriber(context.Background(), func(payload string) {
		received <- payload
	}))

	// Give the subscriber goroutine a moment to attach.
	time.Sleep(50 * time.Millisecond)

	notification := &models.AdminNotification{
		Type:          models.NotificationTypeWithdrawalRequest,
		ApplicationID: 12,
		CandidateID:   3,
		PostID:        7,
		Status:        models.NotificationStatusPending,
	}
	require.NoError(t, n.PublishAdmin(context.Background(), notification))

	select {
	case payload := <-received:
		var got models.AdminNotification
		require.NoError(t, json.Unmarshal([]byte(payload), &got))
		assert.Equal(t, uint(12), got.ApplicationID)
		assert.Equal(t, models.NotificationTypeWithdrawalRequest, got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

func TestHubRegisterLimits(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.Error(t, err, "per-user connection limit must be enforced")
	assert.Equal(t, maxConnsPerUser, hub.ConnectionCount())
}

func TestHubBroadcastAll(t *testing.T) {
	hub := NewHub()

	c1, err := hub.Register(1, nil)
	require.NoError(t, err)
	c2, err := hub.Register(2, nil)
	require.NoError(t, err)

	hub.BroadcastAll(`{"type":"withdrawal-request"}`)

	assert.Equal(t, `{"type":"withdrawal-request"}`, string(<-c1.Send))
	assert.Equal(t, `{"type":"withdrawal-request"}`, string(<-c2.Send))
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()

	c, err := hub.Register(1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.ConnectionCount())

	// Unregistering twice is a no-op.
	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.ConnectionCount())
}
