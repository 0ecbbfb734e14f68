package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix = "user:%d"
	PostKeyPrefix = "post:%d"
	AdSlotPrefix  = "ads:slot:%s"
)

const (
	UserTTL   = 5 * time.Minute
	PostTTL   = 10 * time.Minute
	AdSlotTTL = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func AdSlotKey(slot string) string {
	return fmt.Sprintf(AdSlotPrefix, slot)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateAdSlot(ctx context.Context, slot string) {
	Invalidate(ctx, AdSlotKey(slot))
}
