package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	FollowingKeyPrefix = "following:%d"
	BlacklistKeyPrefix = "blacklist:%s"
)

const (
	UserTTL      = 5 * time.Minute
	FollowingTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// FollowingKey holds the ids a user follows, read by the feed composer.
func FollowingKey(userID uint) string {
	return fmt.Sprintf(FollowingKeyPrefix, userID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUser drops a cached profile. Follower counts are part of the
// profile, so both sides of a follow edge call this.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateFollowing(ctx context.Context, userID uint) {
	Invalidate(ctx, FollowingKey(userID))
}
