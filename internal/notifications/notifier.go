package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"threadline/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "notifications:user:"
	broadcastChannel  = "notifications:broadcast"
)

// Notifier is the Redis pub/sub transport.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier on rdb. A nil client turns every call into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func (n *Notifier) Name() string { return "redis" }

// UserChannel is the channel carrying userID's notifications.
func UserChannel(userID uint) string {
	return fmt.Sprintf("%s%d", userChannelPrefix, userID)
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends a notification payload to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, broadcastChannel, payload).Err()
}

// Subscribe listens on every user channel and the broadcast channel.
func (n *Notifier) Subscribe(ctx context.Context, onMessage Handler) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", broadcastChannel)
	// Wait for the subscription so publishes right after Subscribe are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				dispatch(msg.Channel, msg.Payload, parseChannel, onMessage)
			}
		}
	}()
	return nil
}

// parseChannel maps a channel name to its recipient.
func parseChannel(channel string) (userID uint, broadcast bool, ok bool) {
	if channel == broadcastChannel {
		return 0, true, true
	}
	return parseUserSuffix(channel, userChannelPrefix)
}

func parseUserSuffix(name, prefix string) (uint, bool, bool) {
	rest, found := strings.CutPrefix(name, prefix)
	if !found {
		return 0, false, false
	}
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil || id == 0 {
		return 0, false, false
	}
	return uint(id), false, true
}

func dispatch(name, payload string, parse func(string) (uint, bool, bool), onMessage Handler) {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.Error("panic in notification subscriber",
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()
	userID, broadcast, ok := parse(name)
	if !ok {
		middleware.Logger.Warn("invalid notification channel", slog.String("channel", name))
		return
	}
	onMessage(userID, broadcast, payload)
}
