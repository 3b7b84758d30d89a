// Package notifications fans domain events out to websocket clients over
// Redis pub/sub, NATS or an in-process transport.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event types published after successful mutations.
const (
	EventThreadCreated  = "thread_created"
	EventThreadLiked    = "thread_liked"
	EventThreadReposted = "thread_reposted"
	EventReplyCreated   = "reply_created"
	EventReplyLiked     = "reply_liked"
	EventUserFollowed   = "user_followed"
)

// Event is the JSON envelope delivered to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode renders e as the wire payload.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return string(b), nil
}

// Handler receives a payload for userID, or for everyone when broadcast is set.
type Handler func(userID uint, broadcast bool, payload string)

// Transport publishes payloads and delivers them to subscribers.
type Transport interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
	PublishBroadcast(ctx context.Context, payload string) error
	// Subscribe delivers messages to onMessage until ctx is cancelled.
	Subscribe(ctx context.Context, onMessage Handler) error
	Name() string
}
