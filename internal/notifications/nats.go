package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"threadline/internal/middleware"

	"github.com/nats-io/nats.go"
)

const (
	userSubjectPrefix = "notifications.user."
	broadcastSubject  = "notifications.broadcast"
)

// NATSNotifier is the NATS core pub/sub transport.
type NATSNotifier struct {
	conn *nats.Conn
}

// ConnectNATS dials url with reconnect handling logged through slog.
func ConnectNATS(url string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.Name("threadline-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				middleware.Logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			middleware.Logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewNATSNotifier(nc), nil
}

// NewNATSNotifier wraps an existing connection. A nil connection is a no-op transport.
func NewNATSNotifier(nc *nats.Conn) *NATSNotifier {
	return &NATSNotifier{conn: nc}
}

func (n *NATSNotifier) Name() string { return "nats" }

// UserSubject is the subject carrying userID's notifications.
func UserSubject(userID uint) string {
	return fmt.Sprintf("%s%d", userSubjectPrefix, userID)
}

func (n *NATSNotifier) PublishUser(_ context.Context, userID uint, payload string) error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Publish(UserSubject(userID), []byte(payload))
}

func (n *NATSNotifier) PublishBroadcast(_ context.Context, payload string) error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Publish(broadcastSubject, []byte(payload))
}

// Subscribe listens on notifications.user.* and the broadcast subject and
// unsubscribes when ctx is done.
func (n *NATSNotifier) Subscribe(ctx context.Context, onMessage Handler) error {
	if n.conn == nil {
		return nil
	}
	handler := func(msg *nats.Msg) {
		dispatch(msg.Subject, string(msg.Data), parseSubject, onMessage)
	}

	userSub, err := n.conn.Subscribe(userSubjectPrefix+"*", handler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s*: %w", userSubjectPrefix, err)
	}
	allSub, err := n.conn.Subscribe(broadcastSubject, handler)
	if err != nil {
		_ = userSub.Unsubscribe()
		return fmt.Errorf("failed to subscribe to %s: %w", broadcastSubject, err)
	}

	go func() {
		<-ctx.Done()
		_ = userSub.Unsubscribe()
		_ = allSub.Unsubscribe()
	}()
	return nil
}

// Close drains the connection.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}

func parseSubject(subject string) (uint, bool, bool) {
	if subject == broadcastSubject {
		return 0, true, true
	}
	return parseUserSuffix(subject, userSubjectPrefix)
}
