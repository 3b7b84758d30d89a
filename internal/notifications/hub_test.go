package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.send:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return ""
	}
}

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserFull)
	assert.Equal(t, maxConnsPerUser, hub.ConnectionCount(1))

	_, err = hub.Register(2, nil)
	assert.NoError(t, err)
	_ = hub.Shutdown(context.Background())
	assert.Zero(t, hub.ConnectionCount(1))
}

func TestHub_DeliverTargetsUser(t *testing.T) {
	hub := NewHub()
	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)

	hub.Deliver(1, "only-a")
	assert.Equal(t, "only-a", recv(t, a))
	assert.Empty(t, b.send)

	hub.DeliverAll("everyone")
	assert.Equal(t, "everyone", recv(t, a))
	assert.Equal(t, "everyone", recv(t, b))
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Zero(t, hub.ConnectionCount(5))

	_, open := <-c.send
	assert.False(t, open)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestClient_TrySendBackpressure(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("m"))
	}
	assert.Len(t, c.send, sendBuffer)
}

func TestHub_StartWiringLocalTransport(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(9, nil)
	require.NoError(t, err)

	transport := NewLocalTransport()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, transport))

	require.NoError(t, transport.PublishUser(ctx, 9, "hello"))
	assert.Equal(t, "hello", recv(t, c))
	require.NoError(t, transport.PublishUser(ctx, 10, "not-for-nine"))
	require.NoError(t, transport.PublishBroadcast(ctx, "all"))
	assert.Equal(t, "all", recv(t, c))
}
