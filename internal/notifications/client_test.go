package notifications

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	kind int
	data []byte
}

// fakeConn blocks reads until it is closed and records every write.
type fakeConn struct {
	mu     sync.Mutex
	frames []frame
	gone   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{gone: make(chan struct{})} }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.gone
	return 0, nil, errors.New("connection closed")
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame{kind: kind, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.gone) })
	return nil
}

func (f *fakeConn) written() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]frame(nil), f.frames...)
}

func (f *fakeConn) lastFrame() (frame, bool) {
	frames := f.written()
	if len(frames) == 0 {
		return frame{}, false
	}
	return frames[len(frames)-1], true
}

func serve(c *Client) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		c.Serve()
		close(done)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestClient_ServeWritesQueuedEvents(t *testing.T) {
	hub := NewHub()
	conn := newFakeConn()
	c, err := hub.Register(3, conn)
	require.NoError(t, err)
	assert.Equal(t, uint(3), c.UserID())

	done := serve(c)
	hub.Deliver(3, `{"type":"thread_liked"}`)

	assert.Eventually(t, func() bool {
		last, ok := conn.lastFrame()
		return ok && last.kind == websocket.TextMessage && string(last.data) == `{"type":"thread_liked"}`
	}, time.Second, 5*time.Millisecond)

	// Peer goes away: the read side fails and the client unregisters.
	_ = conn.Close()
	waitDone(t, done)
	assert.Zero(t, hub.ConnectionCount(3))

	last, ok := conn.lastFrame()
	require.True(t, ok)
	assert.Equal(t, websocket.CloseMessage, last.kind)
}

func TestHub_ShutdownSendsGoingAway(t *testing.T) {
	hub := NewHub()
	conn := newFakeConn()
	c, err := hub.Register(4, conn)
	require.NoError(t, err)
	done := serve(c)

	require.NoError(t, hub.Shutdown(t.Context()))
	waitDone(t, done)

	last, ok := conn.lastFrame()
	require.True(t, ok)
	assert.Equal(t, websocket.CloseMessage, last.kind)
	require.GreaterOrEqual(t, len(last.data), 2)
	code := int(last.data[0])<<8 | int(last.data[1])
	assert.Equal(t, websocket.CloseGoingAway, code)
	assert.Contains(t, string(last.data[2:]), "Server shutting down")
}

func TestClient_FullBufferKeepsOldest(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer-1; i++ {
		c.TrySend([]byte("m"))
	}
	c.TrySend([]byte("fills-last-slot"))
	c.TrySend([]byte("dropped"))
	assert.Len(t, c.send, sendBuffer)

	var last []byte
	for len(c.send) > 0 {
		last = <-c.send
	}
	assert.Equal(t, "fills-last-slot", string(last))
}
