package notifications

import (
	"context"
	"sync"
)

// LocalTransport delivers payloads synchronously to in-process subscribers.
// It is used when no external broker is configured.
type LocalTransport struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
}

func NewLocalTransport() *LocalTransport {
	return &LocalTransport{handlers: make(map[int]Handler)}
}

func (l *LocalTransport) Name() string { return "local" }

func (l *LocalTransport) PublishUser(_ context.Context, userID uint, payload string) error {
	l.deliver(userID, false, payload)
	return nil
}

func (l *LocalTransport) PublishBroadcast(_ context.Context, payload string) error {
	l.deliver(0, true, payload)
	return nil
}

func (l *LocalTransport) Subscribe(ctx context.Context, onMessage Handler) error {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.handlers[id] = onMessage
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.handlers, id)
		l.mu.Unlock()
	}()
	return nil
}

func (l *LocalTransport) deliver(userID uint, broadcast bool, payload string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, h := range l.handlers {
		h(userID, broadcast, payload)
	}
}
