package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu        sync.Mutex
	failWrite bool
	closed    bool
	messages  [][]byte
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func send(t *testing.T, h *Hub, msg []byte) {
	t.Helper()
	select {
	case h.broadcast <- msg:
	case <-time.After(2 * time.Second):
		t.Fatal("hub stopped accepting broadcasts")
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHubDropsDeadClientAndKeepsServing(t *testing.T) {
	h := NewHub()
	go h.Run()

	good := &fakeConn{}
	dead := &fakeConn{failWrite: true}
	h.Register(good)
	h.Register(dead)
	waitFor(t, func() bool { return h.clientCount() == 2 }, "both clients to register")

	send(t, h, []byte("snapshot-1"))
	waitFor(t, func() bool { return dead.isClosed() }, "dead client to be dropped")
	waitFor(t, func() bool { return good.messageCount() == 1 }, "first snapshot delivery")
	assert.Equal(t, 1, h.clientCount())

	// The hub must survive the failed write and keep broadcasting.
	send(t, h, []byte("snapshot-2"))
	waitFor(t, func() bool { return good.messageCount() == 2 }, "second snapshot delivery")
	assert.False(t, good.isClosed())
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	h := NewHub()
	go h.Run()

	conn := &fakeConn{}
	h.Register(conn)
	waitFor(t, func() bool { return h.clientCount() == 1 }, "client to register")

	h.Unregister(conn)
	h.Unregister(conn)
	waitFor(t, func() bool { return h.clientCount() == 0 }, "client to unregister")
	require.True(t, conn.isClosed())
}
