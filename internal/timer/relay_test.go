package timer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observerStub struct {
	mu          sync.Mutex
	running     bool
	subscribers int
}

func (o *observerStub) SetTimerRunning(running bool) {
	o.mu.Lock()
	o.running = running
	o.mu.Unlock()
}

func (o *observerStub) SetTimerSubscribers(n int) {
	o.mu.Lock()
	o.subscribers = n
	o.mu.Unlock()
}

func (o *observerStub) get() (bool, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running, o.subscribers
}

func startRelay(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var snap Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	return snap
}

func TestHubSendsCurrentStateOnConnect(t *testing.T) {
	clock := newFakeClock()
	tm := New(clock.Now)
	tm.Start()
	clock.Advance(5 * time.Second)

	conn := startRelay(t, NewHub(tm, nil, nil))
	snap := readSnapshot(t, conn)
	assert.Equal(t, StateRunning, snap.State)
	assert.Equal(t, int64(5_000), snap.Elapsed)
}

func TestHubBroadcastsTransitionsAndAppliesCommands(t *testing.T) {
	clock := newFakeClock()
	tm := New(clock.Now)
	obs := &observerStub{}
	hub := NewHub(tm, nil, obs)
	conn := startRelay(t, hub)

	assert.Equal(t, StateIdle, readSnapshot(t, conn).State)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Command{Action: "start"}))
	assert.Equal(t, StateRunning, readSnapshot(t, conn).State)
	running, subs := obs.get()
	assert.True(t, running)
	assert.Equal(t, 1, subs)

	tm.Pause()
	assert.Equal(t, StatePaused, readSnapshot(t, conn).State)
}

func TestHubRunTicksAndClosesOnCancel(t *testing.T) {
	clock := newFakeClock()
	tm := New(clock.Now)
	hub := NewHub(tm, nil, nil)
	conn := startRelay(t, hub)
	readSnapshot(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx, 20*time.Millisecond)
		close(done)
	}()

	assert.Equal(t, StateIdle, readSnapshot(t, conn).State)
	cancel()
	<-done

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubApplyRejectsUnknownAction(t *testing.T) {
	hub := NewHub(New(nil), nil, nil)
	assert.False(t, hub.Apply("rewind"))
	assert.True(t, hub.Apply("reset"))
}

type stalledConn struct {
	release   chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newStalledConn() *stalledConn {
	return &stalledConn{release: make(chan struct{}), closed: make(chan struct{})}
}

func (c *stalledConn) ReadJSON(interface{}) error {
	<-c.closed
	return errors.New("use of closed connection")
}

func (c *stalledConn) WriteJSON(interface{}) error {
	select {
	case <-c.release:
		return nil
	case <-c.closed:
		return errors.New("use of closed connection")
	}
}

func (c *stalledConn) SetWriteDeadline(time.Time) error { return nil }

func (c *stalledConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *stalledConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func TestHubClosesDroppedSubscriberConnection(t *testing.T) {
	hub := NewHub(New(newFakeClock().Now), nil, nil)
	conn := newStalledConn()
	served := make(chan struct{})
	go func() {
		defer close(served)
		hub.Serve(conn)
	}()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)

	for i := 0; i < 20; i++ {
		hub.Broadcast(hub.timer.Snapshot())
	}
	assert.Zero(t, hub.Subscribers())

	close(conn.release)
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve kept running after the subscriber was dropped")
	}
	assert.True(t, conn.isClosed())
}
