package timer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	sendBuffer   = 8
	writeTimeout = 5 * time.Second
)

// Conn is the part of *websocket.Conn the relay needs.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Observer receives relay gauges. *service.MetricsService satisfies it.
type Observer interface {
	SetTimerRunning(running bool)
	SetTimerSubscribers(n int)
}

// Command is a control message sent by a subscriber.
type Command struct {
	Action string `json:"action"`
}

type client struct {
	conn Conn
	send chan Snapshot
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub pushes timer snapshots to every subscriber once per tick and on every transition.
type Hub struct {
	timer    *Timer
	logger   *zap.Logger
	observer Observer

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub wires the hub to the timer's transitions. observer may be nil.
func NewHub(t *Timer, logger *zap.Logger, observer Observer) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{timer: t, logger: logger, observer: observer, clients: make(map[*client]struct{})}
	t.OnTransition(func(s Snapshot) {
		if h.observer != nil {
			h.observer.SetTimerRunning(s.State == StateRunning)
		}
		h.Broadcast(s)
	})
	return h
}

// Run ticks until ctx is done, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.Broadcast(h.timer.Snapshot())
		}
	}
}

// Broadcast queues s for every subscriber. Subscribers that fall behind are dropped.
func (h *Hub) Broadcast(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- s:
		default:
			h.logger.Warn("dropping slow timer subscriber")
			h.removeLocked(c)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve registers conn, sends it the current snapshot and applies the commands
// it sends until the connection fails. It blocks for the lifetime of conn.
func (h *Hub) Serve(conn Conn) {
	c := &client{conn: conn, send: make(chan Snapshot, sendBuffer)}
	c.send <- h.timer.Snapshot()
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.reportSubscribersLocked()
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(c)
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		if !h.Apply(cmd.Action) {
			h.logger.Debug("ignoring unknown timer command", zap.String("action", cmd.Action))
		}
	}

	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	<-done
	_ = conn.Close()
}

// Apply runs a named transition. It reports false for unknown actions.
func (h *Hub) Apply(action string) bool {
	switch action {
	case "start":
		h.timer.Start()
	case "pause":
		h.timer.Pause()
	case "reset":
		h.timer.Reset()
	default:
		return false
	}
	return true
}

// writeLoop closes the connection when the hub drops the subscriber so that
// Serve's read fails and the peer sees the disconnect.
func (h *Hub) writeLoop(c *client) {
	defer func() { _ = c.conn.Close() }()
	for snap := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(snap); err != nil {
			h.logger.Debug("timer subscriber write failed", zap.Error(err))
			_ = c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	h.reportSubscribersLocked()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
		_ = c.conn.Close()
	}
}

func (h *Hub) reportSubscribersLocked() {
	if h.observer != nil {
		h.observer.SetTimerSubscribers(len(h.clients))
	}
}
