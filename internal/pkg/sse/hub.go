package sse

import (
	"sync"
	"time"

	"github.com/staffdesk/staffdesk-backend-go/internal/pkg/metrics"
)

// Message is the wire frame for every event pushed down a stream.
type Message struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Title     string                 `json:"title,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Severity  string                 `json:"severity,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Message types
const (
	TypeConnected    = "connected"
	TypeHeartbeat    = "heartbeat"
	TypeNotification = "notification"
)

// sendBuffer bounds how far a client may fall behind before the connection
// is considered dead.
const sendBuffer = 16

// connection is one live client stream, owned exclusively by the Hub.
type connection struct {
	userID string
	role   string
	ch     chan Message
	stop   chan struct{}
}

// Hub owns the registry of live client connections and performs targeted
// send, broadcast, heartbeat and pruning. One connection per user: a second
// Register for the same user replaces (and tears down) the first.
//
// Delivery is best-effort and at-most-once. Sends never block: a connection
// whose buffer is full is treated as dead and pruned, not as backpressure.
type Hub struct {
	mu             sync.RWMutex
	conns          map[string]*connection
	heartbeatEvery time.Duration
	metrics        *metrics.Metrics
}

// NewHub creates a Hub pushing a heartbeat to every connection at the given
// interval.
func NewHub(heartbeatEvery time.Duration, m *metrics.Metrics) *Hub {
	return &Hub{
		conns:          make(map[string]*connection),
		heartbeatEvery: heartbeatEvery,
		metrics:        m,
	}
}

// Register installs (or replaces) the connection for userID and returns the
// message channel plus a cleanup function. The caller must invoke cleanup on
// every exit path of the stream's lifetime; cleanup is idempotent and safe to
// combine with Hub-side pruning. A "connected" frame is already queued on the
// returned channel.
func (h *Hub) Register(userID, role string) (<-chan Message, func()) {
	c := &connection{
		userID: userID,
		role:   role,
		ch:     make(chan Message, sendBuffer),
		stop:   make(chan struct{}),
	}
	c.ch <- Message{Type: TypeConnected, Timestamp: time.Now()}

	h.mu.Lock()
	prev, replaced := h.conns[userID]
	if replaced {
		h.removeLocked(prev)
	}
	h.conns[userID] = c
	h.mu.Unlock()
	if !replaced {
		h.metrics.StreamConnections.Inc()
	}

	go h.heartbeatLoop(c)

	return c.ch, func() { h.teardown(c) }
}

// Unregister discards the entry for userID and stops its heartbeat.
func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	c, ok := h.conns[userID]
	if ok {
		h.removeLocked(c)
	}
	h.mu.Unlock()
	if ok {
		h.metrics.StreamConnections.Dec()
	}
}

// SendToUser pushes msg to userID's connection if one is registered; a send
// to an offline user is a silent no-op. A failed push prunes the connection.
func (h *Hub) SendToUser(userID string, msg Message) {
	h.mu.RLock()
	c, ok := h.conns[userID]
	var failed *connection
	if ok {
		if h.trySendLocked(c, msg) {
			h.metrics.NotificationsDelivered.Inc()
		} else {
			failed = c
		}
	}
	h.mu.RUnlock()

	if failed != nil {
		h.metrics.NotificationsDropped.Inc()
		h.teardown(failed)
	}
}

// Broadcast pushes msg to every registered connection, pruning the ones whose
// push fails. A slow recipient never delays the others.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	var failed []*connection
	for _, c := range h.conns {
		if h.trySendLocked(c, msg) {
			h.metrics.NotificationsDelivered.Inc()
		} else {
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range failed {
		h.metrics.NotificationsDropped.Inc()
		h.teardown(c)
	}
}

// ConnectedCount returns the number of live connections.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown tears down every connection; used on process exit so stream
// handlers observe closed channels and return.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	for _, c := range conns {
		h.removeLocked(c)
	}
	h.mu.Unlock()
	for range conns {
		h.metrics.StreamConnections.Dec()
	}
}

// trySendLocked performs a non-blocking push. Caller holds at least a read
// lock, which excludes concurrent channel close.
func (h *Hub) trySendLocked(c *connection, msg Message) bool {
	select {
	case c.ch <- msg:
		return true
	default:
		return false
	}
}

// removeLocked unlinks a connection and closes its channels. Caller holds the
// write lock; closing under the lock is what makes trySendLocked safe.
func (h *Hub) removeLocked(c *connection) {
	delete(h.conns, c.userID)
	close(c.stop)
	close(c.ch)
}

// teardown removes c if it is still the registered connection for its user.
// Safe to call multiple times and from any goroutine.
func (h *Hub) teardown(c *connection) {
	h.mu.Lock()
	current, ok := h.conns[c.userID]
	removed := ok && current == c
	if removed {
		h.removeLocked(c)
	}
	h.mu.Unlock()
	if removed {
		h.metrics.StreamConnections.Dec()
	}
}

// heartbeatLoop pushes keep-alives until the connection is torn down. A
// failed heartbeat push means the client stopped draining; the connection is
// pruned exactly like a failed notification push.
func (h *Hub) heartbeatLoop(c *connection) {
	ticker := time.NewTicker(h.heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			h.mu.RLock()
			current, ok := h.conns[c.userID]
			alive := ok && current == c
			sent := alive && h.trySendLocked(c, Message{Type: TypeHeartbeat, Timestamp: time.Now()})
			h.mu.RUnlock()

			if !alive {
				return
			}
			if !sent {
				h.teardown(c)
				return
			}
		}
	}
}
