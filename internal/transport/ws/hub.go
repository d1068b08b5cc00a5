package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
)

// connection is a single WebSocket client.
type connection struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConnection(ws *websocket.Conn) *connection {
	return &connection{
		id:   uuid.New().String(),
		conn: ws,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

// close stops the write pump and closes the socket. Safe to call repeatedly.
func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue queues data for the write pump, dropping the client if it cannot keep up.
func (c *connection) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		observability.Logger().Warn("websocket send buffer full, closing", "conn_id", c.id)
		c.close()
	}
}

// hub tracks which connections have talked about which session.
type hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*connection]struct{}
	bound    map[*connection]map[string]struct{}
}

func newHub() *hub {
	return &hub{
		sessions: make(map[string]map[*connection]struct{}),
		bound:    make(map[*connection]map[string]struct{}),
	}
}

// bind records that conn is interested in sessionID. Closed connections are
// ignored; the check runs under the lock so it cannot interleave with remove.
func (h *hub) bind(conn *connection, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-conn.done:
		return
	default:
	}

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*connection]struct{})
	}
	h.sessions[sessionID][conn] = struct{}{}
	if h.bound[conn] == nil {
		h.bound[conn] = make(map[string]struct{})
	}
	h.bound[conn][sessionID] = struct{}{}
}

// remove forgets every binding of conn.
func (h *hub) remove(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sessionID := range h.bound[conn] {
		delete(h.sessions[sessionID], conn)
		if len(h.sessions[sessionID]) == 0 {
			delete(h.sessions, sessionID)
		}
	}
	delete(h.bound, conn)
}

// broadcastJSON sends v to every connection bound to sessionID.
func (h *hub) broadcastJSON(sessionID string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		observability.Logger().Error("failed to marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*connection, 0, len(h.sessions[sessionID]))
	for conn := range h.sessions[sessionID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		conn.enqueue(data)
	}
}

func (h *hub) connectionsFor(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
