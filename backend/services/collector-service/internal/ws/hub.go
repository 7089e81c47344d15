package ws

import (
	"sync"
)

// Hub tracks feed connections and fans rows out to them.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

// NewHub builds connection hub.
func NewHub() *Hub {
	return &Hub{connections: make(map[string]*Connection)}
}

// Add registers new connection.
func (h *Hub) Add(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn.ID()] = conn
}

// Remove removes connection.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, id)
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast queues msg on every connection without blocking.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		conn.Send(msg)
	}
}
