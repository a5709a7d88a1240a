package events

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans events out to websocket clients subscribed to a camera's
// notification room. Grounded on internal/ws/detection_hub.go's
// per-camera connection-set map and write-deadline/drop-on-error
// broadcast pattern.
type Hub struct {
	clients map[string]map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]bool)}
}

// Register adds a connection to a camera's notification room.
func (h *Hub) Register(cameraID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[cameraID] == nil {
		h.clients[cameraID] = make(map[*websocket.Conn]bool)
	}
	h.clients[cameraID][conn] = true
}

// Unregister removes a connection from a camera's notification room.
func (h *Hub) Unregister(cameraID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[cameraID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, cameraID)
		}
	}
}

// HasClients reports whether any client is subscribed to cameraID.
func (h *Hub) HasClients(cameraID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.clients[cameraID]
	return ok && len(conns) > 0
}

// BroadcastToCamera sends a raw message to every client subscribed to
// cameraID, dropping and closing any connection that fails to write.
func (h *Hub) BroadcastToCamera(cameraID string, message []byte) {
	h.mu.RLock()
	conns := h.clients[cameraID]
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	for conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.Unregister(cameraID, conn)
			conn.Close()
		}
	}
}

// ClientCount returns the total number of connected clients across all
// cameras.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, conns := range h.clients {
		count += len(conns)
	}
	return count
}
