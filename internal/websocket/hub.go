package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"visionboard-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// sendBufferSize bounds how many pending events a slow client may queue
// before further publishes to it are dropped.
const sendBufferSize = 256

// SessionChecker reports whether a session id is live. The hub refuses
// connections for unknown sessions.
type SessionChecker interface {
	Get(id string) (models.Session, error)
}

// connection pairs one websocket conn with a dedicated writer goroutine.
// Chat turns and board generation may publish concurrently for the same
// session, and the conn allows only one writer, so every outbound frame goes
// through the send channel and is written by exactly one goroutine.
type connection struct {
	ws   *websocket.Conn
	send chan []byte
}

func (c *connection) writeLoop() {
	defer c.ws.Close()
	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Hub fans session events (assistant replies, board generation) out to every
// websocket connection of that session, so multiple tabs stay in sync.
type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*connection
	sessions    SessionChecker
}

func NewHub(sessions SessionChecker) *Hub {
	return &Hub{
		connections: make(map[string][]*connection),
		sessions:    sessions,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "Missing session", http.StatusBadRequest)
		return
	}

	if _, err := h.sessions.Get(sessionID); err != nil {
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn := &connection{ws: ws, send: make(chan []byte, sendBufferSize)}
	go conn.writeLoop()
	h.registerConnection(sessionID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(sessionID, conn)
		for {
			_, _, err := ws.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(sessionID string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[sessionID] = append(h.connections[sessionID], conn)
	log.Printf("WebSocket connected: session %s (total: %d)", sessionID, len(h.connections[sessionID]))
}

func (h *Hub) unregisterConnection(sessionID string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.connections[sessionID]
	for i, c := range conns {
		if c == conn {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
	}

	// Closing the channel stops the writer goroutine, which closes the conn
	close(conn.send)

	log.Printf("WebSocket disconnected: session %s", sessionID)
}

// Publish queues a message for every connection of the session. A connection
// whose send buffer is full misses the event rather than blocking the caller.
func (h *Hub) Publish(sessionID string, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[sessionID] {
		select {
		case conn.send <- data:
		default:
		}
	}
}
