package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"inventory-alert-service/internal/logging"
	"inventory-alert-service/internal/models"
)

const maxFeedConnections = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub broadcasts newly created alerts to every connected feed client.
type Hub struct {
	connections map[*websocket.Conn]bool
	mutex       sync.Mutex
	logger      *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{connections: make(map[*websocket.Conn]bool), logger: logger}
}

func (h *Hub) add(conn *websocket.Conn) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if len(h.connections) >= maxFeedConnections {
		h.logger.Warnf("Max feed connections reached, rejecting client")
		return false
	}
	h.connections[conn] = true
	h.logger.Infof("Feed client connected (total: %d)", len(h.connections))
	return true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.connections, conn)
	h.logger.Infof("Feed client disconnected (remaining: %d)", len(h.connections))
}

// Broadcast sends the alert to all clients, dropping connections that fail.
func (h *Hub) Broadcast(alert models.Alert) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.connections {
		if err := conn.WriteJSON(alert); err != nil {
			h.logger.Errorf("Failed to send feed message: %v", err)
			conn.Close()
			delete(h.connections, conn)
		}
	}
}

// AlertFeed upgrades the request and streams created alerts until the client
// goes away.
func (h *Handler) AlertFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	if !h.hub.add(conn) {
		conn.Close()
		return
	}
	defer func() {
		h.hub.remove(conn)
		conn.Close()
	}()

	// Reads are only used to detect disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
