package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/yourusername/contest-api/internal/websocket"
)

// WSHandler upgrades viewer connections and hands them to the hub. Viewers
// are anonymous; a connection can watch one contest's reveal at a time.
type WSHandler struct {
	wsHub     *websocket.Hub
	wsManager *websocket.Manager
}

// NewWSHandler creates the WebSocket handler.
func NewWSHandler(wsHub *websocket.Hub, wsManager *websocket.Manager) *WSHandler {
	return &WSHandler{
		wsHub:     wsHub,
		wsManager: wsManager,
	}
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Non-browser clients (curl, native apps) send no Origin.
		if origin == "" {
			return true
		}

		// Keep in sync with the CORS config in main.go.
		allowedOrigins := []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://localhost:8000",
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: rejected unauthorized origin: %s", origin)
		return false
	},
	EnableCompression: true,
}

// HandleConnection upgrades the request and starts the client pumps. An
// optional ?contest_id= query subscribes the viewer immediately, without a
// separate subscribe frame.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.wsHub, conn)
	h.wsHub.Register(client)
	client.StartPumps(h.wsManager.HandleMessage)

	if idStr := c.Query("contest_id"); idStr != "" {
		if id, err := strconv.ParseUint(idStr, 10, 32); err == nil && id > 0 {
			h.wsHub.SubscribeToContest(client, uint(id))
		}
	}

	log.Printf("[WSHandler] Client %s connected", client.ConnectionID)
}
