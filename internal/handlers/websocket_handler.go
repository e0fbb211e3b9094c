package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"nnm-backend/internal/ws"
)

// WebSocketHandler upgrades clients that want to follow a mint attempt
// live.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the handler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// AttemptStreamHandler handles GET /ws/attempts/:id. The socket
// receives each state transition of the attempt as a JSON message.
func (h *WebSocketHandler) AttemptStreamHandler(c *gin.Context) {
	attemptID := c.Param("id")
	if attemptID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "attempt id is required",
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithField("error", err.Error()).Warn("WebSocket upgrade failed")
		return
	}

	cancel := h.hub.Subscribe(attemptID, conn)
	logrus.WithField("attempt_id", attemptID).Debug("Attempt subscriber connected")

	// Read loop exists only to detect the client closing the socket;
	// the hub's writer closes the connection once detached.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
