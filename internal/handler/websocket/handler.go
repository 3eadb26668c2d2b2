package websocket

import (
	"net/http"
	"strings"

	"thumbio/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const maxRoomNameLength = 128

// WebSocketHandler upgrades presence connections and registers them with the hub.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler creates a handler. allowedOrigin restricts browser
// origins; empty or "*" allows any.
func NewWebSocketHandler(h *hub.Hub, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return origin == allowedOrigin
		},
	}

	return &WebSocketHandler{upgrader: upgrader, hub: h}
}

// HandleConnection serves GET /ws/room/:roomId. Rooms are created on first
// connection; any non-empty name is accepted.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	roomID := strings.TrimSpace(c.Param("roomId"))
	logCtx := logrus.WithField("room_id", roomID)
	if roomID == "" || len(roomID) > maxRoomNameLength {
		logCtx.Warn("WS Handler: Invalid room name")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room name"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, roomID)
	logCtx = logCtx.WithField("user_id", client.ID())
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", RoomID: roomID, Client: client}) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}

	client.Run()
	logCtx.Debug("WS Handler: Client read/write pumps started")
}
