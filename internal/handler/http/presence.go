package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"thumbio/internal/hub"
	"thumbio/internal/presence"
)

// PresenceHandler exposes read-only views of the presence hub.
type PresenceHandler struct {
	hub *hub.Hub
}

// NewPresenceHandler creates a PresenceHandler.
func NewPresenceHandler(h *hub.Hub) *PresenceHandler {
	if h == nil {
		panic("Hub cannot be nil for PresenceHandler")
	}
	return &PresenceHandler{hub: h}
}

// RoomPresenceResponse is the body of GET /api/rooms/:roomId/presence.
type RoomPresenceResponse struct {
	Room            string                 `json:"room"`
	ConnectionCount int                    `json:"connectionCount"`
	Participants    []presence.Participant `json:"participants"`
}

// ListRooms handles GET /api/rooms.
func (h *PresenceHandler) ListRooms(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, h.hub.Rooms())
}

// RoomPresence handles GET /api/rooms/:roomId/presence. A room nobody is in
// reports an empty roster.
func (h *PresenceHandler) RoomPresence(c *gin.Context) {
	roomID := c.Param("roomId")
	roster, _ := h.hub.Roster(roomID)
	if roster == nil {
		roster = []presence.Participant{}
	}
	SuccessResponse(c, http.StatusOK, RoomPresenceResponse{
		Room:            roomID,
		ConnectionCount: len(roster),
		Participants:    roster,
	})
}
