package hub

import (
	"context"
	"sort"
	"sync"
	"time"

	"thumbio/internal/presence"

	"github.com/sirupsen/logrus"
)

// WebSocket tuning shared by the hub and its clients.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Cursor frames are tiny.
	maxMessageSize = 1024

	// Buffered frames per client before new frames are dropped.
	sendBufferSize = 256
)

// HubMessage is an event handed from a client goroutine to the hub loop.
type HubMessage struct {
	Type    string // "register", "unregister", "message"
	RoomID  string
	Client  *Client
	RawData []byte // only for "message"
}

// RoomSummary is the public view of an active room.
type RoomSummary struct {
	Name            string `json:"name"`
	ConnectionCount int    `json:"connectionCount"`
}

// Hub owns every active presence room. All roster mutations run on the Run
// loop; HTTP readers only take the read lock.
type Hub struct {
	messageChan chan HubMessage

	rooms   map[string]*presence.Room
	roomsMu sync.RWMutex

	// clients is only touched by the Run loop.
	clients map[*Client]struct{}

	roomOpts []presence.RoomOption
	log      *logrus.Entry
}

// NewHub creates a hub. roomOpts are applied to every room it creates.
func NewHub(roomOpts ...presence.RoomOption) *Hub {
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		rooms:       make(map[string]*presence.Room),
		clients:     make(map[*Client]struct{}),
		roomOpts:    roomOpts,
		log:         logrus.WithField("component", "hub"),
	}
}

// Run processes hub messages until ctx is cancelled. It must run in its own
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("Hub is running...")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.Info("Hub is shutting down...")
			return
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			case "message":
				h.handleClientMessage(msg)
			default:
				h.log.Warnf("Hub: Received unknown message type: %s in room %s", msg.Type, msg.RoomID)
			}
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		h.log.Error("Hub: Attempted to register a nil client")
		return
	}
	logCtx := h.log.WithFields(logrus.Fields{
		"room_id": client.RoomID(),
		"user_id": client.ID(),
		"action":  "registerClient",
	})

	h.roomsMu.Lock()
	room, ok := h.rooms[client.RoomID()]
	if !ok {
		room = presence.NewRoom(client.RoomID(), h.roomOpts...)
		h.rooms[client.RoomID()] = room
		logCtx.Info("Room created on first connection")
	}
	h.roomsMu.Unlock()

	h.clients[client] = struct{}{}
	room.OnConnect(client)
	logCtx.Info("Client registered to Hub")
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		h.log.Error("Hub: Attempted to unregister a nil client")
		return
	}
	logCtx := h.log.WithFields(logrus.Fields{
		"room_id": client.RoomID(),
		"user_id": client.ID(),
		"action":  "unregisterClient",
	})
	delete(h.clients, client)

	h.roomsMu.RLock()
	room, ok := h.rooms[client.RoomID()]
	h.roomsMu.RUnlock()
	if !ok {
		logCtx.Warn("Room not found during client unregister")
		client.closeSend()
		return
	}

	if !room.OnDisconnect(client.ID()) {
		logCtx.Warn("Client not found in room during unregister")
	}
	client.closeSend()

	h.roomsMu.Lock()
	if room.Len() == 0 {
		delete(h.rooms, client.RoomID())
		logCtx.Info("Room empty, removed from Hub")
	}
	h.roomsMu.Unlock()
	logCtx.Info("Client unregistered from Hub")
}

func (h *Hub) handleClientMessage(msg HubMessage) {
	h.roomsMu.RLock()
	room, ok := h.rooms[msg.RoomID]
	h.roomsMu.RUnlock()
	if !ok || msg.Client == nil {
		return
	}
	room.OnMessage(msg.Client.ID(), msg.RawData)
}

// closeAll ends every connection: closing the send queue makes WritePump
// send a close frame and close the socket, which also stops ReadPump.
func (h *Hub) closeAll() {
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for name := range h.rooms {
		delete(h.rooms, name)
	}
}

// QueueMessage puts msg on the hub queue without blocking. It reports
// whether the message was accepted.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"message_type": msg.Type,
			"room_id":      msg.RoomID,
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

// Rooms lists active rooms sorted by name.
func (h *Hub) Rooms() []RoomSummary {
	h.roomsMu.RLock()
	out := make([]RoomSummary, 0, len(h.rooms))
	for name, room := range h.rooms {
		out = append(out, RoomSummary{Name: name, ConnectionCount: room.Len()})
	}
	h.roomsMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Roster returns a copy of a room's participants. ok is false when the room
// has no connections.
func (h *Hub) Roster(roomID string) (participants []presence.Participant, ok bool) {
	h.roomsMu.RLock()
	room, ok := h.rooms[roomID]
	h.roomsMu.RUnlock()
	if !ok {
		return nil, false
	}
	return room.Roster(), true
}
